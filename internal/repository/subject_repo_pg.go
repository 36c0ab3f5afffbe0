package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wanderio/tourbooking/internal/domain"
)

type SubjectRepository interface {
	ListTours(ctx context.Context) ([]domain.Subject, error)
	ListPackages(ctx context.Context) ([]domain.Subject, error)
	GetSubject(ctx context.Context, ref domain.SubjectRef) (*domain.Subject, error)
}

type PGSubjectRepository struct {
	db DB
}

func NewSubjectRepository(db DB) SubjectRepository {
	return &PGSubjectRepository{db: db}
}

const subjectColumns = `id, name, base_price_cents, currency, discount_percent, min_group_size, max_group_size, duration_days, active`

// Tours and packages live in separate tables with the same bookable columns.
func subjectTable(kind domain.SubjectKind) (string, error) {
	switch kind {
	case domain.SubjectKindTour:
		return "tours", nil
	case domain.SubjectKindPackage:
		return "packages", nil
	}
	return "", fmt.Errorf("unknown subject kind %q", kind)
}

func (r *PGSubjectRepository) ListTours(ctx context.Context) ([]domain.Subject, error) {
	return r.list(ctx, domain.SubjectKindTour)
}

func (r *PGSubjectRepository) ListPackages(ctx context.Context) ([]domain.Subject, error) {
	return r.list(ctx, domain.SubjectKindPackage)
}

func (r *PGSubjectRepository) list(ctx context.Context, kind domain.SubjectKind) ([]domain.Subject, error) {
	table, err := subjectTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+subjectColumns+` FROM `+table+` WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := make([]domain.Subject, 0)
	for rows.Next() {
		var s domain.Subject
		s.Ref.Kind = kind
		if err := rows.Scan(&s.Ref.ID, &s.Name, &s.BasePriceCents, &s.Currency, &s.DiscountPercent,
			&s.MinGroupSize, &s.MaxGroupSize, &s.DurationDays, &s.Active); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *PGSubjectRepository) GetSubject(ctx context.Context, ref domain.SubjectRef) (*domain.Subject, error) {
	table, err := subjectTable(ref.Kind)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `SELECT `+subjectColumns+` FROM `+table+` WHERE id=$1`, ref.ID)

	var s domain.Subject
	s.Ref.Kind = ref.Kind
	err = row.Scan(&s.Ref.ID, &s.Name, &s.BasePriceCents, &s.Currency, &s.DiscountPercent,
		&s.MinGroupSize, &s.MaxGroupSize, &s.DurationDays, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

var _ SubjectRepository = (*PGSubjectRepository)(nil)
