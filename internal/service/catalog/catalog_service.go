package catalog

import (
	"context"

	"github.com/wanderio/tourbooking/internal/domain"
	"github.com/wanderio/tourbooking/internal/repository"
)

type CatalogUseCase interface {
	ListTours(ctx context.Context) ([]domain.Subject, error)
	ListPackages(ctx context.Context) ([]domain.Subject, error)
	GetSubject(ctx context.Context, ref domain.SubjectRef) (*domain.Subject, error)
}

type Cache interface {
	GetSubjects(ctx context.Context, kind domain.SubjectKind) ([]domain.Subject, error)
	SetSubjects(ctx context.Context, kind domain.SubjectKind, subjects []domain.Subject) error
}

// CatalogService serves tour and package listings, cache-aside. Detail reads
// go straight to the store so pricing always sees current values.
type CatalogService struct {
	repo  repository.SubjectRepository
	cache Cache
}

func NewCatalogService(repo repository.SubjectRepository, cache Cache) *CatalogService {
	return &CatalogService{repo: repo, cache: cache}
}

func (s *CatalogService) ListTours(ctx context.Context) ([]domain.Subject, error) {
	return s.list(ctx, domain.SubjectKindTour)
}

func (s *CatalogService) ListPackages(ctx context.Context) ([]domain.Subject, error) {
	return s.list(ctx, domain.SubjectKindPackage)
}

func (s *CatalogService) list(ctx context.Context, kind domain.SubjectKind) ([]domain.Subject, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSubjects(ctx, kind); err == nil && cached != nil {
			return cached, nil
		}
	}

	var (
		subjects []domain.Subject
		err      error
	)
	switch kind {
	case domain.SubjectKindPackage:
		subjects, err = s.repo.ListPackages(ctx)
	default:
		subjects, err = s.repo.ListTours(ctx)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetSubjects(ctx, kind, subjects)
	}
	return subjects, nil
}

func (s *CatalogService) GetSubject(ctx context.Context, ref domain.SubjectRef) (*domain.Subject, error) {
	return s.repo.GetSubject(ctx, ref)
}

var _ CatalogUseCase = (*CatalogService)(nil)
