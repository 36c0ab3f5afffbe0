package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wanderio/tourbooking/internal/domain"
)

// DB is the narrow slice of pgxpool.Pool the repositories need. pgxmock
// implements the same surface, which keeps repository tests off a live server.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type BookingFilter struct {
	Status        *domain.BookingStatus
	PaymentStatus *domain.PaymentStatus
	Search        string
}

type BookingStats struct {
	Total                 int   `json:"total"`
	Pending               int   `json:"pending"`
	Confirmed             int   `json:"confirmed"`
	Cancelled             int   `json:"cancelled"`
	Completed             int   `json:"completed"`
	ConfirmedRevenueCents int64 `json:"confirmed_revenue_cents"`
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) (*domain.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus) (*domain.Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	Stats(ctx context.Context) (*BookingStats, error)
	CompleteElapsedBefore(ctx context.Context, cutoff time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, subject_kind, subject_id, user_id, start_date, end_date, num_travelers,
		base_price_cents, discount_percent, total_price_cents, currency, status, payment_status,
		special_requests, created_at, updated_at`

// Create persists the booking and its travelers in one transaction. Nothing
// is written if any insert fails.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, subject_kind, subject_id, user_id, start_date, end_date, num_travelers, base_price_cents, discount_percent, total_price_cents, currency, status, payment_status, special_requests)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		booking.ID, booking.Subject.Kind, booking.Subject.ID, booking.UserID,
		booking.StartDate, booking.EndDate, booking.NumberOfTravelers,
		booking.BasePriceCents, booking.DiscountPercent, booking.TotalPriceCents, booking.Currency,
		booking.Status, booking.PaymentStatus, booking.SpecialRequests).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	for i, t := range booking.Travelers {
		if _, err := tx.Exec(ctx, `INSERT INTO travelers (booking_id, position, first_name, last_name, email, phone, date_of_birth, passport_number, is_main_contact)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			booking.ID, i, t.FirstName, t.LastName, t.Email, t.Phone, t.DateOfBirth, t.PassportNumber, t.IsMainContact); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if err := r.attachTravelers(ctx, []*domain.Booking{booking}); err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateStatus is a compare-and-set: the write only lands if the row still
// carries the status the caller validated against. Zero rows surfaces as
// ErrBookingNotFound; the caller decides whether that is a miss or a lost race.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+bookingColumns, to, id, from)
	booking, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if err := r.attachTravelers(ctx, []*domain.Booking{booking}); err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *PGBookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET payment_status=$1, updated_at=now() WHERE id=$2 AND payment_status=$3 RETURNING `+bookingColumns, to, id, from)
	booking, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if err := r.attachTravelers(ctx, []*domain.Booking{booking}); err != nil {
		return nil, err
	}
	return booking, nil
}

// Delete hard-deletes the booking and its travelers in one transaction.
func (r *PGBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM travelers WHERE booking_id=$1`, id); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.PaymentStatus != nil {
		args = append(args, *filter.PaymentStatus)
		conditions = append(conditions, fmt.Sprintf("payment_status=$%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM travelers t WHERE t.booking_id = bookings.id AND (t.first_name ILIKE $%d OR t.last_name ILIKE $%d OR t.email ILIKE $%d))", n, n, n))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Booking, len(bookings))
	for i := range bookings {
		refs[i] = &bookings[i]
	}
	if err := r.attachTravelers(ctx, refs); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *PGBookingRepository) Stats(ctx context.Context) (*BookingStats, error) {
	row := r.db.QueryRow(ctx, `SELECT count(*),
		count(*) FILTER (WHERE status='PENDING'),
		count(*) FILTER (WHERE status='CONFIRMED'),
		count(*) FILTER (WHERE status='CANCELLED'),
		count(*) FILTER (WHERE status='COMPLETED'),
		COALESCE(sum(total_price_cents) FILTER (WHERE status='CONFIRMED'), 0)
		FROM bookings`)
	var s BookingStats
	if err := row.Scan(&s.Total, &s.Pending, &s.Confirmed, &s.Cancelled, &s.Completed, &s.ConfirmedRevenueCents); err != nil {
		return nil, err
	}
	return &s, nil
}

// CompleteElapsedBefore moves confirmed bookings whose end date has passed to
// COMPLETED and returns them for notification.
func (r *PGBookingRepository) CompleteElapsedBefore(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE status=$2 AND end_date < $3 RETURNING `+bookingColumns,
		domain.BookingStatusCompleted, domain.BookingStatusConfirmed, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completed, err := collectBookings(rows)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Booking, len(completed))
	for i := range completed {
		refs[i] = &completed[i]
	}
	if err := r.attachTravelers(ctx, refs); err != nil {
		return nil, err
	}
	return completed, nil
}

func (r *PGBookingRepository) attachTravelers(ctx context.Context, bookings []*domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(bookings))
	byID := make(map[uuid.UUID]*domain.Booking, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	rows, err := r.db.Query(ctx, `SELECT booking_id, first_name, last_name, email, phone, date_of_birth, passport_number, is_main_contact
		FROM travelers WHERE booking_id = ANY($1) ORDER BY booking_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID uuid.UUID
		var t domain.Traveler
		if err := rows.Scan(&bookingID, &t.FirstName, &t.LastName, &t.Email, &t.Phone, &t.DateOfBirth, &t.PassportNumber, &t.IsMainContact); err != nil {
			return err
		}
		if b, ok := byID[bookingID]; ok {
			b.Travelers = append(b.Travelers, t)
		}
	}
	return rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.Subject.Kind, &b.Subject.ID, &b.UserID, &b.StartDate, &b.EndDate,
		&b.NumberOfTravelers, &b.BasePriceCents, &b.DiscountPercent, &b.TotalPriceCents, &b.Currency,
		&b.Status, &b.PaymentStatus, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.Subject.Kind, &b.Subject.ID, &b.UserID, &b.StartDate, &b.EndDate,
			&b.NumberOfTravelers, &b.BasePriceCents, &b.DiscountPercent, &b.TotalPriceCents, &b.Currency,
			&b.Status, &b.PaymentStatus, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
