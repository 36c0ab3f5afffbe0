package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/wanderio/tourbooking/internal/domain"
	"github.com/wanderio/tourbooking/internal/kafka"
	"github.com/wanderio/tourbooking/internal/pricing"
	"github.com/wanderio/tourbooking/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) error
	ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error)
	BookingStats(ctx context.Context) (*repository.BookingStats, error)
	CompleteElapsed(ctx context.Context) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	subjects           repository.SubjectRepository
	producer           Producer
	notificationsTopic string
	publishTimeout     time.Duration
	paymentCorrections bool
}

type CreateBookingInput struct {
	SubjectKind     domain.SubjectKind
	SubjectID       uuid.UUID
	UserID          uuid.UUID
	StartDate       time.Time
	EndDate         *time.Time
	TravelerCount   int
	Travelers       []domain.Traveler
	SpecialRequests string
}

type BookingServiceOption func(*BookingService)

// WithPublishTimeout bounds how long a notification publish may take. The
// publish never blocks the mutation beyond this.
func WithPublishTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.publishTimeout = d
	}
}

// WithPaymentCorrections lifts the payment transition guard so staff can fix
// mis-recorded settlement states (e.g. PAID back to PENDING).
func WithPaymentCorrections() BookingServiceOption {
	return func(s *BookingService) {
		s.paymentCorrections = true
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	subjects repository.SubjectRepository,
	producer Producer,
	notificationsTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:           bookings,
		subjects:           subjects,
		producer:           producer,
		notificationsTopic: notificationsTopic,
		publishTimeout:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking runs the whole workflow: resolve subject, price server-side,
// validate travelers, persist atomically, then notify best-effort. The total
// is always recomputed here; any client-submitted price is ignored.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	subject, err := s.subjects.GetSubject(ctx, domain.SubjectRef{Kind: input.SubjectKind, ID: input.SubjectID})
	if err != nil {
		return nil, err
	}
	if !subject.Active {
		return nil, domain.ErrSubjectInactive
	}
	if !subject.GroupSizeAllows(input.TravelerCount) {
		return nil, &domain.GroupSizeViolationError{
			Min:       subject.MinGroupSize,
			Max:       subject.MaxGroupSize,
			Requested: input.TravelerCount,
		}
	}

	start := truncateToDate(input.StartDate)
	if start.Before(truncateToDate(time.Now())) {
		return nil, domain.ErrInvalidDate
	}

	var end time.Time
	switch input.SubjectKind {
	case domain.SubjectKindPackage:
		end = subject.DerivedEndDate(start)
	default:
		if input.EndDate == nil {
			return nil, &domain.InvalidInputError{Reason: "end date is required for tour bookings"}
		}
		end = truncateToDate(*input.EndDate)
		if end.Before(start) {
			return nil, &domain.InvalidInputError{Reason: "end date must not be before start date"}
		}
	}

	quote, err := pricing.QuoteSubject(subject, input.TravelerCount)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateTravelers(input.Travelers, input.TravelerCount); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:                uuid.New(),
		Subject:           subject.Ref,
		UserID:            input.UserID,
		StartDate:         start,
		EndDate:           end,
		NumberOfTravelers: input.TravelerCount,
		BasePriceCents:    quote.BasePriceCents,
		DiscountPercent:   quote.DiscountPercent,
		TotalPriceCents:   quote.TotalCents,
		Currency:          subject.Currency,
		Status:            domain.BookingStatusPending,
		PaymentStatus:     domain.PaymentStatusPending,
		SpecialRequests:   input.SpecialRequests,
		Travelers:         input.Travelers,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCreated, booking, subject.Name)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, &domain.IllegalTransitionError{Axis: "status", From: string(current.Status), To: string(status)}
	}

	// Compare-and-set against the status the guard saw. A concurrent update
	// between the read and the write makes the CAS miss, never a terminal
	// state silently re-entered.
	updated, err := s.bookings.UpdateStatus(ctx, id, current.Status, status)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return nil, &domain.IllegalTransitionError{Axis: "status", From: string(current.Status), To: string(status)}
	}
	if err != nil {
		return nil, err
	}

	switch status {
	case domain.BookingStatusConfirmed:
		s.publish(ctx, kafka.EventBookingConfirmed, updated, "")
	case domain.BookingStatusCancelled:
		s.publish(ctx, kafka.EventBookingCancelled, updated, "")
	case domain.BookingStatusCompleted:
		s.publish(ctx, kafka.EventBookingCompleted, updated, "")
	}
	return updated, nil
}

func (s *BookingService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus == status {
		return current, nil
	}
	if !s.paymentCorrections && !current.PaymentStatus.CanTransitionTo(status) {
		return nil, &domain.IllegalTransitionError{Axis: "payment", From: string(current.PaymentStatus), To: string(status)}
	}

	updated, err := s.bookings.UpdatePaymentStatus(ctx, id, current.PaymentStatus, status)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return nil, &domain.IllegalTransitionError{Axis: "payment", From: string(current.PaymentStatus), To: string(status)}
	}
	if err != nil {
		return nil, err
	}

	switch status {
	case domain.PaymentStatusPaid:
		s.publish(ctx, kafka.EventPaymentConfirmed, updated, "")
	case domain.PaymentStatusFailed, domain.PaymentStatusRefunded:
		s.publish(ctx, kafka.EventPaymentUpdated, updated, "")
	}
	return updated, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	return s.bookings.Delete(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

func (s *BookingService) BookingStats(ctx context.Context) (*repository.BookingStats, error) {
	return s.bookings.Stats(ctx)
}

// CompleteElapsed moves confirmed bookings whose end date has passed to
// COMPLETED. Run periodically by the worker.
func (s *BookingService) CompleteElapsed(ctx context.Context) ([]domain.Booking, error) {
	completed, err := s.bookings.CompleteElapsedBefore(ctx, truncateToDate(time.Now()))
	if err != nil {
		return nil, err
	}
	for i := range completed {
		s.publish(ctx, kafka.EventBookingCompleted, &completed[i], "")
	}
	return completed, nil
}

// publish sends a notification event after the mutation has committed. It is
// best-effort: failures are logged and never surface to the caller. The
// timeout is detached from the request context so a cancelled request cannot
// drop an already-committed booking's notification.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, subjectName string) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}

	event := kafka.BookingEvent{
		Type:            eventType,
		BookingID:       booking.ID.String(),
		SubjectKind:     string(booking.Subject.Kind),
		SubjectID:       booking.Subject.ID.String(),
		SubjectName:     subjectName,
		Status:          string(booking.Status),
		PaymentStatus:   string(booking.PaymentStatus),
		TotalPriceCents: booking.TotalPriceCents,
		Currency:        booking.Currency,
		StartDate:       booking.StartDate,
		EndDate:         booking.EndDate,
	}
	if contact := booking.MainContact(); contact != nil {
		event.ContactName = contact.FirstName + " " + contact.LastName
		event.ContactEmail = contact.Email
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.producer.Publish(pubCtx, s.notificationsTopic, event.BookingID, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", eventType, event.BookingID, err)
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ BookingUseCase = (*BookingService)(nil)
