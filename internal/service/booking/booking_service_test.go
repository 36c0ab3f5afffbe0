package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wanderio/tourbooking/internal/domain"
	"github.com/wanderio/tourbooking/internal/kafka"
	"github.com/wanderio/tourbooking/internal/repository"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to domain.PaymentStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Stats(ctx context.Context) (*repository.BookingStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.BookingStats), args.Error(1)
}

func (m *MockBookingRepository) CompleteElapsedBefore(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockSubjectRepository struct {
	mock.Mock
}

func (m *MockSubjectRepository) ListTours(ctx context.Context) ([]domain.Subject, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) ListPackages(ctx context.Context) ([]domain.Subject, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) GetSubject(ctx context.Context, ref domain.SubjectRef) (*domain.Subject, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

const notificationsTopic = "booking-notifications"

func newService(bookings *MockBookingRepository, subjects *MockSubjectRepository, producer *MockProducer, opts ...BookingServiceOption) *BookingService {
	return NewBookingService(bookings, subjects, producer, notificationsTopic, opts...)
}

func discount(p float64) *float64 { return &p }

func testSubject(kind domain.SubjectKind) *domain.Subject {
	return &domain.Subject{
		Ref:             domain.SubjectRef{Kind: kind, ID: uuid.New()},
		Name:            "Patagonia Highlights",
		BasePriceCents:  100000,
		Currency:        "USD",
		DiscountPercent: discount(15),
		MinGroupSize:    1,
		MaxGroupSize:    10,
		DurationDays:    5,
		Active:          true,
	}
}

func testTravelers(n int) []domain.Traveler {
	travelers := make([]domain.Traveler, n)
	for i := range travelers {
		travelers[i] = domain.Traveler{
			FirstName:     "Ada",
			LastName:      "Lovelace",
			Email:         "ada@example.com",
			Phone:         "+44 20 7946 0001",
			IsMainContact: i == 0,
		}
	}
	return travelers
}

func createInput(subject *domain.Subject, count int) CreateBookingInput {
	return CreateBookingInput{
		SubjectKind:   subject.Ref.Kind,
		SubjectID:     subject.Ref.ID,
		UserID:        uuid.New(),
		StartDate:     time.Now().AddDate(0, 1, 0),
		TravelerCount: count,
		Travelers:     testTravelers(count),
	}
}

func TestCreateBooking_Success(t *testing.T) {
	bookings := &MockBookingRepository{}
	subjects := &MockSubjectRepository{}
	producer := &MockProducer{}
	service := newService(bookings, subjects, producer)

	ctx := context.Background()
	subject := testSubject(domain.SubjectKindPackage)
	input := createInput(subject, 2)

	subjects.On("GetSubject", ctx, subject.Ref).Return(subject, nil).Once()
	bookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	producer.On("Publish", mock.Anything, notificationsTopic, mock.Anything, mock.Anything).Return(nil).Once()

	created, err := service.CreateBooking(ctx, input)

	require.NoError(t, err)
	require.NotNil(t, created)
	// $1000 base, 15% off, 2 travelers -> $1700.00
	assert.Equal(t, int64(170000), created.TotalPriceCents)
	assert.Equal(t, int64(100000), created.BasePriceCents)
	assert.Equal(t, "USD", created.Currency)
	assert.Equal(t, domain.BookingStatusPending, created.Status)
	assert.Equal(t, domain.PaymentStatusPending, created.PaymentStatus)
	assert.Equal(t, 2, created.NumberOfTravelers)
	assert.Len(t, created.Travelers, 2)
	// package end date is derived from the itinerary duration
	assert.Equal(t, created.StartDate.AddDate(0, 0, 4), created.EndDate)

	bookings.AssertExpectations(t)
	subjects.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestCreateBooking_TourRequiresEndDate(t *testing.T) {
	bookings := &MockBookingRepository{}
	subjects := &MockSubjectRepository{}
	producer := &MockProducer{}
	service := newService(bookings, subjects, producer)

	ctx := context.Background()
	subject := testSubject(domain.SubjectKindTour)
	input := createInput(subject, 2)

	subjects.On("GetSubject", ctx, subject.Ref).Return(subject, nil)

	_, err := service.CreateBooking(ctx, input)
	var invalid *domain.InvalidInputError
	require.ErrorAs(t, err, &invalid)

	end := input.StartDate.AddDate(0, 0, 3)
	input.EndDate = &end
	bookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	producer.On("Publish", mock.Anything, notificationsTopic, mock.Anything, mock.Anything).Return(nil).Once()

	created, err := service.CreateBooking(ctx, input)
	require.NoError(t, err)
	assert.False(t, created.EndDate.Before(created.StartDate))
}

func TestCreateBooking_SubjectNotFound(t *testing.T) {
	bookings := &MockBookingRepository{}
	subjects := &MockSubjectRepository{}
	service := newService(bookings, subjects, &MockProducer{})

	ctx := context.Background()
	subject := testSubject(domain.SubjectKindTour)
	subjects.On("GetSubject", ctx, subject.Ref).Return(nil, domain.ErrSubjectNotFound)

	_, err := service.CreateBooking(ctx, createInput(subject, 2))
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_GroupSizeViolation(t *testing.T) {
	bookings := &MockBookingRepository{}
	subjects := &MockSubjectRepository{}
	service := newService(bookings, subjects, &MockProducer{})

	ctx := context.Background()
	subject := testSubject(domain.SubjectKindPackage)
	subject.MaxGroupSize = 4
	subjects.On("GetSubject", ctx, subject.Ref).Return(subject, nil)

	_, err := service.CreateBooking(ctx, createInput(subject, 5))

	var violation *domain.GroupSizeViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, 5, violation.Requested)
	assert.Equal(t, 4, violation.Max)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_PastStartDate(t *testing.T) {
	bookings := &MockBookingRepository{}
	subjects := &MockSubjectRepository{}
	service := newService(bookings, subjects, &MockProducer{})

	ctx := context.Background()
	subject := testSubject(domain.SubjectKindPackage)
	subjects.On("GetSubject", ctx, subject.Ref).Return(subject, nil)

	input := createInput(subject, 2)
	input.StartDate = time.Now().AddDate(0, 0, -1)

	_, err := service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_TravelerCountMismatch(t *testing.T) {
	bookings := &MockBookingRepository{}
	subjects := &MockSubjectRepository{}
	service := newService(bookings, subjects, &MockProducer{})

	ctx := context.Background()
	subject := testSubject(domain.SubjectKindPackage)
	subjects.On("GetSubject", ctx, subject.Ref).Return(subject, nil)

	input := createInput(subject, 2)
	input.Travelers = testTravelers(3)

	_, err := service.CreateBooking(ctx, input)

	var mismatch *domain.CountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Expected)
	assert.Equal(t, 3, mismatch.Got)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_MissingMainContact(t *testing.T) {
	bookings := &MockBookingRepository{}
	subjects := &MockSubjectRepository{}
	service := newService(bookings, subjects, &MockProducer{})

	ctx := context.Background()
	subject := testSubject(domain.SubjectKindPackage)
	subjects.On("GetSubject", ctx, subject.Ref).Return(subject, nil)

	input := createInput(subject, 2)
	input.Travelers[0].IsMainContact = false

	_, err := service.CreateBooking(ctx, input)
	assert.ErrorIs(t, err, domain.ErrMissingMainContact)
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBooking_PublishFailureDoesNotFailCreation(t *testing.T) {
	bookings := &MockBookingRepository{}
	subjects := &MockSubjectRepository{}
	producer := &MockProducer{}
	service := newService(bookings, subjects, producer)

	ctx := context.Background()
	subject := testSubject(domain.SubjectKindPackage)
	subjects.On("GetSubject", ctx, subject.Ref).Return(subject, nil)
	bookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
	producer.On("Publish", mock.Anything, notificationsTopic, mock.Anything, mock.Anything).
		Return(errors.New("broker unreachable"))

	created, err := service.CreateBooking(ctx, createInput(subject, 2))

	require.NoError(t, err)
	assert.NotNil(t, created)
	producer.AssertExpectations(t)
}

func TestUpdateStatus_ConfirmPending(t *testing.T) {
	bookings := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newService(bookings, &MockSubjectRepository{}, producer)

	ctx := context.Background()
	id := uuid.New()
	current := &domain.Booking{ID: id, Status: domain.BookingStatusPending, Travelers: testTravelers(1)}
	confirmed := &domain.Booking{ID: id, Status: domain.BookingStatusConfirmed, Travelers: testTravelers(1)}

	bookings.On("GetByID", ctx, id).Return(current, nil)
	bookings.On("UpdateStatus", ctx, id, domain.BookingStatusPending, domain.BookingStatusConfirmed).Return(confirmed, nil)
	producer.On("Publish", mock.Anything, notificationsTopic, id.String(), mock.Anything).Return(nil).Once()

	updated, err := service.UpdateStatus(ctx, id, domain.BookingStatusConfirmed)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, updated.Status)
	producer.AssertExpectations(t)
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &MockSubjectRepository{}, &MockProducer{})

	ctx := context.Background()
	id := uuid.New()
	bookings.On("GetByID", ctx, id).Return(&domain.Booking{ID: id, Status: domain.BookingStatusCancelled}, nil)

	_, err := service.UpdateStatus(ctx, id, domain.BookingStatusConfirmed)

	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "CANCELLED", illegal.From)
	assert.Equal(t, "CONFIRMED", illegal.To)
	bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_ConcurrentChangeConflicts(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &MockSubjectRepository{}, &MockProducer{})

	ctx := context.Background()
	id := uuid.New()
	// Another admin cancels between the guard read and the write; the
	// compare-and-set misses and the confirm must not land.
	bookings.On("GetByID", ctx, id).Return(&domain.Booking{ID: id, Status: domain.BookingStatusPending}, nil)
	bookings.On("UpdateStatus", ctx, id, domain.BookingStatusPending, domain.BookingStatusConfirmed).
		Return(nil, domain.ErrBookingNotFound)

	_, err := service.UpdateStatus(ctx, id, domain.BookingStatusConfirmed)

	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "status", illegal.Axis)
	assert.Equal(t, "PENDING", illegal.From)
	assert.Equal(t, "CONFIRMED", illegal.To)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &MockSubjectRepository{}, &MockProducer{})

	ctx := context.Background()
	id := uuid.New()
	bookings.On("GetByID", ctx, id).Return(nil, domain.ErrBookingNotFound)

	_, err := service.UpdateStatus(ctx, id, domain.BookingStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestUpdatePaymentStatus_PaidPublishesConfirmation(t *testing.T) {
	bookings := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newService(bookings, &MockSubjectRepository{}, producer)

	ctx := context.Background()
	id := uuid.New()
	current := &domain.Booking{ID: id, Status: domain.BookingStatusConfirmed, PaymentStatus: domain.PaymentStatusPending, Travelers: testTravelers(1)}
	paid := &domain.Booking{ID: id, Status: domain.BookingStatusConfirmed, PaymentStatus: domain.PaymentStatusPaid, Travelers: testTravelers(1)}

	bookings.On("GetByID", ctx, id).Return(current, nil)
	bookings.On("UpdatePaymentStatus", ctx, id, domain.PaymentStatusPending, domain.PaymentStatusPaid).Return(paid, nil)
	producer.On("Publish", mock.Anything, notificationsTopic, id.String(), mock.Anything).Return(nil).Once()

	updated, err := service.UpdatePaymentStatus(ctx, id, domain.PaymentStatusPaid)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)
	producer.AssertExpectations(t)
}

func TestUpdatePaymentStatus_GuardedByDefault(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &MockSubjectRepository{}, &MockProducer{})

	ctx := context.Background()
	id := uuid.New()
	bookings.On("GetByID", ctx, id).Return(&domain.Booking{ID: id, PaymentStatus: domain.PaymentStatusPaid}, nil)

	_, err := service.UpdatePaymentStatus(ctx, id, domain.PaymentStatusPending)

	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "payment", illegal.Axis)
}

func TestUpdatePaymentStatus_CorrectionsAllowedWhenConfigured(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &MockSubjectRepository{}, &MockProducer{}, WithPaymentCorrections())

	ctx := context.Background()
	id := uuid.New()
	current := &domain.Booking{ID: id, PaymentStatus: domain.PaymentStatusPaid}
	corrected := &domain.Booking{ID: id, PaymentStatus: domain.PaymentStatusPending}

	bookings.On("GetByID", ctx, id).Return(current, nil)
	bookings.On("UpdatePaymentStatus", ctx, id, domain.PaymentStatusPaid, domain.PaymentStatusPending).Return(corrected, nil)

	updated, err := service.UpdatePaymentStatus(ctx, id, domain.PaymentStatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, updated.PaymentStatus)
}

func TestUpdatePaymentStatus_SameStatusIsNoop(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &MockSubjectRepository{}, &MockProducer{})

	ctx := context.Background()
	id := uuid.New()
	current := &domain.Booking{ID: id, PaymentStatus: domain.PaymentStatusPaid}
	bookings.On("GetByID", ctx, id).Return(current, nil)

	updated, err := service.UpdatePaymentStatus(ctx, id, domain.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, current, updated)
	bookings.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePaymentStatus_ConcurrentChangeConflicts(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &MockSubjectRepository{}, &MockProducer{})

	ctx := context.Background()
	id := uuid.New()
	bookings.On("GetByID", ctx, id).Return(&domain.Booking{ID: id, PaymentStatus: domain.PaymentStatusPending}, nil)
	bookings.On("UpdatePaymentStatus", ctx, id, domain.PaymentStatusPending, domain.PaymentStatusPaid).
		Return(nil, domain.ErrBookingNotFound)

	_, err := service.UpdatePaymentStatus(ctx, id, domain.PaymentStatusPaid)

	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "payment", illegal.Axis)
}

func TestUpdatePaymentStatus_FailedPublishesUpdateEvent(t *testing.T) {
	bookings := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newService(bookings, &MockSubjectRepository{}, producer)

	ctx := context.Background()
	id := uuid.New()
	current := &domain.Booking{ID: id, PaymentStatus: domain.PaymentStatusPending, Travelers: testTravelers(1)}
	failed := &domain.Booking{ID: id, PaymentStatus: domain.PaymentStatusFailed, Travelers: testTravelers(1)}

	bookings.On("GetByID", ctx, id).Return(current, nil)
	bookings.On("UpdatePaymentStatus", ctx, id, domain.PaymentStatusPending, domain.PaymentStatusFailed).Return(failed, nil)
	producer.On("Publish", mock.Anything, notificationsTopic, id.String(), mock.MatchedBy(func(v interface{}) bool {
		event, ok := v.(kafka.BookingEvent)
		return ok && event.Type == kafka.EventPaymentUpdated
	})).Return(nil).Once()

	updated, err := service.UpdatePaymentStatus(ctx, id, domain.PaymentStatusFailed)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, updated.PaymentStatus)
	producer.AssertExpectations(t)
}

func TestDeleteBooking(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &MockSubjectRepository{}, &MockProducer{})

	ctx := context.Background()
	id := uuid.New()
	bookings.On("Delete", ctx, id).Return(nil).Once()

	require.NoError(t, service.DeleteBooking(ctx, id))
	bookings.AssertExpectations(t)
}

func TestCompleteElapsed(t *testing.T) {
	bookings := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newService(bookings, &MockSubjectRepository{}, producer)

	ctx := context.Background()
	elapsed := []domain.Booking{
		{ID: uuid.New(), Status: domain.BookingStatusCompleted, Travelers: testTravelers(1)},
		{ID: uuid.New(), Status: domain.BookingStatusCompleted, Travelers: testTravelers(2)},
	}

	bookings.On("CompleteElapsedBefore", ctx, mock.AnythingOfType("time.Time")).Return(elapsed, nil)
	producer.On("Publish", mock.Anything, notificationsTopic, mock.Anything, mock.Anything).Return(nil).Twice()

	completed, err := service.CompleteElapsed(ctx)

	require.NoError(t, err)
	assert.Len(t, completed, 2)
	producer.AssertExpectations(t)
}
