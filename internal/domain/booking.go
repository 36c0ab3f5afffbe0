package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return BookingStatus(s), true
	}
	return "", false
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return PaymentStatus(s), true
	}
	return "", false
}

// statusTransitions is the only legal set of moves on the fulfillment axis.
// CANCELLED and COMPLETED are terminal.
var statusTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// paymentTransitions guards the settlement axis. Corrections such as
// PAID -> PENDING are rejected unless the service is configured to allow them.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusFailed:  {PaymentStatusPending, PaymentStatusPaid},
	PaymentStatusPaid:    {PaymentStatusRefunded},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Traveler struct {
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	PassportNumber string     `json:"passport_number,omitempty"`
	IsMainContact  bool       `json:"is_main_contact"`
}

type Booking struct {
	ID                uuid.UUID     `json:"id"`
	Subject           SubjectRef    `json:"subject"`
	UserID            uuid.UUID     `json:"user_id"`
	StartDate         time.Time     `json:"start_date"`
	EndDate           time.Time     `json:"end_date"`
	NumberOfTravelers int           `json:"number_of_travelers"`
	BasePriceCents    int64         `json:"base_price_cents"`
	DiscountPercent   *float64      `json:"discount_percent,omitempty"`
	TotalPriceCents   int64         `json:"total_price_cents"`
	Currency          string        `json:"currency"`
	Status            BookingStatus `json:"status"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	SpecialRequests   string        `json:"special_requests,omitempty"`
	Travelers         []Traveler    `json:"travelers"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// MainContact returns the traveler flagged as the primary point of contact.
func (b *Booking) MainContact() *Traveler {
	for i := range b.Travelers {
		if b.Travelers[i].IsMainContact {
			return &b.Travelers[i]
		}
	}
	return nil
}

// ValidateTravelers checks that a traveler list is complete enough to finalize
// a booking: the count matches, every record carries the required contact
// fields and exactly one traveler is the main contact.
func ValidateTravelers(travelers []Traveler, expectedCount int) error {
	if len(travelers) != expectedCount {
		return &CountMismatchError{Expected: expectedCount, Got: len(travelers)}
	}

	mainContacts := 0
	for i, t := range travelers {
		switch {
		case t.FirstName == "":
			return &IncompleteTravelerError{Index: i, Field: "first_name"}
		case t.LastName == "":
			return &IncompleteTravelerError{Index: i, Field: "last_name"}
		case t.Email == "":
			return &IncompleteTravelerError{Index: i, Field: "email"}
		case t.Phone == "":
			return &IncompleteTravelerError{Index: i, Field: "phone"}
		}
		if t.IsMainContact {
			mainContacts++
		}
	}
	if mainContacts != 1 {
		return ErrMissingMainContact
	}
	return nil
}
