package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubjectKind string

const (
	SubjectKindTour    SubjectKind = "TOUR"
	SubjectKindPackage SubjectKind = "PACKAGE"
)

func ParseSubjectKind(s string) (SubjectKind, bool) {
	switch SubjectKind(s) {
	case SubjectKindTour, SubjectKindPackage:
		return SubjectKind(s), true
	}
	return "", false
}

// SubjectRef identifies the one bookable thing a booking is for.
type SubjectRef struct {
	Kind SubjectKind `json:"kind"`
	ID   uuid.UUID   `json:"id"`
}

// Subject is the bookable view of a tour or a package: whatever a booking
// needs to price and bound itself, nothing else from the catalog row.
type Subject struct {
	Ref             SubjectRef `json:"ref"`
	Name            string     `json:"name"`
	BasePriceCents  int64      `json:"base_price_cents"`
	Currency        string     `json:"currency"`
	DiscountPercent *float64   `json:"discount_percent,omitempty"`
	MinGroupSize    int        `json:"min_group_size"`
	MaxGroupSize    int        `json:"max_group_size"`
	DurationDays    int        `json:"duration_days"`
	Active          bool       `json:"active"`
}

// DerivedEndDate computes the booking end date for package subjects, where the
// duration is fixed by the itinerary. Tours take the end date from the caller.
func (s *Subject) DerivedEndDate(start time.Time) time.Time {
	days := s.DurationDays
	if days < 1 {
		days = 1
	}
	return start.AddDate(0, 0, days-1)
}

func (s *Subject) GroupSizeAllows(travelers int) bool {
	return travelers >= s.MinGroupSize && travelers <= s.MaxGroupSize
}
