package pricing

import (
	"math"

	"github.com/wanderio/tourbooking/internal/domain"
)

// Quote keeps the inputs of a price calculation next to its output so the
// total stored on a booking can be re-derived later for auditing.
type Quote struct {
	BasePriceCents  int64
	DiscountPercent *float64
	TravelerCount   int
	TotalCents      int64
}

// PerPersonCents applies the discount to the base price, rounded to the
// nearest cent.
func PerPersonCents(basePriceCents int64, discountPercent *float64) int64 {
	if discountPercent == nil {
		return basePriceCents
	}
	return int64(math.Round(float64(basePriceCents) * (1 - *discountPercent/100)))
}

// ComputeTotal prices a booking: per-person price times traveler count.
// It is deterministic and side-effect free.
func ComputeTotal(basePriceCents int64, discountPercent *float64, travelerCount int) (int64, error) {
	if travelerCount <= 0 {
		return 0, &domain.InvalidInputError{Reason: "traveler count must be positive"}
	}
	if basePriceCents < 0 {
		return 0, &domain.InvalidInputError{Reason: "base price must not be negative"}
	}
	if discountPercent != nil && (*discountPercent < 0 || *discountPercent > 100) {
		return 0, &domain.InvalidInputError{Reason: "discount percent must be between 0 and 100"}
	}
	return PerPersonCents(basePriceCents, discountPercent) * int64(travelerCount), nil
}

// QuoteSubject prices a booking of the given subject.
func QuoteSubject(subject *domain.Subject, travelerCount int) (Quote, error) {
	total, err := ComputeTotal(subject.BasePriceCents, subject.DiscountPercent, travelerCount)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		BasePriceCents:  subject.BasePriceCents,
		DiscountPercent: subject.DiscountPercent,
		TravelerCount:   travelerCount,
		TotalCents:      total,
	}, nil
}
