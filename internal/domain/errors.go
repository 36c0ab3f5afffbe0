package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrSubjectInactive    = errors.New("subject is not open for booking")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrInvalidDate        = errors.New("start date must not be in the past")
	ErrMissingMainContact = errors.New("exactly one traveler must be flagged as main contact")
)

type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("traveler count mismatch: expected %d, got %d", e.Expected, e.Got)
}

type IncompleteTravelerError struct {
	Index int
	Field string
}

func (e *IncompleteTravelerError) Error() string {
	return fmt.Sprintf("traveler %d is missing %s", e.Index, e.Field)
}

type GroupSizeViolationError struct {
	Min       int
	Max       int
	Requested int
}

func (e *GroupSizeViolationError) Error() string {
	return fmt.Sprintf("group size %d outside allowed range [%d, %d]", e.Requested, e.Min, e.Max)
}

type IllegalTransitionError struct {
	Axis string
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition %s -> %s", e.Axis, e.From, e.To)
}
