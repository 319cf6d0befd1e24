package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	// Date range errors
	ErrInvalidRange     = errors.New("invalid date range")
	ErrDatesUnavailable = errors.New("dates are not available")
	ErrWindowTooLarge   = errors.New("date window is too large")
	ErrStayTooLong      = errors.New("stay exceeds the maximum number of nights")

	// Pricing errors
	ErrInvalidPricingInput = errors.New("invalid pricing input")
	ErrInvalidAmount       = errors.New("invalid amount")

	// Guest errors
	ErrInvalidGuestCount = errors.New("invalid guest count")

	// Listing errors
	ErrPropertyNotFound   = errors.New("property not found")
	ErrListingNotBookable = errors.New("listing is not open for booking")
	ErrInvalidPropertyID  = errors.New("invalid property id")

	// Selection errors
	ErrIncompleteSelection = errors.New("booking selection is incomplete")

	// Upstream errors
	ErrBookingRejected     = errors.New("booking rejected by marketplace")
	ErrUpstreamUnavailable = errors.New("marketplace api unavailable")
)

// RangeError reports a structurally wrong date range (past or inverted)
type RangeError struct {
	Reason RangeReason
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRange, e.Reason)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// UnavailableError reports the nights that conflict with the availability feed
type UnavailableError struct {
	Dates []Date
}

func (e *UnavailableError) Error() string {
	parts := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%s: %s", ErrDatesUnavailable, strings.Join(parts, ", "))
}

func (e *UnavailableError) Unwrap() error {
	return ErrDatesUnavailable
}

// GuestCountError reports a guest count outside [1, capacity]
type GuestCountError struct {
	Reason   GuestReason
	Capacity int
}

func (e *GuestCountError) Error() string {
	return fmt.Sprintf("%s: %s (capacity %d)", ErrInvalidGuestCount, e.Reason, e.Capacity)
}

func (e *GuestCountError) Unwrap() error {
	return ErrInvalidGuestCount
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPropertyNotFound)
}

// IsValidationError checks if the error is a user-recoverable validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidGuestCount) ||
		errors.Is(err, ErrInvalidPropertyID) ||
		errors.Is(err, ErrIncompleteSelection) ||
		errors.Is(err, ErrWindowTooLarge) ||
		errors.Is(err, ErrStayTooLong)
}

// IsConflictError checks if the error is a conflict with current listing state
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDatesUnavailable) ||
		errors.Is(err, ErrListingNotBookable)
}
