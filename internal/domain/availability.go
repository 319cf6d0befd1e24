package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AvailabilityOverride is a sparse per-date exception to a property's default
// availability and nightly price. Dates without an override are available at the base rate.
type AvailabilityOverride struct {
	Date          Date                `json:"date"`
	IsAvailable   bool                `json:"is_available"`
	PriceOverride decimal.NullDecimal `json:"price_override"`
}

// OverrideIndex is an immutable lookup of overrides keyed by calendar date
type OverrideIndex map[Date]AvailabilityOverride

// IndexOverrides builds an OverrideIndex from an ordered override sequence.
// If the feed repeats a date, the later record wins.
func IndexOverrides(overrides []AvailabilityOverride) OverrideIndex {
	idx := make(OverrideIndex, len(overrides))
	for _, o := range overrides {
		idx[o.Date] = o
	}
	return idx
}

// Lookup returns the override for d, if any
func (idx OverrideIndex) Lookup(d Date) (AvailabilityOverride, bool) {
	o, ok := idx[d]
	return o, ok
}

// IsAvailable reports whether night d can be booked
func (idx OverrideIndex) IsAvailable(d Date) bool {
	o, ok := idx[d]
	return !ok || o.IsAvailable
}

// NightlyPrice returns the charge for night d and whether an override price was applied
func (idx OverrideIndex) NightlyPrice(d Date, base decimal.Decimal) (decimal.Decimal, bool) {
	if o, ok := idx[d]; ok && o.PriceOverride.Valid {
		return o.PriceOverride.Decimal, true
	}
	return base, false
}

// RangeStatus is the outcome of a date range validation
type RangeStatus string

const (
	RangeValid       RangeStatus = "valid"
	RangeInvalid     RangeStatus = "invalid_range"
	RangeUnavailable RangeStatus = "unavailable"
)

// RangeReason explains an invalid range
type RangeReason string

const (
	RangeReasonPast  RangeReason = "past"
	RangeReasonOrder RangeReason = "order"
)

// RangeValidation is the tagged result of ValidateDateRange.
// Reason is set only for RangeInvalid; ConflictingDates only for RangeUnavailable.
type RangeValidation struct {
	Status           RangeStatus `json:"status"`
	Reason           RangeReason `json:"reason,omitempty"`
	ConflictingDates []Date      `json:"conflicting_dates,omitempty"`
}

// Valid reports whether the range is legal and fully available
func (v RangeValidation) Valid() bool {
	return v.Status == RangeValid
}

// Err converts the result into an error: nil, *RangeError or *UnavailableError
func (v RangeValidation) Err() error {
	switch v.Status {
	case RangeValid:
		return nil
	case RangeInvalid:
		return &RangeError{Reason: v.Reason}
	case RangeUnavailable:
		return &UnavailableError{Dates: append([]Date(nil), v.ConflictingDates...)}
	default:
		return ErrInvalidRange
	}
}

// ValidateDateRange checks that r is not in the past, is correctly ordered and that no
// night in [CheckIn, CheckOut) is marked unavailable. today is supplied by the caller.
func ValidateDateRange(r DateRange, overrides []AvailabilityOverride, today Date) RangeValidation {
	return IndexOverrides(overrides).ValidateRange(r, today)
}

// ValidateRange is ValidateDateRange against an already indexed override snapshot
func (idx OverrideIndex) ValidateRange(r DateRange, today Date) RangeValidation {
	if r.CheckIn.Before(today) {
		return RangeValidation{Status: RangeInvalid, Reason: RangeReasonPast}
	}
	if !r.CheckIn.Before(r.CheckOut) {
		return RangeValidation{Status: RangeInvalid, Reason: RangeReasonOrder}
	}

	var conflicts []Date
	r.Each(func(d Date) {
		if !idx.IsAvailable(d) {
			conflicts = append(conflicts, d)
		}
	})
	if len(conflicts) > 0 {
		return RangeValidation{Status: RangeUnavailable, ConflictingDates: conflicts}
	}
	return RangeValidation{Status: RangeValid}
}

// Within returns the overrides of idx that fall in [start, end), sorted by date
func (idx OverrideIndex) Within(start, end Date) []AvailabilityOverride {
	window := NewDateRange(start, end)
	out := make([]AvailabilityOverride, 0, len(idx))
	for d, o := range idx {
		if window.Contains(d) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
