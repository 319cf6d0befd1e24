package domain

// GuestReason explains an invalid guest count
type GuestReason string

const (
	GuestReasonTooFew  GuestReason = "too_few"
	GuestReasonTooMany GuestReason = "too_many"
)

// GuestValidation is the result of ValidateGuestCount. Reason is empty when Valid.
type GuestValidation struct {
	Valid    bool        `json:"valid"`
	Reason   GuestReason `json:"reason,omitempty"`
	Capacity int         `json:"capacity"`
}

// Err converts the result into an error: nil or *GuestCountError
func (v GuestValidation) Err() error {
	if v.Valid {
		return nil
	}
	return &GuestCountError{Reason: v.Reason, Capacity: v.Capacity}
}

// ValidateGuestCount checks 1 <= requested <= capacity
func ValidateGuestCount(requested, capacity int) GuestValidation {
	switch {
	case requested < 1:
		return GuestValidation{Reason: GuestReasonTooFew, Capacity: capacity}
	case requested > capacity:
		return GuestValidation{Reason: GuestReasonTooMany, Capacity: capacity}
	default:
		return GuestValidation{Valid: true, Capacity: capacity}
	}
}
