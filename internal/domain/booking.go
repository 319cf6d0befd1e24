package domain

import "github.com/shopspring/decimal"

// BookingRequest is a booking submission sent to the marketplace.
// Prices are always recomputed server-side, never taken from the client.
type BookingRequest struct {
	PropertyID      string
	Range           DateRange
	Guests          int
	Currency        string
	TotalPrice      decimal.Decimal
	ServiceFee      decimal.Decimal
	SpecialRequests string
	IdempotencyKey  string
}

// Booking is the booking record returned by the marketplace
type Booking struct {
	ID              string          `json:"id"`
	PropertyID      string          `json:"property_id"`
	CheckIn         Date            `json:"check_in"`
	CheckOut        Date            `json:"check_out"`
	GuestCount      int             `json:"guest_count"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	ServiceFee      decimal.Decimal `json:"service_fee"`
	Status          string          `json:"status"`
	SpecialRequests string          `json:"special_requests,omitempty"`
}
