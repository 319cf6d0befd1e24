package dto

import (
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/domain"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/service"
)

// NightResponse is one priced night
type NightResponse struct {
	Date       string `json:"date"`
	Price      string `json:"price"`
	Overridden bool   `json:"overridden"`
}

// QuoteResponse represents a priced stay
type QuoteResponse struct {
	PropertyID       string          `json:"property_id"`
	Title            string          `json:"title"`
	CheckIn          string          `json:"check_in"`
	CheckOut         string          `json:"check_out"`
	Nights           int             `json:"nights"`
	Guests           int             `json:"guests"`
	GuestCapacity    int             `json:"guest_capacity"`
	Currency         string          `json:"currency"`
	NightlyBreakdown []NightResponse `json:"nightly_breakdown"`
	NightlySubtotal  string          `json:"nightly_subtotal"`
	ServiceFeeRate   string          `json:"service_fee_rate"`
	ServiceFee       string          `json:"service_fee"`
	Total            string          `json:"total"`
}

// NewQuoteResponse converts a quote result
func NewQuoteResponse(q *service.QuoteResult) *QuoteResponse {
	currency := q.Pricing.Currency
	nights := make([]NightResponse, len(q.Pricing.Nights))
	for i, n := range q.Pricing.Nights {
		nights[i] = NightResponse{
			Date:       n.Date.String(),
			Price:      domain.FormatAmount(n.Price, currency),
			Overridden: n.Overridden,
		}
	}

	return &QuoteResponse{
		PropertyID:       q.Property.ID,
		Title:            q.Property.Title,
		CheckIn:          q.Range.CheckIn.String(),
		CheckOut:         q.Range.CheckOut.String(),
		Nights:           q.Pricing.NightCount(),
		Guests:           q.Guests,
		GuestCapacity:    q.Property.GuestCapacity,
		Currency:         currency,
		NightlyBreakdown: nights,
		NightlySubtotal:  domain.FormatAmount(q.Pricing.NightlySubtotal, currency),
		ServiceFeeRate:   q.Pricing.ServiceFeeRate.String(),
		ServiceFee:       domain.FormatAmount(q.Pricing.ServiceFee, currency),
		Total:            domain.FormatAmount(q.Pricing.Total, currency),
	}
}

// BookingResponse represents a booking accepted by the marketplace
type BookingResponse struct {
	BookingID       string `json:"booking_id"`
	Status          string `json:"status"`
	PropertyID      string `json:"property_id"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Guests          int    `json:"guests"`
	Currency        string `json:"currency"`
	ServiceFee      string `json:"service_fee"`
	TotalPrice      string `json:"total_price"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// NewBookingResponse converts a booking result. Amounts come from the server-side quote.
func NewBookingResponse(r *service.BookingResult) *BookingResponse {
	q := r.Quote
	currency := q.Pricing.Currency
	return &BookingResponse{
		BookingID:       r.Booking.ID,
		Status:          r.Booking.Status,
		PropertyID:      q.Property.ID,
		CheckIn:         q.Range.CheckIn.String(),
		CheckOut:        q.Range.CheckOut.String(),
		Guests:          q.Guests,
		Currency:        currency,
		ServiceFee:      domain.FormatAmount(q.Pricing.ServiceFee, currency),
		TotalPrice:      domain.FormatAmount(q.Pricing.Total, currency),
		SpecialRequests: r.Booking.SpecialRequests,
	}
}

// CalendarDayResponse is one day of the date picker
type CalendarDayResponse struct {
	Date       string `json:"date"`
	Available  bool   `json:"available"`
	Past       bool   `json:"past,omitempty"`
	Price      string `json:"price"`
	Overridden bool   `json:"overridden,omitempty"`
}

// CalendarResponse represents the date picker view of a property
type CalendarResponse struct {
	PropertyID string                `json:"property_id"`
	Currency   string                `json:"currency"`
	Days       []CalendarDayResponse `json:"days"`
}

// NewCalendarResponse converts a calendar result
func NewCalendarResponse(c *service.CalendarResult) *CalendarResponse {
	days := make([]CalendarDayResponse, len(c.Days))
	for i, d := range c.Days {
		days[i] = CalendarDayResponse{
			Date:       d.Date.String(),
			Available:  d.Available,
			Past:       d.Past,
			Price:      domain.FormatAmount(d.Price, c.Currency),
			Overridden: d.Overridden,
		}
	}
	return &CalendarResponse{PropertyID: c.PropertyID, Currency: c.Currency, Days: days}
}

// RangeErrorDetails is the error detail of INVALID_RANGE
type RangeErrorDetails struct {
	Reason string `json:"reason"`
}

// UnavailableDetails is the error detail of DATES_UNAVAILABLE
type UnavailableDetails struct {
	ConflictingDates []string `json:"conflicting_dates"`
}

// GuestErrorDetails is the error detail of INVALID_GUEST_COUNT
type GuestErrorDetails struct {
	Reason   string `json:"reason"`
	Capacity int    `json:"capacity"`
}

// NewUnavailableDetails lists the conflicting nights in order
func NewUnavailableDetails(dates []domain.Date) UnavailableDetails {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return UnavailableDetails{ConflictingDates: out}
}
