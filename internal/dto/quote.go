// Package dto holds the request and response bodies of the quote API.
// Amounts are rendered as fixed-precision strings in the currency's minor unit.
package dto

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/domain"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/service"
)

// QuoteRequest represents a request to price a stay
type QuoteRequest struct {
	PropertyID string `json:"property_id" binding:"required,max=64"`
	CheckIn    string `json:"check_in" binding:"required,caldate"`
	CheckOut   string `json:"check_out" binding:"required,caldate"`
	Guests     int    `json:"guests"`
}

// ToInput converts the request into a service input. Dates were checked by binding.
func (r *QuoteRequest) ToInput() service.QuoteInput {
	return service.QuoteInput{
		PropertyID: r.PropertyID,
		Range:      domain.NewDateRange(domain.MustParseDate(r.CheckIn), domain.MustParseDate(r.CheckOut)),
		Guests:     r.Guests,
	}
}

// CreateBookingRequest represents a booking submission. Prices are recomputed server-side.
type CreateBookingRequest struct {
	PropertyID      string `json:"property_id" binding:"required,max=64"`
	CheckIn         string `json:"check_in" binding:"required,caldate"`
	CheckOut        string `json:"check_out" binding:"required,caldate"`
	Guests          int    `json:"guests"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// ToSelection replays the request through the selection reducer
func (r *CreateBookingRequest) ToSelection() domain.Selection {
	return domain.Reduce(domain.Selection{},
		domain.SelectProperty{PropertyID: r.PropertyID},
		domain.SelectDates{Range: domain.NewDateRange(domain.MustParseDate(r.CheckIn), domain.MustParseDate(r.CheckOut))},
		domain.SetGuests{Guests: r.Guests},
		domain.SetSpecialRequests{Text: r.SpecialRequests},
	)
}

// CalendarQuery represents the query string of the calendar endpoint
type CalendarQuery struct {
	StartDate string `form:"start_date" binding:"required,caldate"`
	EndDate   string `form:"end_date" binding:"required,caldate"`
}

// Window returns the parsed [start, end) window
func (q *CalendarQuery) Window() (domain.Date, domain.Date) {
	return domain.MustParseDate(q.StartDate), domain.MustParseDate(q.EndDate)
}

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request DTOs
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("caldate", validateCalendarDate)
		}
	})
}

// validateCalendarDate accepts YYYY-MM-DD strings naming a real date
func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := domain.ParseDate(fl.Field().String())
	return err == nil
}
