package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/domain"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/gateway"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/repository"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/logger"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/telemetry"
)

// QuoteService defines the interface for quoting and booking stays
type QuoteService interface {
	// Quote validates a stay against the listing and its calendar and prices it
	Quote(ctx context.Context, in QuoteInput) (*QuoteResult, error)

	// SubmitBooking re-quotes the selection server-side and books it upstream
	SubmitBooking(ctx context.Context, in BookingInput) (*BookingResult, error)

	// Calendar returns the per-day availability and price of [start, end)
	Calendar(ctx context.Context, propertyID string, start, end domain.Date) (*CalendarResult, error)

	// InvalidateAvailability drops the cached calendar of a property
	InvalidateAvailability(ctx context.Context, propertyID string) error
}

// QuoteInput is a stay to quote
type QuoteInput struct {
	PropertyID string
	Range      domain.DateRange
	Guests     int
}

// QuoteResult is a priced, fully validated stay
type QuoteResult struct {
	Property *domain.Property
	Range    domain.DateRange
	Guests   int
	Dates    domain.RangeValidation
	Guest    domain.GuestValidation
	Pricing  domain.PricingResult
}

// BookingInput is a booking submission built from the guest's selection
type BookingInput struct {
	Selection      domain.Selection
	IdempotencyKey string
}

// BookingResult is a booking accepted by the marketplace with the quote it was priced at
type BookingResult struct {
	Booking *domain.Booking
	Quote   *QuoteResult
}

// CalendarDay is one day of the date picker
type CalendarDay struct {
	Date       domain.Date
	Available  bool
	Past       bool
	Price      decimal.Decimal
	Overridden bool
}

// CalendarResult is the date picker view of a property
type CalendarResult struct {
	PropertyID string
	Currency   string
	Days       []CalendarDay
}

// QuoteServiceConfig contains configuration for the quote service
type QuoteServiceConfig struct {
	// ServiceFeeRate defaults to 10% when nil
	ServiceFeeRate  *decimal.Decimal
	MaxStayNights   int
	MaxCalendarDays int
}

// quoteService implements QuoteService
type quoteService struct {
	marketplace  gateway.Marketplace
	availability repository.AvailabilityRepository
	clock        Clock
	feeRate      decimal.Decimal
	maxNights    int
	maxDays      int
	log          *logger.Logger
}

// NewQuoteService creates a new quote service
func NewQuoteService(
	marketplace gateway.Marketplace,
	availability repository.AvailabilityRepository,
	clock Clock,
	cfg *QuoteServiceConfig,
	log *logger.Logger,
) QuoteService {
	feeRate := domain.DefaultServiceFeeRate
	maxNights := 365
	maxDays := 366
	if cfg != nil {
		if cfg.ServiceFeeRate != nil {
			feeRate = *cfg.ServiceFeeRate
		}
		if cfg.MaxStayNights > 0 {
			maxNights = cfg.MaxStayNights
		}
		if cfg.MaxCalendarDays > 0 {
			maxDays = cfg.MaxCalendarDays
		}
	}
	if clock == nil {
		clock = NewZoneClock(nil)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &quoteService{
		marketplace:  marketplace,
		availability: availability,
		clock:        clock,
		feeRate:      feeRate,
		maxNights:    maxNights,
		maxDays:      maxDays,
		log:          log.Named("quote_service"),
	}
}

// Quote loads the listing, checks the guests and dates and prices the stay.
// Structural date problems are reported before the calendar is fetched.
func (s *quoteService) Quote(ctx context.Context, in QuoteInput) (*QuoteResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.quote.quote")
	defer span.End()

	span.SetAttributes(
		attribute.String("property_id", in.PropertyID),
		attribute.String("check_in", in.Range.CheckIn.String()),
		attribute.String("check_out", in.Range.CheckOut.String()),
		attribute.Int("guests", in.Guests),
	)

	result, err := s.quote(ctx, in)
	if err != nil {
		telemetry.SetSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("nights", result.Pricing.NightCount()),
		attribute.String("total", result.Pricing.Total.String()),
	)
	return result, nil
}

func (s *quoteService) quote(ctx context.Context, in QuoteInput) (*QuoteResult, error) {
	if in.PropertyID == "" {
		return nil, domain.ErrInvalidPropertyID
	}

	property, err := s.marketplace.FetchProperty(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if !property.IsBookable() {
		return nil, fmt.Errorf("%w: status %s", domain.ErrListingNotBookable, property.Status)
	}

	guests := domain.ValidateGuestCount(in.Guests, property.GuestCapacity)
	if err := guests.Err(); err != nil {
		return nil, err
	}

	today := s.clock.Today()
	if structural := domain.ValidateDateRange(in.Range, nil, today); structural.Status == domain.RangeInvalid {
		return nil, structural.Err()
	}
	if nights := in.Range.Nights(); nights > s.maxNights {
		return nil, fmt.Errorf("%w: %d nights, at most %d", domain.ErrStayTooLong, nights, s.maxNights)
	}

	overrides, err := s.availability.GetOverrides(ctx, property.ID, in.Range.CheckIn, in.Range.CheckOut)
	if err != nil {
		return nil, err
	}
	idx := domain.IndexOverrides(overrides)

	dates := idx.ValidateRange(in.Range, today)
	if err := dates.Err(); err != nil {
		return nil, err
	}

	pricing, err := idx.Price(in.Range, property.PricePerNight, s.feeRate)
	if err != nil {
		return nil, err
	}

	return &QuoteResult{
		Property: property,
		Range:    in.Range,
		Guests:   in.Guests,
		Dates:    dates,
		Guest:    guests,
		Pricing:  pricing,
	}, nil
}

// SubmitBooking prices the selection again and sends it to the marketplace.
// Client-side totals are never trusted.
func (s *quoteService) SubmitBooking(ctx context.Context, in BookingInput) (*BookingResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.quote.submit_booking")
	defer span.End()

	sel := in.Selection
	span.SetAttributes(attribute.String("property_id", sel.PropertyID))

	if !sel.Complete() {
		telemetry.SetSpanError(span, domain.ErrIncompleteSelection)
		return nil, domain.ErrIncompleteSelection
	}

	quote, err := s.quote(ctx, QuoteInput{PropertyID: sel.PropertyID, Range: sel.Range, Guests: sel.Guests})
	if err != nil {
		telemetry.SetSpanError(span, err)
		return nil, err
	}

	booking, err := s.marketplace.CreateBooking(ctx, domain.BookingRequest{
		PropertyID:      quote.Property.ID,
		Range:           quote.Range,
		Guests:          quote.Guests,
		Currency:        quote.Pricing.Currency,
		TotalPrice:      quote.Pricing.Total,
		ServiceFee:      quote.Pricing.ServiceFee,
		SpecialRequests: sel.SpecialRequests,
		IdempotencyKey:  in.IdempotencyKey,
	})
	if err != nil {
		telemetry.SetSpanError(span, err)
		s.log.WarnContext(ctx, "Marketplace refused booking",
			zap.String("property_id", sel.PropertyID),
			zap.String("range", sel.Range.String()),
			zap.Error(err),
		)
		return nil, err
	}

	// The booked nights are now blocked upstream
	if err := s.availability.Invalidate(ctx, quote.Property.ID); err != nil {
		s.log.WarnContext(ctx, "Failed to invalidate availability after booking",
			zap.String("property_id", quote.Property.ID),
			zap.Error(err),
		)
	}

	span.SetAttributes(attribute.String("booking_id", booking.ID))
	s.log.InfoContext(ctx, "Booking created",
		zap.String("booking_id", booking.ID),
		zap.String("property_id", quote.Property.ID),
		zap.String("range", quote.Range.String()),
		zap.String("total", domain.FormatAmount(quote.Pricing.Total, quote.Pricing.Currency)),
	)

	return &BookingResult{Booking: booking, Quote: quote}, nil
}

// Calendar returns the per-day view of [start, end). Days before today are never available.
func (s *quoteService) Calendar(ctx context.Context, propertyID string, start, end domain.Date) (*CalendarResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.quote.calendar")
	defer span.End()

	span.SetAttributes(
		attribute.String("property_id", propertyID),
		attribute.String("start_date", start.String()),
		attribute.String("end_date", end.String()),
	)

	result, err := s.calendar(ctx, propertyID, start, end)
	if err != nil {
		telemetry.SetSpanError(span, err)
		return nil, err
	}
	return result, nil
}

func (s *quoteService) calendar(ctx context.Context, propertyID string, start, end domain.Date) (*CalendarResult, error) {
	if propertyID == "" {
		return nil, domain.ErrInvalidPropertyID
	}
	if !start.Before(end) {
		return nil, &domain.RangeError{Reason: domain.RangeReasonOrder}
	}
	if days := start.DaysUntil(end); days > s.maxDays {
		return nil, fmt.Errorf("%w: %d days, at most %d", domain.ErrWindowTooLarge, days, s.maxDays)
	}

	property, err := s.marketplace.FetchProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.availability.GetOverrides(ctx, property.ID, start, end)
	if err != nil {
		return nil, err
	}
	idx := domain.IndexOverrides(overrides)

	today := s.clock.Today()
	bookable := property.IsBookable()
	days := make([]CalendarDay, 0, start.DaysUntil(end))
	domain.NewDateRange(start, end).Each(func(d domain.Date) {
		price, overridden := idx.NightlyPrice(d, property.PricePerNight.Amount)
		past := d.Before(today)
		days = append(days, CalendarDay{
			Date:       d,
			Available:  bookable && !past && idx.IsAvailable(d),
			Past:       past,
			Price:      price,
			Overridden: overridden,
		})
	})

	return &CalendarResult{
		PropertyID: property.ID,
		Currency:   property.PricePerNight.Currency,
		Days:       days,
	}, nil
}

// InvalidateAvailability drops the cached calendar of a property
func (s *quoteService) InvalidateAvailability(ctx context.Context, propertyID string) error {
	if propertyID == "" {
		return domain.ErrInvalidPropertyID
	}
	return s.availability.Invalidate(ctx, propertyID)
}
