package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/domain"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/dto"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/service"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/middleware"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/response"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/telemetry"
)

// QuoteHandler handles quote, calendar and booking HTTP requests
type QuoteHandler struct {
	quoteService service.QuoteService
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quoteService service.QuoteService) *QuoteHandler {
	dto.RegisterValidators()
	return &QuoteHandler{quoteService: quoteService}
}

// Quote handles POST /quotes
func (h *QuoteHandler) Quote(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.quote.quote")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	span.SetAttributes(attribute.String("property_id", req.PropertyID))

	result, err := h.quoteService.Quote(ctx, req.ToInput())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	response.Success(c, dto.NewQuoteResponse(result))
}

// Calendar handles GET /properties/:id/calendar
func (h *QuoteHandler) Calendar(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.quote.calendar")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var q dto.CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	start, end := q.Window()
	result, err := h.quoteService.Calendar(ctx, c.Param("id"), start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	response.Success(c, dto.NewCalendarResponse(result))
}

// CreateBooking handles POST /bookings
func (h *QuoteHandler) CreateBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.quote.create_booking")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	span.SetAttributes(
		attribute.String("property_id", req.PropertyID),
		attribute.String("idempotency_key", key),
	)

	result, err := h.quoteService.SubmitBooking(ctx, service.BookingInput{
		Selection:      req.ToSelection(),
		IdempotencyKey: key,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("booking_id", result.Booking.ID))
	response.Created(c, dto.NewBookingResponse(result))
}

// InvalidateAvailability handles POST /properties/:id/availability/invalidate
func (h *QuoteHandler) InvalidateAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.quote.invalidate")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	propertyID := c.Param("id")
	if err := h.quoteService.InvalidateAvailability(ctx, propertyID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	response.Success(c, gin.H{"property_id": propertyID, "invalidated": true})
}

// handleError maps domain errors to HTTP responses
func (h *QuoteHandler) handleError(c *gin.Context, err error) {
	var (
		rangeErr       *domain.RangeError
		unavailableErr *domain.UnavailableError
		guestErr       *domain.GuestCountError
	)

	switch {
	case errors.As(err, &rangeErr):
		response.Error(c, http.StatusBadRequest, "INVALID_RANGE", err.Error(),
			dto.RangeErrorDetails{Reason: string(rangeErr.Reason)})
	case errors.As(err, &unavailableErr):
		response.Conflict(c, "DATES_UNAVAILABLE", "Some nights of the stay are not available",
			dto.NewUnavailableDetails(unavailableErr.Dates))
	case errors.As(err, &guestErr):
		response.Error(c, http.StatusBadRequest, "INVALID_GUEST_COUNT", err.Error(),
			dto.GuestErrorDetails{Reason: string(guestErr.Reason), Capacity: guestErr.Capacity})
	case errors.Is(err, domain.ErrStayTooLong):
		response.Error(c, http.StatusBadRequest, "STAY_TOO_LONG", err.Error(), nil)
	case errors.Is(err, domain.ErrWindowTooLarge):
		response.Error(c, http.StatusBadRequest, "WINDOW_TOO_LARGE", err.Error(), nil)
	case errors.Is(err, domain.ErrIncompleteSelection):
		response.Error(c, http.StatusBadRequest, "INCOMPLETE_SELECTION", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidPropertyID):
		response.Error(c, http.StatusBadRequest, "INVALID_PROPERTY_ID", err.Error(), nil)
	case errors.Is(err, domain.ErrPropertyNotFound):
		response.NotFound(c, "Property not found")
	case errors.Is(err, domain.ErrListingNotBookable):
		response.Conflict(c, "LISTING_NOT_BOOKABLE", err.Error(), nil)
	case errors.Is(err, domain.ErrBookingRejected):
		response.Error(c, http.StatusUnprocessableEntity, "BOOKING_REJECTED", err.Error(), nil)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		_ = c.Error(err)
		response.BadGateway(c, "Marketplace is unavailable, please retry")
	default:
		response.InternalError(c, err)
	}
}
