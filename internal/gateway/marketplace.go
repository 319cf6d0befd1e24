package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/domain"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/logger"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/retry"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/telemetry"
)

const (
	idempotencyKeyHeader = "X-Idempotency-Key"
	maxErrorBody         = 4 << 10
)

// Marketplace is the upstream REST API that owns listings, calendars and bookings
type Marketplace interface {
	FetchProperty(ctx context.Context, propertyID string) (*domain.Property, error)
	FetchAvailability(ctx context.Context, propertyID string, start, end domain.Date) ([]domain.AvailabilityOverride, error)
	CreateBooking(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error)
	Ping(ctx context.Context) error
}

// Config configures the marketplace client
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	Retry           *retry.Config
	DefaultCurrency string
	// Location is the marketplace zone used to read timestamped calendar dates. Nil means UTC.
	Location        *time.Location
	HTTPClient      *http.Client
}

// HTTPMarketplace calls the marketplace API over HTTP
type HTTPMarketplace struct {
	baseURL    string
	currency   string
	location   *time.Location
	httpClient *http.Client
	retrier    *retry.Retrier
	log        *logger.Logger
}

// NewHTTPMarketplace creates a new marketplace client
func NewHTTPMarketplace(cfg Config, log *logger.Logger) *HTTPMarketplace {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = logger.Nop()
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	currency := cfg.DefaultCurrency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	return &HTTPMarketplace{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		currency:   strings.ToUpper(currency),
		location:   location,
		httpClient: client,
		retrier:    retry.New(cfg.Retry),
		log:        log.Named("marketplace"),
	}
}

type propertyPayload struct {
	ID            flexibleID      `json:"id"`
	Title         string          `json:"title"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Currency      string          `json:"currency"`
	GuestCapacity int             `json:"guest_capacity"`
	Status        string          `json:"status"`
}

// FetchProperty loads the listing fields needed to quote a stay
func (m *HTTPMarketplace) FetchProperty(ctx context.Context, propertyID string) (*domain.Property, error) {
	ctx, span := m.startSpan(ctx, "marketplace.FetchProperty", attribute.String("property.id", propertyID))
	defer span.End()

	var payload propertyPayload
	err := m.do(ctx, http.MethodGet, "/properties/"+url.PathEscape(propertyID), nil, nil, &payload)
	if err != nil {
		telemetry.SetSpanError(span, err)
		return nil, fmt.Errorf("fetch property %s: %w", propertyID, err)
	}

	currency := strings.ToUpper(payload.Currency)
	if currency == "" {
		currency = m.currency
	}
	id := string(payload.ID)
	if id == "" {
		id = propertyID
	}

	return &domain.Property{
		ID:            id,
		Title:         payload.Title,
		PricePerNight: domain.Money{Amount: payload.PricePerNight, Currency: currency},
		GuestCapacity: payload.GuestCapacity,
		Status:        domain.ListingStatus(strings.ToLower(payload.Status)),
	}, nil
}

// FetchAvailability loads the sparse overrides of a property for [start, end)
func (m *HTTPMarketplace) FetchAvailability(ctx context.Context, propertyID string, start, end domain.Date) ([]domain.AvailabilityOverride, error) {
	ctx, span := m.startSpan(ctx, "marketplace.FetchAvailability",
		attribute.String("property.id", propertyID),
		attribute.String("start_date", start.String()),
		attribute.String("end_date", end.String()),
	)
	defer span.End()

	query := url.Values{}
	query.Set("start_date", start.String())
	query.Set("end_date", end.String())

	var payload []overridePayload
	path := "/properties/" + url.PathEscape(propertyID) + "/availability?" + query.Encode()
	if err := m.do(ctx, http.MethodGet, path, nil, nil, &payload); err != nil {
		telemetry.SetSpanError(span, err)
		return nil, fmt.Errorf("fetch availability %s: %w", propertyID, err)
	}

	overrides := make([]domain.AvailabilityOverride, 0, len(payload))
	for _, p := range payload {
		date, err := domain.ParseTimestampDate(p.Date, m.location)
		if err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
			telemetry.SetSpanError(span, err)
			return nil, fmt.Errorf("fetch availability %s: %w", propertyID, err)
		}
		overrides = append(overrides, domain.AvailabilityOverride{
			Date:          date,
			IsAvailable:   p.IsAvailable,
			PriceOverride: p.PriceOverride,
		})
	}

	span.SetAttributes(attribute.Int("overrides.count", len(overrides)))
	return overrides, nil
}

type overridePayload struct {
	Date          string              `json:"date"`
	IsAvailable   bool                `json:"is_available"`
	PriceOverride decimal.NullDecimal `json:"price_override"`
}

type bookingPayload struct {
	PropertyID      string      `json:"property_id"`
	CheckIn         domain.Date `json:"check_in"`
	CheckOut        domain.Date `json:"check_out"`
	GuestCount      int         `json:"guest_count"`
	TotalPrice      json.Number `json:"total_price"`
	ServiceFee      json.Number `json:"service_fee"`
	SpecialRequests string      `json:"special_requests"`
}

type bookingRecord struct {
	domain.Booking
	ID flexibleID `json:"id"`
}

// CreateBooking submits a booking. The idempotency key makes retries safe.
func (m *HTTPMarketplace) CreateBooking(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	ctx, span := m.startSpan(ctx, "marketplace.CreateBooking",
		attribute.String("property.id", req.PropertyID),
		attribute.Int("booking.nights", req.Range.Nights()),
	)
	defer span.End()

	places := domain.MinorUnits(req.Currency)
	body, err := json.Marshal(bookingPayload{
		PropertyID:      req.PropertyID,
		CheckIn:         req.Range.CheckIn,
		CheckOut:        req.Range.CheckOut,
		GuestCount:      req.Guests,
		TotalPrice:      json.Number(req.TotalPrice.StringFixed(places)),
		ServiceFee:      json.Number(req.ServiceFee.StringFixed(places)),
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return nil, fmt.Errorf("encode booking: %w", err)
	}

	headers := http.Header{}
	if req.IdempotencyKey != "" {
		headers.Set(idempotencyKeyHeader, req.IdempotencyKey)
	}

	var record bookingRecord
	if err := m.do(ctx, http.MethodPost, "/bookings", headers, body, &record); err != nil {
		telemetry.SetSpanError(span, err)
		return nil, fmt.Errorf("create booking for %s: %w", req.PropertyID, err)
	}

	booking := record.Booking
	booking.ID = string(record.ID)
	span.SetAttributes(attribute.String("booking.id", booking.ID))
	return &booking, nil
}

// Ping checks that the marketplace answers at all. Any HTTP response counts.
func (m *HTTPMarketplace) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
	return nil
}

func (m *HTTPMarketplace) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return telemetry.StartSpan(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

// do runs one API call with retries and decodes the response into dst
func (m *HTTPMarketplace) do(ctx context.Context, method, path string, headers http.Header, body []byte, dst interface{}) error {
	result := m.retrier.DoWithCallback(ctx, func(ctx context.Context) error {
		return m.attempt(ctx, method, path, headers, body, dst)
	}, func(attempt int, err error, next time.Duration) {
		m.log.WarnContext(ctx, "Retrying marketplace call",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	})
	return result.Err
}

func (m *HTTPMarketplace) attempt(ctx context.Context, method, path string, headers http.Header, body []byte, dst interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	telemetry.InjectHTTP(ctx, req.Header)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}
	if err := decodeEnvelope(data, dst); err != nil {
		return retry.Permanent(fmt.Errorf("%w: failed to decode response: %v", domain.ErrUpstreamUnavailable, err))
	}
	return nil
}

// classifyStatus maps upstream status codes to domain errors.
// 5xx and 429 are retried; other failures are permanent.
func classifyStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return retry.Permanent(domain.ErrPropertyNotFound)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity || code == http.StatusConflict:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return retry.Permanent(&RejectedError{Status: code, Message: errorMessage(body)})
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, code)
	default:
		return retry.Permanent(fmt.Errorf("%w: unexpected status %d", domain.ErrUpstreamUnavailable, code))
	}
}

// RejectedError is a booking or query refused by the marketplace's own validation
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", domain.ErrBookingRejected, e.Status)
	}
	return fmt.Sprintf("%s (status %d): %s", domain.ErrBookingRejected, e.Status, e.Message)
}

func (e *RejectedError) Unwrap() error {
	return domain.ErrBookingRejected
}

// decodeEnvelope accepts both `{"success": true, "data": ...}` and a bare payload
func decodeEnvelope(data []byte, dst interface{}) error {
	var envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Success != nil {
			if !*envelope.Success {
				return errors.New("api returned unsuccessful response")
			}
			trimmed = envelope.Data
		}
	}
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	return json.Unmarshal(trimmed, dst)
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Message != "" {
		return payload.Message
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	var plain string
	if err := json.Unmarshal(payload.Error, &plain); err == nil {
		return plain
	}
	return ""
}

// flexibleID accepts string and numeric identifiers
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", b)
	}
	*f = flexibleID(n.String())
	return nil
}
