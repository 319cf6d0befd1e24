package di

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/domain"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/service"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/logger"
)

type stubMarketplace struct {
	property  *domain.Property
	overrides []domain.AvailabilityOverride
	pingErr   error
}

func (s *stubMarketplace) FetchProperty(ctx context.Context, propertyID string) (*domain.Property, error) {
	return s.property, nil
}

func (s *stubMarketplace) FetchAvailability(ctx context.Context, propertyID string, start, end domain.Date) ([]domain.AvailabilityOverride, error) {
	return s.overrides, nil
}

func (s *stubMarketplace) CreateBooking(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	return nil, domain.ErrBookingRejected
}

func (s *stubMarketplace) Ping(ctx context.Context) error {
	return s.pingErr
}

func newTestContainer() *Container {
	return NewContainer(&ContainerConfig{
		Marketplace: &stubMarketplace{
			property: &domain.Property{
				ID:            "prop-1",
				Title:         "Old town riad, Ghadames",
				PricePerNight: domain.MustMoney("100", "LYD"),
				GuestCapacity: 4,
				Status:        domain.ListingStatusActive,
			},
			overrides: []domain.AvailabilityOverride{{
				Date:          domain.MustParseDate("2024-06-11"),
				IsAvailable:   true,
				PriceOverride: decimal.NewNullDecimal(decimal.RequireFromString("150")),
			}},
		},
		Clock:  service.FixedClock(domain.MustParseDate("2024-06-01")),
		Logger: logger.Nop(),
	})
}

func TestNewContainer_QuoteThroughHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestContainer()
	defer c.Close()

	router := gin.New()
	router.POST("/quotes", c.QuoteHandler.Quote)

	body, err := json.Marshal(map[string]interface{}{
		"property_id": "prop-1",
		"check_in":    "2024-06-10",
		"check_out":   "2024-06-13",
		"guests":      2,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quotes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			NightlySubtotal string `json:"nightly_subtotal"`
			ServiceFee      string `json:"service_fee"`
			Total           string `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "350.00", resp.Data.NightlySubtotal)
	assert.Equal(t, "35.00", resp.Data.ServiceFee)
	assert.Equal(t, "385.00", resp.Data.Total)
	assert.Equal(t, int64(1), c.AvailabilityRepo.Stats().Fetches)
}

func TestNewContainer_WithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestContainer()
	defer c.Close()

	assert.Nil(t, c.IdempotencyConfig().Store)

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	c.HealthHandler.Ready(ctx)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"not configured"`)
	assert.Contains(t, w.Body.String(), `"marketplace":"healthy"`)
}
