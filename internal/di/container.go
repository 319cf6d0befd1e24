package di

import (
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/gateway"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/handler"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/repository"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/service"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/logger"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/middleware"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/redis"
)

// Container holds all dependencies for the quote service
type Container struct {
	// Infrastructure
	Redis       *redis.Client
	Marketplace gateway.Marketplace
	Clock       service.Clock

	// Repositories
	AvailabilityRepo *repository.CachedAvailabilityRepository

	// Services
	QuoteService service.QuoteService

	// Handlers
	HealthHandler *handler.HealthHandler
	QuoteHandler  *handler.QuoteHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	// Redis is optional. Without it the availability cache is process-local
	// and idempotency keys are not replayed.
	Redis         *redis.Client
	Marketplace   gateway.Marketplace
	Clock         service.Clock
	CacheConfig   repository.CacheConfig
	ServiceConfig *service.QuoteServiceConfig
	Logger        *logger.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		Redis:       cfg.Redis,
		Marketplace: cfg.Marketplace,
		Clock:       cfg.Clock,
	}
	if c.Clock == nil {
		c.Clock = service.NewZoneClock(nil)
	}

	var shared repository.JSONCache
	if c.Redis != nil {
		shared = c.Redis
	}

	// Initialize repositories
	c.AvailabilityRepo = repository.NewCachedAvailabilityRepository(c.Marketplace, shared, cfg.CacheConfig, cfg.Logger)

	// Initialize services
	c.QuoteService = service.NewQuoteService(
		c.Marketplace,
		c.AvailabilityRepo,
		c.Clock,
		cfg.ServiceConfig,
		cfg.Logger,
	)

	// Initialize handlers
	components := map[string]handler.HealthChecker{
		"redis":       nil,
		"marketplace": handler.HealthCheckFunc(c.Marketplace.Ping),
	}
	if c.Redis != nil {
		components["redis"] = c.Redis
	}
	c.HealthHandler = handler.NewHealthHandler(components)
	c.QuoteHandler = handler.NewQuoteHandler(c.QuoteService)

	return c
}

// IdempotencyConfig returns the booking replay configuration, backed by Redis when available
func (c *Container) IdempotencyConfig() *middleware.IdempotencyConfig {
	if c.Redis == nil {
		return middleware.DefaultIdempotencyConfig(nil)
	}
	return middleware.DefaultIdempotencyConfig(c.Redis.Client())
}

// Close releases resources held by the container
func (c *Container) Close() {
	if c.AvailabilityRepo != nil {
		c.AvailabilityRepo.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
