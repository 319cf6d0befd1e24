package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/gateway"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/repository"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/service"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/config"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/logger"
	pkgredis "github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/redis"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/retry"
)

// Build connects the infrastructure described by cfg and assembles the container.
// A Redis outage at startup degrades to the process-local cache instead of failing.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("load time zone: %w", err)
	}

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisCfg := &pkgredis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			MaxRetries:    3,
			RetryInterval: 500 * time.Millisecond,
		}
		client, err := pkgredis.NewClient(ctx, redisCfg)
		if err != nil {
			log.Warn("Redis connection failed, using local cache only", zap.Error(err))
		} else {
			redisClient = client
			log.Info("Redis connected",
				zap.String("addr", redisCfg.Addr()),
				zap.Int("pool_size", redisCfg.PoolSize),
			)
		}
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.Marketplace.MaxRetries

	marketplace := gateway.NewHTTPMarketplace(gateway.Config{
		BaseURL:         cfg.Marketplace.BaseURL,
		Timeout:         cfg.Marketplace.Timeout,
		Retry:           retryCfg,
		DefaultCurrency: cfg.Pricing.Currency,
		Location:        loc,
	}, log)

	feeRate := cfg.Pricing.ServiceFeeRate

	return NewContainer(&ContainerConfig{
		Redis:       redisClient,
		Marketplace: marketplace,
		Clock:       service.NewZoneClock(loc),
		CacheConfig: repository.CacheConfig{
			LocalTTL:     cfg.Cache.LocalTTL,
			LocalMaxSize: cfg.Cache.LocalMaxSize,
			RedisTTL:     cfg.Cache.RedisTTL,
			FetchTimeout: cfg.Cache.FetchTimeout,
		},
		ServiceConfig: &service.QuoteServiceConfig{
			ServiceFeeRate: &feeRate,
			MaxStayNights:  cfg.Pricing.MaxStayNights,
		},
		Logger: log,
	}), nil
}
