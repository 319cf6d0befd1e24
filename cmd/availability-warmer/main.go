package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/di"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/worker"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/config"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/logger"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := "info"
	if cfg.App.Debug {
		level = "debug"
	}
	if err := logger.Init(&logger.Config{
		Level:       level,
		ServiceName: "availability-warmer",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    "availability-warmer",
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn("Tracing disabled", zap.Error(err))
	}

	container, err := di.Build(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to build container", zap.Error(err))
	}
	defer container.Close()

	if container.Redis == nil {
		appLog.Warn("Redis unavailable, warmed months stay in this process only")
	}
	if len(cfg.Warmer.PropertyIDs) == 0 {
		appLog.Warn("No properties configured, set WARMER_PROPERTY_IDS")
	}

	warmer := worker.NewAvailabilityWarmer(container.AvailabilityRepo, container.Clock, &worker.AvailabilityWarmerConfig{
		Interval:    cfg.Warmer.Interval,
		PropertyIDs: cfg.Warmer.PropertyIDs,
		HorizonDays: cfg.Warmer.HorizonDays,
	}, appLog)
	if err := warmer.Start(ctx); err != nil {
		appLog.Fatal("Failed to start warmer", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	warmer.Stop()
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("Failed to flush traces", zap.Error(err))
	}

	stats := warmer.GetStats()
	appLog.Info("Availability warmer exited",
		zap.Int64("rounds", stats.TotalRounds),
		zap.Int64("refreshed", stats.TotalRefreshed),
		zap.Int64("failed", stats.TotalFailed),
	)
}
