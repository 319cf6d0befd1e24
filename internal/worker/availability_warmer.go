package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/domain"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/service"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/logger"
)

// Refresher reloads the cached calendar of a property
type Refresher interface {
	Refresh(ctx context.Context, propertyID string, start, end domain.Date) error
}

// AvailabilityWarmerConfig contains configuration for the availability warmer
type AvailabilityWarmerConfig struct {
	// Interval is the time between refresh rounds
	Interval time.Duration
	// PropertyIDs are the listings kept warm
	PropertyIDs []string
	// HorizonDays is how far ahead of today each listing is refreshed
	HorizonDays int
	// Concurrency bounds parallel refreshes within a round
	Concurrency int
}

// DefaultAvailabilityWarmerConfig returns default configuration
func DefaultAvailabilityWarmerConfig() *AvailabilityWarmerConfig {
	return &AvailabilityWarmerConfig{
		Interval:    time.Minute,
		HorizonDays: 90,
		Concurrency: 4,
	}
}

// AvailabilityWarmer periodically refreshes the availability cache of busy listings
// so quotes for them are served without a marketplace round trip
type AvailabilityWarmer struct {
	refresher Refresher
	clock     service.Clock
	config    *AvailabilityWarmerConfig
	log       *logger.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool

	// Stats
	totalRounds     int64
	totalRefreshed  int64
	totalFailed     int64
	lastRunTime     time.Time
	lastRunDuration time.Duration
	lastFailures    int
}

// AvailabilityWarmerStats contains warmer statistics
type AvailabilityWarmerStats struct {
	IsRunning       bool          `json:"is_running"`
	TotalRounds     int64         `json:"total_rounds"`
	TotalRefreshed  int64         `json:"total_refreshed"`
	TotalFailed     int64         `json:"total_failed"`
	LastRunTime     time.Time     `json:"last_run_time"`
	LastRunDuration time.Duration `json:"last_run_duration"`
	LastFailures    int           `json:"last_failures"`
}

// NewAvailabilityWarmer creates a new availability warmer
func NewAvailabilityWarmer(refresher Refresher, clock service.Clock, config *AvailabilityWarmerConfig, log *logger.Logger) *AvailabilityWarmer {
	defaults := DefaultAvailabilityWarmerConfig()
	if config == nil {
		config = defaults
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = defaults.HorizonDays
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if clock == nil {
		clock = service.NewZoneClock(nil)
	}
	if log == nil {
		log = logger.Get()
	}

	return &AvailabilityWarmer{
		refresher: refresher,
		clock:     clock,
		config:    config,
		log:       log.Named("availability_warmer"),
		stopCh:    make(chan struct{}),
	}
}

// Start starts the warmer
func (w *AvailabilityWarmer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("availability warmer already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting availability warmer",
		zap.Int("properties", len(w.config.PropertyIDs)),
		zap.Duration("interval", w.config.Interval),
		zap.Int("horizon_days", w.config.HorizonDays),
	)

	w.wg.Add(1)
	go w.loop(ctx)

	return nil
}

// Stop stops the warmer and waits for the current round to finish
func (w *AvailabilityWarmer) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping availability warmer")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Availability warmer stopped")
}

func (w *AvailabilityWarmer) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes every configured property over [today, today+HorizonDays)
// and returns the number of failed refreshes
func (w *AvailabilityWarmer) RunOnce(ctx context.Context) int {
	started := time.Now()
	today := w.clock.Today()
	end := today.AddDays(w.config.HorizonDays)

	var (
		mu        sync.Mutex
		refreshed int64
		failed    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Concurrency)
	for _, id := range w.config.PropertyIDs {
		g.Go(func() error {
			err := w.refresher.Refresh(gctx, id, today, end)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				w.log.WarnContext(gctx, "Failed to refresh availability",
					zap.String("property_id", id),
					zap.Error(err),
				)
				return nil
			}
			refreshed++
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(started)

	w.mu.Lock()
	w.totalRounds++
	w.totalRefreshed += refreshed
	w.totalFailed += int64(failed)
	w.lastRunTime = started
	w.lastRunDuration = elapsed
	w.lastFailures = failed
	w.mu.Unlock()

	if len(w.config.PropertyIDs) > 0 {
		w.log.Debug("Availability refresh round finished",
			zap.Int64("refreshed", refreshed),
			zap.Int("failed", failed),
			zap.Duration("duration", elapsed),
		)
	}
	return failed
}

// GetStats returns warmer statistics
func (w *AvailabilityWarmer) GetStats() *AvailabilityWarmerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &AvailabilityWarmerStats{
		IsRunning:       w.running,
		TotalRounds:     w.totalRounds,
		TotalRefreshed:  w.totalRefreshed,
		TotalFailed:     w.totalFailed,
		LastRunTime:     w.lastRunTime,
		LastRunDuration: w.lastRunDuration,
		LastFailures:    w.lastFailures,
	}
}
