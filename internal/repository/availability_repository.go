package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/karlseguin/ccache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/domain"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/gateway"
	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/logger"
	pkgredis "github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/pkg/redis"
)

const keyPrefix = "availability:"

// AvailabilityRepository provides the availability overrides of a property
type AvailabilityRepository interface {
	// GetOverrides returns the overrides dated in [start, end), in feed order
	GetOverrides(ctx context.Context, propertyID string, start, end domain.Date) ([]domain.AvailabilityOverride, error)
	// Refresh reloads [start, end) from the marketplace and rewrites both cache tiers
	Refresh(ctx context.Context, propertyID string, start, end domain.Date) error
	// Invalidate drops every cached month of a property
	Invalidate(ctx context.Context, propertyID string) error
}

// JSONCache is the shared second-level cache. *redis.Client satisfies it.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// CacheConfig configures the cache tiers
type CacheConfig struct {
	LocalTTL     time.Duration
	LocalMaxSize int64
	RedisTTL     time.Duration
	// FetchTimeout bounds a shared marketplace fetch, which outlives the request that started it
	FetchTimeout time.Duration
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		LocalTTL:     30 * time.Second,
		LocalMaxSize: 10000,
		RedisTTL:     5 * time.Minute,
		FetchTimeout: 30 * time.Second,
	}
}

// CacheStats counts lookups per tier
type CacheStats struct {
	LocalHits  int64
	RedisHits  int64
	Fetches    int64
	FetchFails int64
}

// monthBucket holds the overrides of one calendar month of one property
type monthBucket struct {
	Overrides []domain.AvailabilityOverride `json:"overrides"`
	FetchedAt time.Time                     `json:"fetched_at"`
}

// CachedAvailabilityRepository reads overrides through a local ccache, an optional
// Redis tier and finally the marketplace. Overrides are cached per property per month.
type CachedAvailabilityRepository struct {
	source gateway.Marketplace
	local  *ccache.Cache[*monthBucket]
	shared JSONCache
	cfg    CacheConfig
	group  singleflight.Group
	log    *logger.Logger

	// generations maps a property ID to an *atomic.Uint64 bumped by Invalidate
	generations sync.Map

	localHits  atomic.Int64
	redisHits  atomic.Int64
	fetches    atomic.Int64
	fetchFails atomic.Int64
}

// NewCachedAvailabilityRepository creates a new repository. shared may be nil.
func NewCachedAvailabilityRepository(source gateway.Marketplace, shared JSONCache, cfg CacheConfig, log *logger.Logger) *CachedAvailabilityRepository {
	defaults := DefaultCacheConfig()
	if cfg.LocalTTL <= 0 {
		cfg.LocalTTL = defaults.LocalTTL
	}
	if cfg.LocalMaxSize <= 0 {
		cfg.LocalMaxSize = defaults.LocalMaxSize
	}
	if cfg.RedisTTL <= 0 {
		cfg.RedisTTL = defaults.RedisTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	return &CachedAvailabilityRepository{
		source: source,
		local:  ccache.New(ccache.Configure[*monthBucket]().MaxSize(cfg.LocalMaxSize)),
		shared: shared,
		cfg:    cfg,
		log:    log.Named("availability_repository"),
	}
}

// GetOverrides returns the overrides dated in [start, end)
func (r *CachedAvailabilityRepository) GetOverrides(ctx context.Context, propertyID string, start, end domain.Date) ([]domain.AvailabilityOverride, error) {
	if propertyID == "" {
		return nil, domain.ErrInvalidPropertyID
	}
	if !start.Before(end) {
		return []domain.AvailabilityOverride{}, nil
	}

	window := domain.NewDateRange(start, end)
	out := make([]domain.AvailabilityOverride, 0)
	for _, month := range monthsOf(start, end) {
		bucket, err := r.month(ctx, propertyID, month)
		if err != nil {
			return nil, err
		}
		for _, o := range bucket.Overrides {
			if window.Contains(o.Date) {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

// Refresh reloads [start, end) from the marketplace and rewrites both cache tiers
func (r *CachedAvailabilityRepository) Refresh(ctx context.Context, propertyID string, start, end domain.Date) error {
	if propertyID == "" {
		return domain.ErrInvalidPropertyID
	}
	for _, month := range monthsOf(start, end) {
		if _, err := r.load(ctx, propertyID, month); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate drops every cached month of a property from both tiers
func (r *CachedAvailabilityRepository) Invalidate(ctx context.Context, propertyID string) error {
	if propertyID == "" {
		return domain.ErrInvalidPropertyID
	}
	// Loads still in flight see the new generation and discard their snapshot
	r.generation(propertyID).Add(1)

	prefix := keyPrefix + propertyID + ":"
	dropped := r.local.DeletePrefix(prefix)

	if r.shared != nil {
		n, err := r.shared.DeletePrefix(ctx, prefix)
		if err != nil {
			return fmt.Errorf("failed to invalidate shared cache for %s: %w", propertyID, err)
		}
		dropped += n
	}

	r.log.InfoContext(ctx, "Invalidated availability cache",
		zap.String("property_id", propertyID),
		zap.Int("entries", dropped),
	)
	return nil
}

// Stats returns the lookup counters
func (r *CachedAvailabilityRepository) Stats() CacheStats {
	return CacheStats{
		LocalHits:  r.localHits.Load(),
		RedisHits:  r.redisHits.Load(),
		Fetches:    r.fetches.Load(),
		FetchFails: r.fetchFails.Load(),
	}
}

// Close stops the local cache's background worker
func (r *CachedAvailabilityRepository) Close() {
	r.local.Stop()
}

func (r *CachedAvailabilityRepository) month(ctx context.Context, propertyID string, month domain.Date) (*monthBucket, error) {
	key := cacheKey(propertyID, month)

	if item := r.local.Get(key); item != nil && !item.Expired() {
		r.localHits.Add(1)
		return item.Value(), nil
	}

	if r.shared != nil {
		var bucket monthBucket
		err := r.shared.GetJSON(ctx, key, &bucket)
		switch {
		case err == nil:
			r.redisHits.Add(1)
			r.local.Set(key, &bucket, r.cfg.LocalTTL)
			return &bucket, nil
		case !errors.Is(err, pkgredis.ErrCacheMiss):
			// Redis trouble degrades to a marketplace read
			r.log.WarnContext(ctx, "Shared cache read failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return r.load(ctx, propertyID, month)
}

// load fetches one month from the marketplace. Concurrent loads of the same
// month share a single upstream call that does not depend on any one caller's
// context. A load that overlaps an Invalidate returns its result but never caches it.
func (r *CachedAvailabilityRepository) load(ctx context.Context, propertyID string, month domain.Date) (*monthBucket, error) {
	key := cacheKey(propertyID, month)
	gen := r.generation(propertyID)
	startGen := gen.Load()

	ch := r.group.DoChan(fmt.Sprintf("%s#%d", key, startGen), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.FetchTimeout)
		defer cancel()

		r.fetches.Add(1)
		next := nextMonth(month)
		overrides, err := r.source.FetchAvailability(fetchCtx, propertyID, month, next)
		if err != nil {
			r.fetchFails.Add(1)
			return nil, err
		}

		bucketRange := domain.NewDateRange(month, next)
		kept := make([]domain.AvailabilityOverride, 0, len(overrides))
		for _, o := range overrides {
			if bucketRange.Contains(o.Date) {
				kept = append(kept, o)
			}
		}
		bucket := &monthBucket{Overrides: kept, FetchedAt: time.Now().UTC()}

		if gen.Load() != startGen {
			r.log.Debug("Discarded availability loaded across an invalidation", zap.String("key", key))
			return bucket, nil
		}
		r.store(fetchCtx, key, bucket)
		// Invalidate may have run between the check and the writes
		if gen.Load() != startGen {
			r.drop(fetchCtx, key)
		}
		return bucket, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*monthBucket), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *CachedAvailabilityRepository) store(ctx context.Context, key string, bucket *monthBucket) {
	r.local.Set(key, bucket, r.cfg.LocalTTL)
	if r.shared == nil {
		return
	}
	if err := r.shared.SetJSON(ctx, key, bucket, r.cfg.RedisTTL); err != nil {
		r.log.WarnContext(ctx, "Shared cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (r *CachedAvailabilityRepository) drop(ctx context.Context, key string) {
	r.local.Delete(key)
	if r.shared == nil {
		return
	}
	// key has no suffix, so as a prefix it matches only itself
	if _, err := r.shared.DeletePrefix(ctx, key); err != nil {
		r.log.WarnContext(ctx, "Shared cache delete failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (r *CachedAvailabilityRepository) generation(propertyID string) *atomic.Uint64 {
	if g, ok := r.generations.Load(propertyID); ok {
		return g.(*atomic.Uint64)
	}
	g, _ := r.generations.LoadOrStore(propertyID, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

// cacheKey returns availability:{property}:{YYYY-MM}
func cacheKey(propertyID string, month domain.Date) string {
	return fmt.Sprintf("%s%s:%04d-%02d", keyPrefix, propertyID, month.Year(), int(month.Month()))
}

func nextMonth(month domain.Date) domain.Date {
	return domain.NewDate(month.Year(), month.Month()+1, 1)
}

// monthsOf lists the first day of every month that intersects [start, end)
func monthsOf(start, end domain.Date) []domain.Date {
	if !start.Before(end) {
		return nil
	}
	last := end.AddDays(-1).FirstOfMonth()
	var months []domain.Date
	for m := start.FirstOfMonth(); !m.After(last); m = nextMonth(m) {
		months = append(months, m)
	}
	return months
}
