package meteo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
	"github.com/agroclimate/parcel-alert-service/internal/observability"
)

// CachedAlertSource wraps an AlertSource with a TTL cache and a serve-stale
// policy: when a refresh fails and a previous entry exists, the stale entry is
// returned instead of the error. Availability is favored over freshness; only
// a failure with nothing cached propagates.
//
// Two callers racing past an expired TTL may both trigger an upstream fetch.
// Both refreshes converge on the same final state, so the duplicate call is
// accepted rather than guarded with a single-flight.
type CachedAlertSource struct {
	inner   domain.AlertSource
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	entry *cacheEntry
}

type cacheEntry struct {
	alerts    []domain.WeatherAlert
	fetchedAt time.Time
}

// NewCachedAlertSource creates the cache decorator around an alert source.
func NewCachedAlertSource(inner domain.AlertSource, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *CachedAlertSource {
	return &CachedAlertSource{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// FetchAlerts returns the cached collection while it is fresh, refreshing
// otherwise. On refresh failure a stale entry is served unchanged; with no
// entry at all the failure propagates.
func (c *CachedAlertSource) FetchAlerts(ctx context.Context) ([]domain.WeatherAlert, error) {
	if alerts, ok := c.fresh(); ok {
		return alerts, nil
	}

	alerts, err := c.Refresh(ctx)
	if err == nil {
		return alerts, nil
	}

	if stale, ok := c.snapshot(); ok {
		c.logger.Warn("alert feed refresh failed, serving stale cache",
			"error", err,
			"cache_age", c.Status().Age.String(),
		)
		c.metrics.CacheStaleServes.Inc()
		return stale, nil
	}

	return nil, err
}

// Refresh unconditionally fetches from the upstream source. On success the
// cache entry is replaced; on failure the existing entry is left untouched
// and the error propagates.
func (c *CachedAlertSource) Refresh(ctx context.Context) ([]domain.WeatherAlert, error) {
	alerts, err := c.inner.FetchAlerts(ctx)
	if err != nil {
		c.metrics.CacheRefreshes.WithLabelValues("error").Inc()
		return nil, err
	}

	c.mu.Lock()
	c.entry = &cacheEntry{alerts: alerts, fetchedAt: c.clock.Now()}
	c.mu.Unlock()

	c.metrics.CacheRefreshes.WithLabelValues("success").Inc()
	return alerts, nil
}

// Status reports the cache state without mutating it or triggering a refresh.
func (c *CachedAlertSource) Status() domain.CacheStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil {
		return domain.CacheStatus{}
	}

	age := c.clock.Since(c.entry.fetchedAt)
	return domain.CacheStatus{
		Exists:      true,
		Age:         age,
		Valid:       age <= c.ttl,
		LastUpdated: c.entry.fetchedAt,
	}
}

func (c *CachedAlertSource) fresh() ([]domain.WeatherAlert, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil || c.clock.Since(c.entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return c.entry.alerts, true
}

func (c *CachedAlertSource) snapshot() ([]domain.WeatherAlert, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil {
		return nil, false
	}
	return c.entry.alerts, true
}
