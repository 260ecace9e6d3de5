package meteo

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
	"github.com/agroclimate/parcel-alert-service/internal/observability"
)

// countingSource is a fake upstream feed with a switchable failure mode.
type countingSource struct {
	calls  int
	err    error
	alerts []domain.WeatherAlert
}

func (s *countingSource) FetchAlerts(_ context.Context) ([]domain.WeatherAlert, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.alerts, nil
}

func testAlerts(event string) []domain.WeatherAlert {
	return []domain.WeatherAlert{
		{Properties: domain.AlertProperties{Event: event, Severity: "Severe"}},
	}
}

func newTestCache(inner domain.AlertSource, ttl time.Duration, clock clockwork.Clock) *CachedAlertSource {
	return NewCachedAlertSource(inner, ttl, clock, slog.Default(), observability.NewMetricsForTesting())
}

func TestCache_FreshReadSkipsUpstream(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &countingSource{alerts: testAlerts("Flood Warning")}
	cache := newTestCache(source, time.Hour, clock)

	first, err := cache.FetchAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, source.calls)

	// Just inside the TTL: served from cache, upstream untouched.
	clock.Advance(time.Hour - time.Second)

	second, err := cache.FetchAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
}

func TestCache_ExpiredReadTriggersRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &countingSource{alerts: testAlerts("Flood Warning")}
	cache := newTestCache(source, time.Hour, clock)

	_, err := cache.FetchAlerts(context.Background())
	require.NoError(t, err)

	clock.Advance(time.Hour + time.Second)
	source.alerts = testAlerts("Tornado Warning")

	refreshed, err := cache.FetchAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
	assert.Equal(t, "Tornado Warning", refreshed[0].Properties.Event)
}

func TestCache_StaleFallbackOnRefreshFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &countingSource{alerts: testAlerts("Flood Warning")}
	cache := newTestCache(source, time.Hour, clock)

	_, err := cache.FetchAlerts(context.Background())
	require.NoError(t, err)
	populatedAt := cache.Status().LastUpdated

	// Two hours later the upstream is down: stale data comes back, no error,
	// and the cache timestamp is untouched.
	clock.Advance(2 * time.Hour)
	source.err = errors.New("feed unavailable")

	stale, err := cache.FetchAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Flood Warning", stale[0].Properties.Event)
	assert.Equal(t, populatedAt, cache.Status().LastUpdated)
}

func TestCache_EmptyCacheFailurePropagates(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &countingSource{err: errors.New("feed unavailable")}
	cache := newTestCache(source, time.Hour, clock)

	_, err := cache.FetchAlerts(context.Background())
	require.Error(t, err)

	// Still empty: every call keeps erroring until one fetch succeeds.
	_, err = cache.FetchAlerts(context.Background())
	require.Error(t, err)
	assert.False(t, cache.Status().Exists)

	source.err = nil
	source.alerts = testAlerts("Flood Warning")

	alerts, err := cache.FetchAlerts(context.Background())
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.True(t, cache.Status().Exists)
}

func TestCache_RefreshReplacesEntry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &countingSource{alerts: testAlerts("Flood Warning")}
	cache := newTestCache(source, time.Hour, clock)

	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	source.alerts = testAlerts("Heat Advisory")

	// Refresh is unconditional even while the entry is still fresh.
	refreshed, err := cache.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Heat Advisory", refreshed[0].Properties.Event)
	assert.Equal(t, 2, source.calls)
	assert.Equal(t, time.Duration(0), cache.Status().Age)
}

func TestCache_Status(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &countingSource{alerts: testAlerts("Flood Warning")}
	cache := newTestCache(source, time.Hour, clock)

	empty := cache.Status()
	assert.False(t, empty.Exists)
	assert.False(t, empty.Valid)
	assert.Equal(t, 0, source.calls, "Status must not trigger a refresh")

	_, err := cache.FetchAlerts(context.Background())
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	fresh := cache.Status()
	assert.True(t, fresh.Exists)
	assert.True(t, fresh.Valid)
	assert.Equal(t, 30*time.Minute, fresh.Age)

	clock.Advance(31 * time.Minute)
	expired := cache.Status()
	assert.True(t, expired.Exists)
	assert.False(t, expired.Valid)
	assert.Equal(t, 1, source.calls, "Status must not trigger a refresh")
}
