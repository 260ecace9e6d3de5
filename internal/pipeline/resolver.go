package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
	"github.com/agroclimate/parcel-alert-service/internal/observability"
)

// Resolver turns one alert plus the full parcel set into the deduplicated
// set of affected user IDs. Every per-parcel problem — missing or malformed
// polygon, orphaned parcel, failed owner lookup — is absorbed and logged so
// one bad record never degrades the rest of the scan.
type Resolver struct {
	users   domain.UserStore
	logger  *slog.Logger
	metrics *observability.Metrics
	workers int
}

// NewResolver creates a resolver that fans the parcel scan out across the
// given number of goroutines.
func NewResolver(users domain.UserStore, logger *slog.Logger, metrics *observability.Metrics, workers int) *Resolver {
	if workers < 1 {
		workers = 1
	}
	return &Resolver{
		users:   users,
		logger:  logger,
		metrics: metrics,
		workers: workers,
	}
}

// AffectedUsers scans every parcel against the alert's polygon and resolves
// intersecting parcels to their owners. The returned set contains each user
// at most once, regardless of how many of their parcels the alert covers.
func (r *Resolver) AffectedUsers(ctx context.Context, alert domain.WeatherAlert, parcels []domain.Parcel) map[string]struct{} {
	affected := make(map[string]struct{})

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan domain.Parcel)
	)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for parcel := range jobs {
				userID, ok := r.checkParcel(ctx, alert, parcel)
				if !ok {
					continue
				}
				mu.Lock()
				affected[userID] = struct{}{}
				mu.Unlock()
			}
		}()
	}

	for _, parcel := range parcels {
		jobs <- parcel
	}
	close(jobs)
	wg.Wait()

	r.metrics.UsersAffected.Add(float64(len(affected)))
	return affected
}

// checkParcel runs the geometry test for one (alert, parcel) pair and, on a
// hit, resolves the owning user. Returns ok=false for non-matches and for
// every absorbed per-parcel condition.
func (r *Resolver) checkParcel(ctx context.Context, alert domain.WeatherAlert, parcel domain.Parcel) (string, bool) {
	r.metrics.ParcelsScanned.Inc()

	if !parcel.Geometry.HasBoundary() {
		r.logger.Debug("parcel has no boundary polygon, skipping",
			"parcel_id", parcel.ID,
		)
		r.metrics.ParcelsSkipped.WithLabelValues(observability.SkipNoPolygon).Inc()
		return "", false
	}

	if !domain.PolygonsIntersect(alert.Area, parcel.Geometry.Boundary) {
		return "", false
	}

	owner, err := r.users.FindOwnerOf(ctx, parcel.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			r.logger.Warn("parcel intersects alert but has no owner",
				"parcel_id", parcel.ID,
				"event", alert.Properties.Event,
			)
			r.metrics.ParcelsSkipped.WithLabelValues(observability.SkipOrphaned).Inc()
			return "", false
		}
		r.logger.Warn("owner lookup failed, skipping parcel",
			"parcel_id", parcel.ID,
			"error", err,
		)
		r.metrics.ParcelsSkipped.WithLabelValues(observability.SkipLookup).Inc()
		return "", false
	}

	return owner.ID, true
}
