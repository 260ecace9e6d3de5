package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
	"github.com/agroclimate/parcel-alert-service/internal/observability"
)

// Dispatcher fans notifications out to affected users through the
// notification executor. Dispatches run on a bounded worker pool and Fanout
// joins the pool before returning, so callers (and tests) always observe the
// final success count.
type Dispatcher struct {
	users    domain.UserStore
	executor domain.NotificationExecutor
	logger   *slog.Logger
	metrics  *observability.Metrics
	workers  int
}

// NewDispatcher creates a dispatcher with the given worker-pool size.
func NewDispatcher(users domain.UserStore, executor domain.NotificationExecutor, logger *slog.Logger, metrics *observability.Metrics, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		users:    users,
		executor: executor,
		logger:   logger,
		metrics:  metrics,
		workers:  workers,
	}
}

// Fanout dispatches the alert's property bag to every user in the set and
// returns how many invocations were accepted. Per-user failures are counted
// as non-successes, never propagated.
func (d *Dispatcher) Fanout(ctx context.Context, userIDs map[string]struct{}, props domain.AlertProperties) int {
	var (
		sent atomic.Int64
		wg   sync.WaitGroup
		jobs = make(chan string)
	)

	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range jobs {
				if d.DispatchTo(ctx, userID, props) {
					sent.Add(1)
				}
			}
		}()
	}

	for userID := range userIDs {
		jobs <- userID
	}
	close(jobs)
	wg.Wait()

	return int(sent.Load())
}

// DispatchTo assembles and submits one notification. It returns true only if
// the executor accepted the invocation request. Users that cannot be notified
// (unknown ID, no email) are logged distinctly from executor failures and
// never reach the executor.
func (d *Dispatcher) DispatchTo(ctx context.Context, userID string, props domain.AlertProperties) bool {
	user, err := d.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			d.logger.Warn("affected user no longer exists", "user_id", userID)
		} else {
			d.logger.Warn("user lookup failed", "user_id", userID, "error", err)
		}
		d.metrics.NotificationsFailed.WithLabelValues(observability.FailUserLookup).Inc()
		return false
	}

	if !user.Notifiable() {
		d.logger.Info("user has no email, skipping notification",
			"user_id", userID,
			"event", props.Event,
		)
		d.metrics.NotificationsFailed.WithLabelValues(observability.FailIneligible).Inc()
		return false
	}

	payload, err := domain.NewWeatherAlertNotification(user, props).Marshal()
	if err != nil {
		d.logger.Error("notification payload marshal failed", "user_id", userID, "error", err)
		d.metrics.NotificationsFailed.WithLabelValues(observability.FailExecutor).Inc()
		return false
	}

	if err := d.executor.InvokeAsync(ctx, payload); err != nil {
		d.logger.Warn("notification invocation rejected",
			"user_id", userID,
			"event", props.Event,
			"error", err,
		)
		d.metrics.NotificationsFailed.WithLabelValues(observability.FailExecutor).Inc()
		return false
	}

	d.metrics.NotificationsSent.Inc()
	return true
}
