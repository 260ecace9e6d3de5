// Package pipeline correlates weather alerts against registered parcels and
// fans notifications out to the affected owners.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
	"github.com/agroclimate/parcel-alert-service/internal/observability"
)

// Pipeline composes alert source, resolver, and dispatcher into the single
// correlation entry point, plus the periodic sweep loop that drives it.
type Pipeline struct {
	source     domain.AlertSource
	parcels    domain.ParcelStore
	resolver   *Resolver
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *observability.Metrics

	sweepInterval time.Duration
	ready         atomic.Bool
}

// New creates a Pipeline. A zero sweepInterval disables the Run loop's
// periodic sweeps; ProcessWeatherAlerts stays available either way.
func New(source domain.AlertSource, parcels domain.ParcelStore, resolver *Resolver, dispatcher *Dispatcher, logger *slog.Logger, metrics *observability.Metrics, sweepInterval time.Duration) *Pipeline {
	return &Pipeline{
		source:        source,
		parcels:       parcels,
		resolver:      resolver,
		dispatcher:    dispatcher,
		logger:        logger,
		metrics:       metrics,
		sweepInterval: sweepInterval,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one
// correlation run.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a correlation run yet")
	}
	return nil
}

// ProcessWeatherAlerts runs the full correlation for a batch of alerts and
// returns the number of accepted notification invocations. It errors only
// when the batch cannot begin at all — the parcel store being unreachable.
// Every per-alert and per-user condition inside the batch is absorbed.
func (p *Pipeline) ProcessWeatherAlerts(ctx context.Context, alerts []domain.WeatherAlert) (int, error) {
	start := time.Now()

	parcels, err := p.parcels.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list parcels: %w", err)
	}

	total := 0
	for _, alert := range alerts {
		p.metrics.AlertsProcessed.Inc()

		if len(alert.Area) == 0 {
			p.logger.Warn("alert without polygon, skipping",
				"event", alert.Properties.Event,
			)
			continue
		}

		affected := p.resolver.AffectedUsers(ctx, alert, parcels)
		if len(affected) == 0 {
			continue
		}

		sent := p.dispatcher.Fanout(ctx, affected, alert.Properties)
		p.logger.Info("alert correlated",
			"event", alert.Properties.Event,
			"severity", alert.Properties.Severity,
			"affected_users", len(affected),
			"notifications_sent", sent,
		)
		total += sent
	}

	p.metrics.CorrelationDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return total, nil
}

// Run executes periodic correlation sweeps until the context is cancelled.
// Each sweep pulls the current collection through the cached alert source and
// processes it. Upstream failures back off exponentially instead of tight-
// looping against a broken feed.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.sweepInterval <= 0 {
		p.logger.Info("sweep loop disabled, alerts processed on demand only")
		<-ctx.Done()
		return nil
	}

	p.logger.Info("sweep loop started", "interval", p.sweepInterval.String())
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := 30 * time.Second
	maxBackoff := p.sweepInterval

	for {
		if err := p.sweep(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("sweep loop stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("sweep failed", "error", err)
			p.metrics.SweepsTotal.WithLabelValues("error").Inc()
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		p.metrics.SweepsTotal.WithLabelValues("success").Inc()
		backoff = 30 * time.Second

		if !sleepWithContext(ctx, p.sweepInterval) {
			p.logger.Info("sweep loop stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func (p *Pipeline) sweep(ctx context.Context) error {
	alerts, err := p.source.FetchAlerts(ctx)
	if err != nil {
		return fmt.Errorf("fetch alerts: %w", err)
	}

	sent, err := p.ProcessWeatherAlerts(ctx, alerts)
	if err != nil {
		return err
	}

	p.logger.Info("sweep complete", "alerts", len(alerts), "notifications_sent", sent)
	return nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
