package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/agroclimate/parcel-alert-service/internal/adapter/awslambda"
	"github.com/agroclimate/parcel-alert-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/agroclimate/parcel-alert-service/internal/adapter/kafka"
	"github.com/agroclimate/parcel-alert-service/internal/adapter/meteo"
	"github.com/agroclimate/parcel-alert-service/internal/adapter/postgres"
	"github.com/agroclimate/parcel-alert-service/internal/config"
	"github.com/agroclimate/parcel-alert-service/internal/domain"
	"github.com/agroclimate/parcel-alert-service/internal/observability"
	"github.com/agroclimate/parcel-alert-service/internal/pipeline"
)

func main() {
	// Local development convenience; a missing .env file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to postgres")

	parcels := postgres.NewParcelStore(db, logger)
	users := postgres.NewUserStore(db)

	feed := meteo.NewClient(cfg.AlertFeedURL, cfg.AlertFeedTimeout, logger)
	cache := meteo.NewCachedAlertSource(feed, cfg.AlertCacheTTL, clockwork.NewRealClock(), logger, metrics)
	logger.Info("alert feed configured", "url", cfg.AlertFeedURL, "cache_ttl", cfg.AlertCacheTTL.String())

	executor, closeExecutor, err := newExecutor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build notification executor", "error", err)
		os.Exit(1)
	}
	defer closeExecutor()
	logger.Info("notification executor configured", "transport", cfg.NotifierTransport)

	resolver := pipeline.NewResolver(users, logger, metrics, cfg.ResolveWorkers)
	dispatcher := pipeline.NewDispatcher(users, executor, logger, metrics, cfg.DispatchWorkers)
	p := pipeline.New(cache, parcels, resolver, dispatcher, logger, metrics, cfg.SweepInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, cache, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newExecutor builds the configured notification transport. The returned
// close function is a no-op for transports without connections to drain.
func newExecutor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.NotificationExecutor, func(), error) {
	switch cfg.NotifierTransport {
	case config.TransportKafka:
		n := kafkaadapter.NewNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		return n, func() {
			if err := n.Close(); err != nil {
				logger.Error("kafka notifier close error", "error", err)
			}
		}, nil
	default:
		e, err := awslambda.NewExecutor(ctx, cfg.LambdaFunction, cfg.AWSRegion, logger)
		if err != nil {
			return nil, nil, err
		}
		return e, func() {}, nil
	}
}
