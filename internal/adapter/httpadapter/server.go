// Package httpadapter exposes the operational HTTP surface: health,
// readiness, metrics, cache diagnostics, and the alert-batch trigger.
package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
)

// AlertProcessor runs a validated alert batch through correlation.
type AlertProcessor interface {
	ProcessWeatherAlerts(ctx context.Context, alerts []domain.WeatherAlert) (int, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// CacheInspector exposes the alert cache's diagnostic view.
type CacheInspector interface {
	Status() domain.CacheStatus
}

// Server wires the operational routes onto a chi router.
type Server struct {
	httpServer *http.Server
	processor  AlertProcessor
	cache      CacheInspector
	logger     *slog.Logger
}

// NewServer creates the HTTP server. The cache inspector may be nil when no
// cached source is configured; the cache route then reports 404.
func NewServer(addr string, processor AlertProcessor, ready ReadinessChecker, cache CacheInspector, logger *slog.Logger) *Server {
	s := &Server{
		processor: processor,
		cache:     cache,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/v1/alerts/process", s.handleProcess)
	r.Get("/v1/alerts/cache", s.handleCacheStatus)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// alertRequest is the trigger endpoint's body: pre-validated alerts from the
// application layer, geometry as a closed lon/lat ring.
type alertRequest struct {
	Alerts []struct {
		Polygon    [][]float64            `json:"polygon"`
		Properties domain.AlertProperties `json:"properties"`
	} `json:"alerts"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	alerts := make([]domain.WeatherAlert, 0, len(req.Alerts))
	for i, a := range req.Alerts {
		alert, err := domain.NewWeatherAlert(a.Polygon, a.Properties)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("alert %d: %v", i, err),
			})
			return
		}
		alerts = append(alerts, alert)
	}

	sent, err := s.processor.ProcessWeatherAlerts(r.Context(), alerts)
	if err != nil {
		s.logger.Error("alert batch could not begin", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "alert processing unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"notificationsSent": sent})
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, _ *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no alert cache configured"})
		return
	}

	status := s.cache.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"exists":      status.Exists,
		"ageSeconds":  int(status.Age.Seconds()),
		"isValid":     status.Valid,
		"lastUpdated": status.LastUpdated,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort operational response
}
