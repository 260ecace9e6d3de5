// Package meteo talks to the upstream weather-alert feed and caches its
// responses.
package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
)

// Client implements domain.AlertSource against a GeoJSON-style alert feed.
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client. The timeout bounds the whole fetch,
// including body read.
func NewClient(feedURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchAlerts retrieves the current alert collection from the feed. Features
// without a usable polygon geometry are skipped with a log line; they cannot
// be correlated against parcels.
func (c *Client) FetchAlerts(ctx context.Context) ([]domain.WeatherAlert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create alert feed request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alert feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("alert feed error: status %d: %s", resp.StatusCode, body)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode alert feed response: %w", err)
	}

	alerts := make([]domain.WeatherAlert, 0, len(fc.Features))
	for _, f := range fc.Features {
		alert, err := f.toAlert()
		if err != nil {
			c.logger.Warn("skipping alert feature without usable polygon",
				"event", f.Properties.Event,
				"error", err,
			)
			continue
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil
}

// Feed wire types. Only the minimal geometry/property contract the pipeline
// depends on is decoded; unknown property fields ride along in Extra.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry   geometryDoc           `json:"geometry"`
	Properties domain.AlertProperties `json:"properties"`
}

type geometryDoc struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (f feature) toAlert() (domain.WeatherAlert, error) {
	ring, err := f.Geometry.exteriorRing()
	if err != nil {
		return domain.WeatherAlert{}, err
	}
	return domain.NewWeatherAlert(ring, f.Properties)
}

func (g geometryDoc) exteriorRing() ([][]float64, error) {
	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("parse polygon coordinates: %w", err)
		}
		if len(rings) == 0 {
			return nil, fmt.Errorf("polygon has no rings")
		}
		return rings[0], nil
	case "":
		return nil, fmt.Errorf("feature has no geometry")
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}
