package domain

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// AlertProperties is the descriptive property bag carried by a weather alert.
// Event is the phenomenon label. Extra holds provider fields the service does
// not interpret but forwards to notifications unchanged.
type AlertProperties struct {
	Event       string                     `json:"event"`
	Severity    string                     `json:"severity"`
	Headline    string                     `json:"headline,omitempty"`
	Description string                     `json:"description,omitempty"`
	Instruction string                     `json:"instruction,omitempty"`
	Extra       map[string]json.RawMessage `json:"extra,omitempty"`
}

// WeatherAlert is a single hazard alert: an affected area and its properties.
// Alerts are transient and carry no identity of their own.
type WeatherAlert struct {
	Area       orb.Polygon
	Properties AlertProperties
}

// NewWeatherAlert builds a WeatherAlert from a raw exterior ring in
// longitude/latitude order. The ring must be closed (first point equals last)
// and contain at least four positions.
func NewWeatherAlert(ring [][]float64, props AlertProperties) (WeatherAlert, error) {
	if len(ring) < 4 {
		return WeatherAlert{}, fmt.Errorf("alert polygon: ring has %d positions, need at least 4", len(ring))
	}

	r := make(orb.Ring, 0, len(ring))
	for i, pos := range ring {
		if len(pos) < 2 {
			return WeatherAlert{}, fmt.Errorf("alert polygon: position %d has %d coordinates, need 2", i, len(pos))
		}
		r = append(r, orb.Point{pos[0], pos[1]})
	}

	if !r.Closed() {
		return WeatherAlert{}, fmt.Errorf("alert polygon: ring is not closed")
	}

	return WeatherAlert{
		Area:       orb.Polygon{r},
		Properties: props,
	}, nil
}
