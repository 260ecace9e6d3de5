package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validParcelGeometry = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"name": "polygon"},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]
			}
		},
		{
			"type": "Feature",
			"properties": {"name": "pointOnFeature"},
			"geometry": {"type": "Point", "coordinates": [0.5, 0.5]}
		}
	]
}`

func TestParseParcelGeometry_Valid(t *testing.T) {
	g, err := ParseParcelGeometry([]byte(validParcelGeometry))
	require.NoError(t, err)

	assert.True(t, g.HasBoundary())
	require.Len(t, g.Boundary, 1)
	assert.Len(t, g.Boundary[0], 5)
	assert.Equal(t, 0.5, g.Anchor[0])
	assert.Equal(t, 0.5, g.Anchor[1])
}

func TestParseParcelGeometry_PointFeatureOnly(t *testing.T) {
	raw := `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"name": "pointOnFeature"},
				"geometry": {"type": "Point", "coordinates": [0.5, 0.5]}
			}
		]
	}`

	g, err := ParseParcelGeometry([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "polygon")
	assert.False(t, g.HasBoundary())
}

func TestParseParcelGeometry_NotJSON(t *testing.T) {
	g, err := ParseParcelGeometry([]byte("not geojson at all"))
	require.Error(t, err)
	assert.False(t, g.HasBoundary())
}

func TestParseParcelGeometry_WrongGeometryType(t *testing.T) {
	raw := `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"name": "polygon"},
				"geometry": {"type": "Point", "coordinates": [0.5, 0.5]}
			}
		]
	}`

	g, err := ParseParcelGeometry([]byte(raw))
	require.Error(t, err)
	assert.False(t, g.HasBoundary())
}

func TestParseParcelGeometry_UnnamedFeaturesIgnored(t *testing.T) {
	raw := `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"name": "somethingElse"},
				"geometry": {
					"type": "Polygon",
					"coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]
				}
			}
		]
	}`

	g, err := ParseParcelGeometry([]byte(raw))
	require.Error(t, err)
	assert.False(t, g.HasBoundary())
}

func TestZeroParcelGeometryHasNoBoundary(t *testing.T) {
	assert.False(t, ParcelGeometry{}.HasBoundary())
}

func TestUserNotifiable(t *testing.T) {
	assert.True(t, User{ID: "u1", Email: "farmer@example.com"}.Notifiable())
	assert.False(t, User{ID: "u2", PhoneNumber: "+15155550100"}.Notifiable())
}
