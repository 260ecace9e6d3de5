package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature name tags inside a parcel's stored geometry collection.
const (
	FeatureBoundary = "polygon"
	FeatureAnchor   = "pointOnFeature"
)

// ParcelGeometry is the typed geometry of a parcel, built once when the
// parcel is loaded. Matching code checks HasBoundary instead of inspecting
// raw coordinate structures.
type ParcelGeometry struct {
	Boundary orb.Polygon
	Anchor   orb.Point

	valid bool
}

// HasBoundary reports whether a usable boundary polygon was parsed. Parcels
// without one are excluded from correlation.
func (g ParcelGeometry) HasBoundary() bool {
	return g.valid && len(g.Boundary) > 0
}

// NewParcelGeometry builds a typed geometry directly from parsed parts.
// The result is invalid when the boundary is empty.
func NewParcelGeometry(boundary orb.Polygon, anchor orb.Point) ParcelGeometry {
	return ParcelGeometry{
		Boundary: boundary,
		Anchor:   anchor,
		valid:    len(boundary) > 0,
	}
}

// Parcel is a registered piece of land. Ownership is not stored here; see the
// package documentation.
type Parcel struct {
	ID       string
	Geometry ParcelGeometry
}

// ParseParcelGeometry parses a stored two-feature GeoJSON collection into a
// typed ParcelGeometry. On any structural problem it returns the zero (invalid)
// geometry together with the error, so callers can log and move on — malformed
// geometry excludes a parcel, it never fails a batch.
func ParseParcelGeometry(raw []byte) (ParcelGeometry, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return ParcelGeometry{}, fmt.Errorf("parse parcel geometry: %w", err)
	}

	var g ParcelGeometry
	for _, f := range fc.Features {
		name, _ := f.Properties["name"].(string)
		switch name {
		case FeatureBoundary:
			switch geom := f.Geometry.(type) {
			case orb.Polygon:
				g.Boundary = geom
			case orb.MultiPolygon:
				// Multi-ring parcels are rare; correlate against the first part.
				if len(geom) > 0 {
					g.Boundary = geom[0]
				}
			default:
				return ParcelGeometry{}, fmt.Errorf("parse parcel geometry: feature %q is %T, want polygon", name, f.Geometry)
			}
		case FeatureAnchor:
			if pt, ok := f.Geometry.(orb.Point); ok {
				g.Anchor = pt
			}
		}
	}

	if len(g.Boundary) == 0 {
		return ParcelGeometry{}, fmt.Errorf("parse parcel geometry: no %q feature in collection", FeatureBoundary)
	}

	g.valid = true
	return g, nil
}

// User is a registered account. Email is required for notification delivery;
// ParcelRefs is the forward reference list ownership lookups scan.
type User struct {
	ID          string
	Email       string
	PhoneNumber string
	ParcelRefs  []string
}

// Notifiable reports whether the user can receive notifications at all.
// Users without an email are silently excluded from dispatch.
func (u User) Notifiable() bool {
	return u.Email != ""
}
