// Package domain models weather-hazard alerts, registered land parcels, and
// the correlation between them.
//
// # Alerts
//
// Alerts arrive from an upstream hazard feed as GeoJSON-style features: a
// closed polygon ring in longitude/latitude order describing the affected
// area, plus a property bag with at least a severity level, an event label
// (the phenomenon, e.g. "Severe Thunderstorm Warning"), and free-text
// description and instruction fields. Alerts are transient — they live for
// the duration of one correlation run and are never persisted.
//
// # Parcels
//
// A parcel's geometry is stored as a two-feature collection. Features are
// distinguished by a "name" property:
//
//	"polygon"         → the parcel boundary ring(s)
//	"pointOnFeature"  → a point guaranteed to lie on or within the boundary,
//	                    used for reverse lookups and map display
//
// Geometry is parsed into a typed value exactly once, at parcel-load time.
// A parcel whose stored geometry is missing the polygon feature or cannot be
// parsed carries an invalid geometry and is excluded from correlation; it is
// never treated as an error that aborts a batch.
//
// # Ownership
//
// Parcels do not store an owner reference. The owning user's record holds an
// array of parcel references, so ownership is resolved by asking the user
// store for "any user whose parcel-reference list contains this parcel's ID".
// A parcel no user references is an orphan and is skipped.
package domain
