package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PolygonsIntersect reports whether two polygons share any point: overlapping
// interiors, one containing the other, or a shared boundary all count as an
// intersection. Fully disjoint polygons return false, as does an empty input.
//
// The check runs in three stages: bounding-box rejection, vertex containment
// in both directions (catches full containment without edge crossings), and
// pairwise edge intersection (catches partial overlap and boundary touches).
func PolygonsIntersect(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	if !a.Bound().Intersects(b.Bound()) {
		return false
	}

	for _, pt := range a[0] {
		if planar.PolygonContains(b, pt) {
			return true
		}
	}
	for _, pt := range b[0] {
		if planar.PolygonContains(a, pt) {
			return true
		}
	}

	for _, ringA := range a {
		for _, ringB := range b {
			if ringsCross(ringA, ringB) {
				return true
			}
		}
	}

	return false
}

func ringsCross(a, b orb.Ring) bool {
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

// segmentsIntersect reports whether segments p1-p2 and q1-q2 share a point,
// including collinear overlap and endpoint touches.
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

// cross returns the z-component of (b-a) x (p-a): positive when p is left of
// a→b, negative when right, zero when collinear.
func cross(a, b, p orb.Point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

// onSegment reports whether collinear point p lies within the bounding box of
// segment a-b.
func onSegment(a, b, p orb.Point) bool {
	return min(a[0], b[0]) <= p[0] && p[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= p[1] && p[1] <= max(a[1], b[1])
}
