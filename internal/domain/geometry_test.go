package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func square(minX, minY, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY},
		{minX + size, minY},
		{minX + size, minY + size},
		{minX, minY + size},
		{minX, minY},
	}}
}

func TestPolygonsIntersect(t *testing.T) {
	tests := []struct {
		name string
		a    orb.Polygon
		b    orb.Polygon
		want bool
	}{
		{
			name: "partial overlap",
			a:    square(0, 0, 1),
			b:    square(0.5, 0.5, 1),
			want: true,
		},
		{
			name: "fully disjoint",
			a:    square(0, 0, 1),
			b:    square(10, 10, 1),
			want: false,
		},
		{
			name: "b contained entirely in a",
			a:    square(0, 0, 10),
			b:    square(4, 4, 1),
			want: true,
		},
		{
			name: "a contained entirely in b",
			a:    square(4, 4, 1),
			b:    square(0, 0, 10),
			want: true,
		},
		{
			name: "shared edge only",
			a:    square(0, 0, 1),
			b:    square(1, 0, 1),
			want: true,
		},
		{
			name: "touching at a single corner",
			a:    square(0, 0, 1),
			b:    square(1, 1, 1),
			want: true,
		},
		{
			name: "close but separated",
			a:    square(0, 0, 1),
			b:    square(1.001, 0, 1),
			want: false,
		},
		{
			name: "bounding boxes overlap but polygons do not",
			a: orb.Polygon{orb.Ring{
				{0, 0}, {4, 0}, {4, 0.5}, {0.5, 0.5}, {0.5, 4}, {0, 4}, {0, 0},
			}},
			b:    square(2, 2, 1),
			want: false,
		},
		{
			name: "empty a",
			a:    orb.Polygon{},
			b:    square(0, 0, 1),
			want: false,
		},
		{
			name: "empty b",
			a:    square(0, 0, 1),
			b:    orb.Polygon{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PolygonsIntersect(tt.a, tt.b))
			// The predicate is symmetric.
			assert.Equal(t, tt.want, PolygonsIntersect(tt.b, tt.a))
		})
	}
}

func TestPolygonsIntersect_EdgeCrossingWithoutContainedVertices(t *testing.T) {
	// Two long thin rectangles forming a plus sign: they overlap in the
	// middle but neither contains a vertex of the other.
	horizontal := orb.Polygon{orb.Ring{
		{-5, -0.5}, {5, -0.5}, {5, 0.5}, {-5, 0.5}, {-5, -0.5},
	}}
	vertical := orb.Polygon{orb.Ring{
		{-0.5, -5}, {0.5, -5}, {0.5, 5}, {-0.5, 5}, {-0.5, -5},
	}}

	assert.True(t, PolygonsIntersect(horizontal, vertical))
}
