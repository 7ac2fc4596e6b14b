package colorhull

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitCube() []r3.Vec {
	var pts []r3.Vec
	for _, x := range []float64{0, 1} {
		for _, y := range []float64{0, 1} {
			for _, z := range []float64{0, 1} {
				pts = append(pts, r3.Vec{X: x, Y: y, Z: z})
			}
		}
	}
	return pts
}

func TestConvexHullCube(t *testing.T) {
	h, err := ConvexHull(unitCube())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, h.Volume, 1e-12)
	assert.Len(t, h.Vertices, 8)
	assert.Len(t, h.Simplices, 12)
	// 12 cube edges plus one diagonal per square side.
	assert.Len(t, h.Edges(), 18)
}

func TestConvexHullTetrahedron(t *testing.T) {
	pts := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}
	h, err := ConvexHull(pts)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/6, h.Volume, 1e-12)
	assert.Equal(t, []int{0, 1, 2, 3}, h.Vertices)
	assert.Len(t, h.Simplices, 4)
}

func TestConvexHullInteriorPoints(t *testing.T) {
	pts := append(unitCube(), r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, r3.Vec{X: 0.25, Y: 0.75, Z: 0.5})
	h, err := ConvexHull(pts)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, h.Volume, 1e-12)
	assert.NotContains(t, h.Vertices, 8)
	assert.NotContains(t, h.Vertices, 9)

	assert.True(t, h.Contains(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}))
	assert.True(t, h.Contains(r3.Vec{X: 1, Y: 1, Z: 1}))
	assert.False(t, h.Contains(r3.Vec{X: 1.5, Y: 0.5, Z: 0.5}))
	assert.False(t, h.Contains(r3.Vec{X: -0.01, Y: 0, Z: 0}))
}

func TestConvexHullOutwardFaces(t *testing.T) {
	h, err := ConvexHull(unitCube())
	require.NoError(t, err)
	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	for _, s := range h.Simplices {
		a, b, c := h.Points[s[0]], h.Points[s[1]], h.Points[s[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		assert.Negative(t, r3.Dot(n, r3.Sub(center, a)), "face %v points inward", s)
	}
}

func TestConvexHullRandomCloud(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 11))
	pts := make([]r3.Vec, 500)
	for i := range pts {
		pts[i] = r3.Vec{X: rnd.Float64(), Y: rnd.Float64(), Z: rnd.Float64()}
	}
	h, err := ConvexHull(pts)
	require.NoError(t, err)
	assert.Greater(t, h.Volume, 0.8)
	assert.LessOrEqual(t, h.Volume, 1.0)
	for _, p := range pts {
		assert.True(t, h.Contains(p))
	}
	// Euler: a closed triangulated surface has 2V-4 faces.
	assert.Len(t, h.Simplices, 2*len(h.Vertices)-4)
}

// sphereShell returns n points on the unit sphere, so every point is a hull
// vertex.
func sphereShell(n int, seed uint64) []r3.Vec {
	rnd := rand.New(rand.NewPCG(seed, seed))
	pts := make([]r3.Vec, n)
	for i := range pts {
		v := r3.Vec{X: rnd.NormFloat64(), Y: rnd.NormFloat64(), Z: rnd.NormFloat64()}
		pts[i] = r3.Unit(v)
	}
	return pts
}

func TestConvexHullSphereShell(t *testing.T) {
	pts := sphereShell(4000, 3)
	h, err := ConvexHull(pts)
	require.NoError(t, err)
	assert.Len(t, h.Vertices, len(pts))
	assert.Len(t, h.Simplices, 2*len(pts)-4)
	assert.Len(t, h.Edges(), 3*len(pts)-6)
	assert.InDelta(t, 4*math.Pi/3, h.Volume, 0.05)
	assert.Less(t, h.Volume, 4*math.Pi/3)
	assert.True(t, h.Contains(r3.Vec{}))
	assert.False(t, h.Contains(r3.Vec{X: 1.01}))
}

func BenchmarkConvexHullSphereShell(b *testing.B) {
	pts := sphereShell(8000, 5)
	for b.Loop() {
		if _, err := ConvexHull(pts); err != nil {
			b.Fatal(err)
		}
	}
}

func TestConvexHullDegenerate(t *testing.T) {
	tests := []struct {
		name string
		pts  []r3.Vec
	}{
		{"empty", nil},
		{"three points", []r3.Vec{{}, {X: 1}, {Y: 1}}},
		{"identical", []r3.Vec{{X: 0.3}, {X: 0.3}, {X: 0.3}, {X: 0.3}, {X: 0.3}}},
		{"collinear", []r3.Vec{{}, {X: 0.25}, {X: 0.5}, {X: 1}}},
		{"coplanar", []r3.Vec{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}, {X: 0.5, Y: 0.2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConvexHull(tt.pts)
			assert.ErrorIs(t, err, ErrInsufficientPoints)
		})
	}
}
