package colorhull

import (
	"cmp"
	"image"
	"image/color"
	"slices"

	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/spatial/r3"
)

// Channel counts of extracted points.
const (
	ColorDims    = 3
	PositionDims = 5
)

// Points is a set of feature vectors with every channel in [0,1].
// Channels are r, g, b and optionally x, y.
type Points []clusters.Coordinates

// ExtractPoints turns every pixel of img into a normalized feature vector and
// removes exact duplicates. With withPosition the normalized column and row
// are appended as channels 3 and 4.
func ExtractPoints(img image.Image, withPosition bool) Points {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	dims := ColorDims
	if withPosition {
		dims = PositionDims
	}
	pts := make(Points, 0, w*h)
	for y := range h {
		for x := range w {
			// Straight alpha; premultiplied values would darken translucent pixels.
			c := color.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			p := make(clusters.Coordinates, dims)
			p[0] = float64(c.R) / 65535.0
			p[1] = float64(c.G) / 65535.0
			p[2] = float64(c.B) / 65535.0
			if withPosition {
				p[3] = normalizedIndex(x, w)
				p[4] = normalizedIndex(y, h)
			}
			pts = append(pts, p)
		}
	}
	return pts.Dedupe()
}

func normalizedIndex(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

type pointKey [PositionDims]float64

func keyOf(p clusters.Coordinates) pointKey {
	var k pointKey
	copy(k[:], p)
	return k
}

// Dedupe returns the unique points of ps in lexicographic order. Points are
// compared with exact equality. Applying Dedupe to its own output is a no-op.
func (ps Points) Dedupe() Points {
	seen := make(map[pointKey]struct{}, len(ps))
	out := make(Points, 0, len(ps))
	for _, p := range ps {
		k := keyOf(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	slices.SortFunc(out, comparePoints)
	return out
}

func comparePoints(a, b clusters.Coordinates) int {
	for i := range min(len(a), len(b)) {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// Colors projects every point onto its r, g, b channels.
func (ps Points) Colors() []r3.Vec {
	out := make([]r3.Vec, len(ps))
	for i, p := range ps {
		out[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	return out
}

// Observations adapts the points to the muesli/clusters interface.
func (ps Points) Observations() clusters.Observations {
	obs := make(clusters.Observations, len(ps))
	for i, p := range ps {
		obs[i] = p
	}
	return obs
}

// Dims returns the channel count of the set, or 0 when it is empty.
func (ps Points) Dims() int {
	if len(ps) == 0 {
		return 0
	}
	return len(ps[0])
}
