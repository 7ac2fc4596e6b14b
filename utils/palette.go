package utils

import (
	"cmp"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

// SortPaletteByBrightness orders colors by CIE L*, darkest first. Equal
// lightness keeps the input order.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortStableFunc(palette, func(a, b colorful.Color) int {
		la, _, _ := a.Lab()
		lb, _, _ := b.Lab()
		return cmp.Compare(la, lb)
	})
}

// DominantPalette returns up to k dominant colors of img, picked for
// diversity in Lab space among weighted candidates.
func DominantPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	candidates := dominantcolor.FindWeight(img, max(24, k*8))
	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		weighted = append(weighted, weightedColor{Col: col.Clamped(), Weight: c.Weight})
	}
	return selectDiverse(weighted, k)
}

// selectDiverse is a weighted farthest-point selection: the heaviest
// candidate first, then repeatedly the candidate whose Lab gap to the picks
// so far, scaled by its relative weight, is largest.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	k = min(k, len(cands))
	if k <= 0 {
		return nil
	}
	first, maxW := 0, 1e-6
	for i, c := range cands {
		if c.Weight > cands[first].Weight {
			first = i
		}
		maxW = max(maxW, c.Weight)
	}

	// gap[i] is the distance from cands[i] to its closest pick.
	gap := make([]float64, len(cands))
	taken := make([]bool, len(cands))
	out := make([]colorful.Color, 0, k)
	take := func(i int) {
		taken[i] = true
		for j, c := range cands {
			d := c.Col.DistanceLab(cands[i].Col)
			if len(out) == 0 || d < gap[j] {
				gap[j] = d
			}
		}
		out = append(out, cands[i].Col)
	}

	take(first)
	for len(out) < k {
		next, score := -1, -1.0
		for j, c := range cands {
			if taken[j] {
				continue
			}
			bias := 0.55 + 0.45*math.Sqrt(max(c.Weight, 1e-6)/maxW)
			if s := gap[j] * bias; s > score {
				next, score = j, s
			}
		}
		take(next)
	}
	return out
}

// Outside returns the palette colors that do not fit in contains, typically
// a hull membership test.
func Outside(palette []colorful.Color, contains func(r3.Vec) bool) []colorful.Color {
	var out []colorful.Color
	for _, c := range palette {
		if !contains(r3.Vec{X: c.R, Y: c.G, Z: c.B}) {
			out = append(out, c)
		}
	}
	return out
}

// PaletteImage draws palette as a row of square tiles.
func PaletteImage(palette []colorful.Color, tileSize int) (*image.RGBA, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}
	img := image.NewRGBA(image.Rect(0, 0, tileSize*len(palette), tileSize))
	for i, c := range palette {
		r, g, b := c.Clamped().RGB255()
		x0 := i * tileSize
		for y := range tileSize {
			for x := x0; x < x0+tileSize; x++ {
				img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return img, nil
}

func SavePalette(palette []colorful.Color, tileSize int, filename string) error {
	img, err := PaletteImage(palette, tileSize)
	if err != nil {
		return err
	}
	return SaveImage(img, filename)
}
