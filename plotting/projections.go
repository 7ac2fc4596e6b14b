// Package plotting renders point clouds and their convex hulls, as PNG
// projections with gonum/plot and as interactive 3-D pages with go-echarts.
package plotting

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/setanarut/colorhull"
)

// Scene is a labeled point cloud with an optional hull over it.
type Scene struct {
	Title  string
	Colors []r3.Vec
	Labels []int // may be nil
	K      int   // label count used for gray levels
	Hull   *colorhull.Hull
}

var hullColor = color.RGBA{R: 220, A: 255}

type axisPair struct {
	x, y string
	pick func(r3.Vec) (float64, float64)
}

var projections = []axisPair{
	{"r", "g", func(v r3.Vec) (float64, float64) { return v.X, v.Y }},
	{"r", "b", func(v r3.Vec) (float64, float64) { return v.X, v.Z }},
	{"g", "b", func(v r3.Vec) (float64, float64) { return v.Y, v.Z }},
}

// labelGray maps a label to a gray level, matching labels/(K-1).
func labelGray(label, k int) color.Color {
	if k <= 1 {
		return color.Gray{}
	}
	return color.Gray{Y: uint8(255 * float64(label) / float64(k-1))}
}

func newProjection(s Scene, ax axisPair) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s-%s)", s.Title, ax.x, ax.y)
	p.X.Label.Text = ax.x
	p.Y.Label.Text = ax.y
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	if len(s.Colors) > 0 {
		xys := make(plotter.XYs, len(s.Colors))
		for i, c := range s.Colors {
			xys[i].X, xys[i].Y = ax.pick(c)
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			var c color.Color = color.Gray{}
			if s.Labels != nil {
				c = labelGray(s.Labels[i], s.K)
			}
			return draw.GlyphStyle{Color: c, Radius: vg.Points(1), Shape: draw.CircleGlyph{}}
		}
		p.Add(sc)
	}

	if s.Hull != nil {
		for _, e := range s.Hull.Edges() {
			seg := make(plotter.XYs, 2)
			seg[0].X, seg[0].Y = ax.pick(s.Hull.Points[e[0]])
			seg[1].X, seg[1].Y = ax.pick(s.Hull.Points[e[1]])
			l, err := plotter.NewLine(seg)
			if err != nil {
				return nil, err
			}
			l.Color = hullColor
			l.Width = vg.Points(0.5)
			p.Add(l)
		}
	}
	return p, nil
}

// WriteProjections draws the r-g, r-b and g-b projections of s side by side
// and writes them to w as PNG.
func WriteProjections(w io.Writer, s Scene) error {
	row := make([]*plot.Plot, len(projections))
	for i, ax := range projections {
		p, err := newProjection(s, ax)
		if err != nil {
			return fmt.Errorf("plot %s: %w", s.Title, err)
		}
		row[i] = p
	}
	plots := [][]*plot.Plot{row}

	img := vgimg.New(18*vg.Inch, 6*vg.Inch)
	dc := draw.New(img)
	t := draw.Tiles{
		Rows: 1,
		Cols: len(row),
		PadX: vg.Millimeter,
	}
	canvases := plot.Align(plots, t, dc)
	for j, p := range row {
		p.Draw(canvases[0][j])
	}
	_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

func saveProjections(path string, s Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteProjections(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Scenes splits a report into the before, after and excluded views.
func Scenes(r *colorhull.Report) (before, after, excluded Scene) {
	colors := r.Points.Colors()
	labels := r.Clustering.Labels

	before = Scene{Title: "before", Colors: colors, Labels: labels, K: r.K, Hull: r.Baseline}
	after = Scene{Title: "after", K: r.K, Hull: r.Best}
	excluded = Scene{Title: "excluded", K: r.K}
	for i, l := range labels {
		if l == r.BestLabel {
			excluded.Colors = append(excluded.Colors, colors[i])
			excluded.Labels = append(excluded.Labels, l)
			continue
		}
		after.Colors = append(after.Colors, colors[i])
		after.Labels = append(after.Labels, l)
	}
	return before, after, excluded
}

// SaveProjections writes before.png, after.png and excluded.png into dir.
func SaveProjections(dir string, r *colorhull.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	before, after, excluded := Scenes(r)
	for _, s := range []Scene{before, after, excluded} {
		if err := saveProjections(filepath.Join(dir, s.Title+".png"), s); err != nil {
			return err
		}
	}
	return nil
}
