package plotting

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// AssetsHost is where the rendered pages load echarts and echarts-gl from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Cloud is the geometry of a 3-D page: colored points and hull faces, each
// face given as three corners.
type Cloud struct {
	Title  string
	Points []r3.Vec
	Faces  [][3]r3.Vec
}

// CloudFromScene flattens a scene's hull into face corners.
func CloudFromScene(s Scene) Cloud {
	c := Cloud{Title: s.Title, Points: s.Colors}
	if s.Hull != nil {
		for _, f := range s.Hull.Simplices {
			c.Faces = append(c.Faces, [3]r3.Vec{s.Hull.Points[f[0]], s.Hull.Points[f[1]], s.Hull.Points[f[2]]})
		}
	}
	return c
}

func axes3D() []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "R", Min: 0, Max: 1}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "G", Min: 0, Max: 1}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "B", Min: 0, Max: 1}),
		charts.WithGrid3DOpts(opts.Grid3D{
			BoxWidth:    100,
			BoxHeight:   100,
			BoxDepth:    100,
			ViewControl: &opts.ViewControl{AutoRotate: opts.Bool(false)},
		}),
	}
}

func scatterChart(c Cloud) *charts.Scatter3D {
	data := make([]opts.Chart3DData, len(c.Points))
	for i, p := range c.Points {
		hex := colorful.Color{R: p.X, G: p.Y, B: p.Z}.Clamped().Hex()
		data[i] = opts.Chart3DData{
			Value:     []interface{}{p.X, p.Y, p.Z},
			ItemStyle: &opts.ItemStyle{Color: hex},
		}
	}
	sc := charts.NewScatter3D()
	sc.SetGlobalOptions(append(axes3D(),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Theme: "dark", Width: "900px", Height: "700px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: fmt.Sprintf("points=%d", len(c.Points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)...)
	sc.AddSeries("points", data)
	return sc
}

func wireframeChart(c Cloud) *charts.Line3D {
	line := charts.NewLine3D()
	line.SetGlobalOptions(append(axes3D(),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Theme: "dark", Width: "900px", Height: "700px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: c.Title + " hull", Subtitle: fmt.Sprintf("faces=%d", len(c.Faces))}),
	)...)
	// One closed polyline per face.
	for _, f := range c.Faces {
		data := make([]opts.Chart3DData, 0, 4)
		for _, v := range []r3.Vec{f[0], f[1], f[2], f[0]} {
			data = append(data, opts.Chart3DData{Value: []interface{}{v.X, v.Y, v.Z}})
		}
		line.AddSeries("hull", data, charts.WithLineStyleOpts(opts.LineStyle{Color: "#ff3030", Width: 1}))
	}
	return line
}

// WriteHull3D renders an HTML page with the points of every cloud in their
// own colors next to a wireframe of its hull.
func WriteHull3D(w io.Writer, clouds ...Cloud) error {
	page := components.NewPage()
	page.SetPageTitle("colorhull")
	page.SetAssetsHost(AssetsHost)
	for _, c := range clouds {
		page.AddCharts(scatterChart(c))
		if len(c.Faces) > 0 {
			page.AddCharts(wireframeChart(c))
		}
	}
	return page.Render(w)
}
