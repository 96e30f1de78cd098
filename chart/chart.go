// Package chart renders geolocation scenarios with gonum plot.
package chart

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Track is a named platform track.
type Track struct {
	// Name is track legend label
	Name string
	// Pos stores positions in rows; only the first two columns are drawn
	Pos *mat.Dense
}

var palette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
	color.RGBA{R: 140, G: 86, B: 75, A: 255},
}

// NewGeometry creates top-down XY plot of the geolocation scenario from:
// receivers: receiver tracks
// emitter:   true emitter positions
// estimates: estimated emitter positions; may be nil
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * no receiver tracks or emitter positions are given
// * either of the supplied data matrices does not have at least 2 columns
// * gonum plot fails to be created
func NewGeometry(receivers []Track, emitter, estimates *mat.Dense) (*plot.Plot, error) {
	if len(receivers) == 0 || emitter == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	data := []*mat.Dense{emitter}
	if estimates != nil {
		data = append(data, estimates)
	}
	for _, r := range receivers {
		if r.Pos == nil {
			return nil, fmt.Errorf("invalid track: %s", r.Name)
		}
		data = append(data, r.Pos)
	}

	for _, d := range data {
		if _, c := d.Dims(); c < 2 {
			return nil, fmt.Errorf("invalid data dimensions")
		}
	}

	p := plot.New()

	p.Title.Text = "Geometry"
	p.X.Label.Text = "X [m]"
	p.Y.Label.Text = "Y [m]"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend
	p.Add(plotter.NewGrid())

	for i, r := range receivers {
		line, err := plotter.NewLine(makePoints(r.Pos))
		if err != nil {
			return nil, fmt.Errorf("failed to create track %s: %w", r.Name, err)
		}
		line.LineStyle.Color = palette[i%len(palette)]
		line.LineStyle.Width = vg.Points(1.5)

		p.Add(line)
		p.Legend.Add(r.Name, line)
	}

	emitterScatter, err := plotter.NewScatter(makePoints(emitter))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %w", err)
	}
	emitterScatter.GlyphStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	emitterScatter.Shape = draw.PyramidGlyph{}
	emitterScatter.GlyphStyle.Radius = vg.Points(4)

	p.Add(emitterScatter)
	p.Legend.Add("emitter", emitterScatter)

	if estimates != nil {
		estScatter, err := plotter.NewScatter(makePoints(estimates))
		if err != nil {
			return nil, fmt.Errorf("failed to create scatter: %w", err)
		}
		estScatter.GlyphStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
		estScatter.Shape = draw.CrossGlyph{}
		estScatter.GlyphStyle.Radius = vg.Points(2)

		p.Add(estScatter)
		p.Legend.Add("estimate", estScatter)
	}

	return p, nil
}

// NewConvergence creates plot of weighted residual norms per solver iteration.
// It returns error if norms is empty or the plot fails to be created.
func NewConvergence(norms []float64) (*plot.Plot, error) {
	if len(norms) == 0 {
		return nil, fmt.Errorf("invalid data supplied")
	}

	pts := make(plotter.XYs, len(norms))
	for i, n := range norms {
		pts[i].X = float64(i)
		pts[i].Y = n
	}

	p := plot.New()

	p.Title.Text = "Convergence"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Residual norm"
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}
	points.Shape = draw.CircleGlyph{}

	p.Add(line, points)

	return p, nil
}

func makePoints(m *mat.Dense) plotter.XYs {
	r, _ := m.Dims()
	pts := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		pts[i].X = m.At(i, 0)
		pts[i].Y = m.At(i, 1)
	}

	return pts
}
