// Package chart renders the PNG charts the AI client attaches to its
// prompts. Each chart renders independently so one bad series never
// takes down the rest of a render pass.
package chart

import (
	"bytes"
	"fmt"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Point is one (timestamp, value) sample.
type Point struct {
	Time  time.Time
	Value float64
}

// Config controls the rendered image dimensions.
type Config struct {
	Width  int
	Height int
}

// Renderer produces chart PNGs from time series.
type Renderer struct {
	cfg Config
}

func NewRenderer(cfg Config) *Renderer {
	if cfg.Width == 0 {
		cfg.Width = 800
	}
	if cfg.Height == 0 {
		cfg.Height = 400
	}
	return &Renderer{cfg: cfg}
}

// RenderSeries renders a single labeled line series to PNG.
func (r *Renderer) RenderSeries(title, yLabel string, points []Point) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = yLabel

	xys := make(plotter.XYs, len(points))
	t0 := time.Time{}
	if len(points) > 0 {
		t0 = points[0].Time
	}
	for i, pt := range points {
		xys[i].X = pt.Time.Sub(t0).Hours()
		xys[i].Y = pt.Value
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("build line plotter: %w", err)
	}
	p.Add(line)

	return renderPNG(p, r.cfg)
}

// RenderCombined renders several series on one chart for the
// macro-sentiment engine's combined overview chart.
func (r *Renderer) RenderCombined(title string, series map[string][]Point) ([]byte, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Legend.Top = true

	for name, points := range series {
		xys := make(plotter.XYs, len(points))
		t0 := time.Time{}
		if len(points) > 0 {
			t0 = points[0].Time
		}
		for i, pt := range points {
			xys[i].X = pt.Time.Sub(t0).Hours()
			xys[i].Y = pt.Value
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("build line plotter for %s: %w", name, err)
		}
		p.Add(line)
		p.Legend.Add(name, line)
	}

	return renderPNG(p, r.cfg)
}

func renderPNG(p *plot.Plot, cfg Config) ([]byte, error) {
	writer, err := p.WriterTo(vg.Length(cfg.Width), vg.Length(cfg.Height), "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
