package chart

import (
	"bytes"
	"testing"
	"time"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestNewRendererAppliesDefaults(t *testing.T) {
	r := NewRenderer(Config{})
	if r.cfg.Width != 800 {
		t.Errorf("default Width = %d, want 800", r.cfg.Width)
	}
	if r.cfg.Height != 400 {
		t.Errorf("default Height = %d, want 400", r.cfg.Height)
	}
}

func TestNewRendererKeepsExplicitConfig(t *testing.T) {
	r := NewRenderer(Config{Width: 1024, Height: 768})
	if r.cfg.Width != 1024 || r.cfg.Height != 768 {
		t.Errorf("cfg = %+v, want {1024 768}", r.cfg)
	}
}

func TestRenderSeriesProducesValidPNG(t *testing.T) {
	r := NewRenderer(Config{Width: 200, Height: 100})
	now := time.Now()
	points := []Point{
		{Time: now, Value: 100},
		{Time: now.Add(time.Hour), Value: 105},
		{Time: now.Add(2 * time.Hour), Value: 98},
	}

	png, err := r.RenderSeries("BTC Price", "USD", points)
	if err != nil {
		t.Fatalf("RenderSeries() error = %v, want nil", err)
	}
	if len(png) == 0 {
		t.Fatal("RenderSeries() returned empty PNG bytes")
	}
	if !bytes.HasPrefix(png, pngSignature) {
		t.Error("RenderSeries() output does not start with the PNG signature")
	}
}

func TestRenderSeriesHandlesEmptyPoints(t *testing.T) {
	r := NewRenderer(Config{Width: 200, Height: 100})
	png, err := r.RenderSeries("Empty", "USD", nil)
	if err != nil {
		t.Fatalf("RenderSeries() with no points error = %v, want nil", err)
	}
	if !bytes.HasPrefix(png, pngSignature) {
		t.Error("RenderSeries() with no points did not produce a valid PNG")
	}
}

func TestRenderCombinedProducesValidPNG(t *testing.T) {
	r := NewRenderer(Config{Width: 200, Height: 100})
	now := time.Now()
	series := map[string][]Point{
		"btc": {{Time: now, Value: 100}, {Time: now.Add(time.Hour), Value: 110}},
		"eth": {{Time: now, Value: 10}, {Time: now.Add(time.Hour), Value: 12}},
	}

	png, err := r.RenderCombined("Overview", series)
	if err != nil {
		t.Fatalf("RenderCombined() error = %v, want nil", err)
	}
	if !bytes.HasPrefix(png, pngSignature) {
		t.Error("RenderCombined() output does not start with the PNG signature")
	}
}
