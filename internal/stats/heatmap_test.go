package stats

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
)

func TestInfernoEndpointsAndClamp(t *testing.T) {
	if Inferno(0) != infernoStops[0] || Inferno(-1) != infernoStops[0] {
		t.Fatalf("low end not clamped: %v", Inferno(-1))
	}
	last := infernoStops[len(infernoStops)-1]
	if Inferno(1) != last || Inferno(2) != last {
		t.Fatalf("high end not clamped: %v", Inferno(2))
	}
	prev := luma(Inferno(0))
	for i := 1; i <= 10; i++ {
		cur := luma(Inferno(float64(i) / 10))
		if cur < prev {
			t.Fatalf("ramp is not monotone in brightness at step %d", i)
		}
		prev = cur
	}
}

func luma(c color.RGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func TestRenderHeatmapPNG(t *testing.T) {
	sweep := sampleSweep()
	var buf bytes.Buffer
	if err := RenderHeatmapPNG(&buf, sweep); err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	bounds := img.Bounds()
	wantW := heatmapLeft + 3*heatmapCellW + heatmapBarGap + heatmapBarW + heatmapBarText
	wantH := heatmapTop + 2*heatmapCellH + heatmapBottom
	if bounds.Dx() != wantW || bounds.Dy() != wantH {
		t.Fatalf("unexpected size %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), wantW, wantH)
	}

	// Row 1 sits on top; its middle column holds the minimum and its last
	// column the maximum. Sample near the cell's top-right corner, away from
	// the label.
	minX := heatmapLeft + 1*heatmapCellW + heatmapCellW - 3
	maxX := heatmapLeft + 2*heatmapCellW + heatmapCellW - 3
	y := heatmapTop + 1
	if got := color.RGBAModel.Convert(img.At(minX, y)).(color.RGBA); got != Inferno(0) {
		t.Fatalf("min cell colour = %v, want %v", got, Inferno(0))
	}
	if got := color.RGBAModel.Convert(img.At(maxX, y)).(color.RGBA); got != Inferno(1) {
		t.Fatalf("max cell colour = %v, want %v", got, Inferno(1))
	}
}

func TestRenderHeatmapPNGRejectsEmptySweep(t *testing.T) {
	sweep := sampleSweep()
	sweep.Chis = nil
	if err := RenderHeatmapPNG(&bytes.Buffer{}, sweep); err == nil {
		t.Fatal("expected error for empty sweep")
	}
}
