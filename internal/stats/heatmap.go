package stats

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"pdcoea/internal/model"
)

const (
	heatmapCellW   = 56
	heatmapCellH   = 28
	heatmapLeft    = 64
	heatmapTop     = 36
	heatmapBottom  = 36
	heatmapBarGap  = 16
	heatmapBarW    = 16
	heatmapBarText = 64
)

var (
	heatmapBackground = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	heatmapInk        = color.RGBA{R: 30, G: 30, B: 36, A: 255}
)

// infernoStops approximates the inferno colour map from dark to bright.
var infernoStops = []color.RGBA{
	{R: 0, G: 0, B: 4, A: 255},
	{R: 40, G: 11, B: 84, A: 255},
	{R: 101, G: 21, B: 110, A: 255},
	{R: 159, G: 42, B: 99, A: 255},
	{R: 212, G: 72, B: 66, A: 255},
	{R: 245, G: 125, B: 21, A: 255},
	{R: 250, G: 193, B: 39, A: 255},
	{R: 252, G: 255, B: 164, A: 255},
}

// Inferno maps t in [0,1] onto the colour ramp. Values outside are clamped.
func Inferno(t float64) color.RGBA {
	if math.IsNaN(t) || t <= 0 {
		return infernoStops[0]
	}
	if t >= 1 {
		return infernoStops[len(infernoStops)-1]
	}
	pos := t * float64(len(infernoStops)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := infernoStops[i], infernoStops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

// RenderHeatmapPNG draws the mean evaluation count of every sweep cell with
// population sizes on the vertical axis and chi on the horizontal axis.
func RenderHeatmapPNG(w io.Writer, sweep model.SweepRecord) error {
	rows, cols := len(sweep.PopulationSizes), len(sweep.Chis)
	if rows == 0 || cols == 0 {
		return errors.New("sweep has no cells")
	}
	means := HeatmapMeans(sweep)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range means {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	scale := func(v float64) float64 {
		if hi <= lo {
			return 0.5
		}
		return (v - lo) / (hi - lo)
	}

	gridW, gridH := cols*heatmapCellW, rows*heatmapCellH
	width := heatmapLeft + gridW + heatmapBarGap + heatmapBarW + heatmapBarText
	height := heatmapTop + gridH + heatmapBottom
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(heatmapBackground), image.Point{}, draw.Src)

	drawLabel(img, heatmapLeft, 16, "mean payoff evaluations ("+sweep.Game+", n="+strconv.Itoa(sweep.N)+")", heatmapInk)

	// Row 0 is drawn at the bottom so population size grows upwards.
	for i := 0; i < rows; i++ {
		y0 := heatmapTop + (rows-1-i)*heatmapCellH
		for j := 0; j < cols; j++ {
			x0 := heatmapLeft + j*heatmapCellW
			fill := Inferno(scale(means[i][j]))
			rect := image.Rect(x0, y0, x0+heatmapCellW-1, y0+heatmapCellH-1)
			draw.Draw(img, rect, image.NewUniform(fill), image.Point{}, draw.Src)
			drawLabel(img, x0+4, y0+heatmapCellH/2+4, humanize.SIWithDigits(means[i][j], 1, ""), contrastInk(fill))
		}
		drawLabel(img, 8, y0+heatmapCellH/2+4, strconv.Itoa(sweep.PopulationSizes[i]), heatmapInk)
	}
	for j, chi := range sweep.Chis {
		x0 := heatmapLeft + j*heatmapCellW
		drawLabel(img, x0+4, heatmapTop+gridH+16, strconv.FormatFloat(chi, 'g', 3, 64), heatmapInk)
	}
	drawLabel(img, heatmapLeft, heatmapTop+gridH+30, "chi", heatmapInk)

	barX := heatmapLeft + gridW + heatmapBarGap
	for y := 0; y < gridH; y++ {
		fill := Inferno(1 - float64(y)/float64(max(gridH-1, 1)))
		for x := barX; x < barX+heatmapBarW; x++ {
			img.SetRGBA(x, heatmapTop+y, fill)
		}
	}
	drawLabel(img, barX+heatmapBarW+4, heatmapTop+10, humanize.SIWithDigits(hi, 1, ""), heatmapInk)
	drawLabel(img, barX+heatmapBarW+4, heatmapTop+gridH, humanize.SIWithDigits(lo, 1, ""), heatmapInk)

	return png.Encode(w, img)
}

func drawLabel(img draw.Image, x, y int, label string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

func contrastInk(bg color.RGBA) color.RGBA {
	luma := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if luma > 140 {
		return heatmapInk
	}
	return color.RGBA{R: 240, G: 240, B: 240, A: 255}
}
