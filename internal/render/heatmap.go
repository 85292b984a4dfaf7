// Package render draws computed flux fields as PNG maps: a color-ramped
// cell grid, grey missing-data cells, and a labelled colorbar.
package render

import (
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cellSize     = 8
	colorbarW    = 16
	marginW      = 64
	titleH       = 20
	colorbarTick = 5
)

var missingGrey = color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}

// viridis anchor colors, interpolated linearly in between.
var ramp = []color.RGBA{
	{0x44, 0x01, 0x54, 0xff},
	{0x3b, 0x52, 0x8b, 0xff},
	{0x21, 0x91, 0x8c, 0xff},
	{0x5e, 0xc9, 0x62, 0xff},
	{0xfd, 0xe7, 0x25, 0xff},
}

// Options configures a map rendering. Zero values auto-scale to the data.
type Options struct {
	Title    string
	Min, Max float64 // color scale bounds; both zero means auto
}

// Heatmap renders a flux field (row 0 at the top) into an RGBA image.
// Cells with missing flux draw grey so gaps stay visibly distinct from
// low flux. Negative values (condensation) sit at the low end of the
// ramp rather than being clipped to zero.
func Heatmap(field [][]sql.NullFloat64, opts Options) *image.RGBA {
	rows := len(field)
	cols := 0
	for _, r := range field {
		if len(r) > cols {
			cols = len(r)
		}
	}

	lo, hi := opts.Min, opts.Max
	if lo == 0 && hi == 0 {
		lo, hi = fieldRange(field)
	}

	w := cols*cellSize + marginW + colorbarW
	h := rows*cellSize + titleH
	if rows == 0 || cols == 0 {
		w, h = marginW+colorbarW, titleH+cellSize
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i := 0; i < rows; i++ {
		for j := 0; j < len(field[i]); j++ {
			c := missingGrey
			if field[i][j].Valid {
				c = rampColor(normalize(field[i][j].Float64, lo, hi))
			}
			cell := image.Rect(j*cellSize, titleH+i*cellSize, (j+1)*cellSize, titleH+(i+1)*cellSize)
			draw.Draw(img, cell, image.NewUniform(c), image.Point{}, draw.Src)
		}
	}

	drawColorbar(img, cols*cellSize+marginW/2, titleH, rows*cellSize, lo, hi)
	if opts.Title != "" {
		drawLabel(img, 4, 14, opts.Title)
	}
	return img
}

// WritePNG renders the field and encodes it to w.
func WritePNG(w io.Writer, field [][]sql.NullFloat64, opts Options) error {
	if err := png.Encode(w, Heatmap(field, opts)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func fieldRange(field [][]sql.NullFloat64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range field {
		for _, v := range row {
			if !v.Valid {
				continue
			}
			lo = math.Min(lo, v.Float64)
			hi = math.Max(hi, v.Float64)
		}
	}
	if math.IsInf(lo, 1) {
		// All missing: any bounds work, the ramp never gets sampled.
		return 0, 1
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

func normalize(v, lo, hi float64) float64 {
	t := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, t))
}

func rampColor(t float64) color.RGBA {
	pos := t * float64(len(ramp)-1)
	i := int(pos)
	if i >= len(ramp)-1 {
		return ramp[len(ramp)-1]
	}
	f := pos - float64(i)
	a, b := ramp[i], ramp[i+1]
	lerp := func(x, y uint8) uint8 { return uint8(float64(x) + f*(float64(y)-float64(x))) }
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 0xff}
}

func drawColorbar(img *image.RGBA, x, y, height int, lo, hi float64) {
	if height <= 0 {
		return
	}
	for dy := 0; dy < height; dy++ {
		// Top of the bar is the maximum.
		t := 1 - float64(dy)/float64(height-1)
		c := rampColor(t)
		for dx := 0; dx < colorbarW; dx++ {
			img.Set(x+dx, y+dy, c)
		}
	}
	drawLabel(img, x+colorbarW+colorbarTick, y+10, fmt.Sprintf("%.0f", hi))
	drawLabel(img, x+colorbarW+colorbarTick, y+height-2, fmt.Sprintf("%.0f", lo))
	drawLabel(img, x+colorbarW+colorbarTick, y+height/2+4, "W/m2")
}

func drawLabel(img *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
