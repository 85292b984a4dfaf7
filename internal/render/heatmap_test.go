package render

import (
	"bytes"
	"database/sql"
	"image/png"
	"testing"
)

func value(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func TestHeatmapDimensions(t *testing.T) {
	field := [][]sql.NullFloat64{
		{value(0), value(100), value(200)},
		{value(50), sql.NullFloat64{}, value(150)},
	}

	img := Heatmap(field, Options{Title: "test"})
	b := img.Bounds()

	wantW := 3*cellSize + marginW + colorbarW
	wantH := 2*cellSize + titleH
	if b.Dx() != wantW || b.Dy() != wantH {
		t.Errorf("image %dx%d, want %dx%d", b.Dx(), b.Dy(), wantW, wantH)
	}
}

func TestHeatmapMissingCellsGrey(t *testing.T) {
	field := [][]sql.NullFloat64{
		{value(0), sql.NullFloat64{}},
	}

	img := Heatmap(field, Options{Min: 0, Max: 1})

	// Sample the center of each cell.
	got := img.RGBAAt(cellSize+cellSize/2, titleH+cellSize/2)
	if got != missingGrey {
		t.Errorf("missing cell color = %+v, want %+v", got, missingGrey)
	}
	valid := img.RGBAAt(cellSize/2, titleH+cellSize/2)
	if valid == missingGrey {
		t.Error("valid cell rendered as missing grey")
	}
}

func TestHeatmapNegativeFluxDistinctFromMissing(t *testing.T) {
	// Condensation hours must render on the ramp, not as gaps.
	field := [][]sql.NullFloat64{
		{value(-40), value(400)},
	}

	img := Heatmap(field, Options{})
	neg := img.RGBAAt(cellSize/2, titleH+cellSize/2)
	if neg == missingGrey {
		t.Error("negative flux rendered as missing")
	}
	pos := img.RGBAAt(cellSize+cellSize/2, titleH+cellSize/2)
	if neg == pos {
		t.Error("scale extremes rendered identically")
	}
}

func TestHeatmapAllMissing(t *testing.T) {
	field := [][]sql.NullFloat64{
		{{}, {}},
		{{}, {}},
	}

	// Must not panic or divide by zero when there is nothing to scale.
	img := Heatmap(field, Options{})
	if img.Bounds().Empty() {
		t.Error("all-missing field produced empty image")
	}
}

func TestWritePNG(t *testing.T) {
	field := [][]sql.NullFloat64{
		{value(10), value(20)},
		{value(30), sql.NullFloat64{}},
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, field, Options{Title: "Latent heat flux"}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if decoded.Bounds().Empty() {
		t.Error("decoded image empty")
	}
}
