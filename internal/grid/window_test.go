package grid

import (
	"testing"

	"github.com/urbanflux/fluxmap/internal/geo"
)

func meshgrid(latLo, latHi, lonLo, lonHi float64, rows, cols int) (lats, lons [][]float64) {
	lats = make([][]float64, rows)
	lons = make([][]float64, rows)
	for i := 0; i < rows; i++ {
		lats[i] = make([]float64, cols)
		lons[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			lats[i][j] = latLo + (latHi-latLo)*float64(i)/float64(rows-1)
			lons[i][j] = lonLo + (lonHi-lonLo)*float64(j)/float64(cols-1)
		}
	}
	return lats, lons
}

func TestBoundWindowSquareTruncation(t *testing.T) {
	// 0.05-degree pixels: a 0.5 x 1.0 degree box covers more columns than
	// rows, so the window must come back square.
	lats, lons := meshgrid(36.0, 38.0, -99.0, -96.0, 41, 61)
	idx, err := geo.NewGridIndex(lats, lons)
	if err != nil {
		t.Fatalf("NewGridIndex: %v", err)
	}

	w, err := BoundWindow(idx, Bounds{MinLat: 36.5, MaxLat: 37.0, MinLon: -98.0, MaxLon: -97.0})
	if err != nil {
		t.Fatalf("BoundWindow: %v", err)
	}

	if w.Rows() != w.Cols() {
		t.Errorf("window %dx%d, want square", w.Rows(), w.Cols())
	}
	if w.Rows() <= 0 {
		t.Errorf("window rows = %d, want positive", w.Rows())
	}
	if w.RowLo < 0 || w.RowHi > 41 || w.ColLo < 0 || w.ColHi > 61 {
		t.Errorf("window %+v out of grid bounds", w)
	}
}

func TestBoundWindowCornerOrdering(t *testing.T) {
	// Satellite grids often scan north to south: row 0 is the highest
	// latitude. The window must still order its indices low to high.
	lats, lons := meshgrid(38.0, 36.0, -99.0, -96.0, 41, 61)
	idx, err := geo.NewGridIndex(lats, lons)
	if err != nil {
		t.Fatalf("NewGridIndex: %v", err)
	}

	w, err := BoundWindow(idx, Bounds{MinLat: 36.5, MaxLat: 37.5, MinLon: -98.0, MaxLon: -97.0})
	if err != nil {
		t.Fatalf("BoundWindow: %v", err)
	}
	if w.RowLo >= w.RowHi || w.ColLo >= w.ColHi {
		t.Errorf("window %+v not ordered", w)
	}
}

func TestBoundWindowInvalidBox(t *testing.T) {
	lats, lons := meshgrid(36.0, 38.0, -99.0, -96.0, 11, 11)
	idx, err := geo.NewGridIndex(lats, lons)
	if err != nil {
		t.Fatalf("NewGridIndex: %v", err)
	}

	if _, err := BoundWindow(idx, Bounds{MinLat: 200, MaxLat: 37, MinLon: -98, MaxLon: -97}); err == nil {
		t.Error("out-of-range box accepted")
	}
}
