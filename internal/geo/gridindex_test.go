package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/urbanflux/fluxmap/internal/models"
)

// meshgrid builds a regular lat/lon grid like a satellite granule's
// coordinate arrays.
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

func TestGridIndexMatchesBruteForce(t *testing.T) {
	lats, lons := meshgrid(36.0, 37.0, -98.0, -97.0, 40, 50)
	idx, err := NewGridIndex(lats, lons)
	if err != nil {
		t.Fatalf("NewGridIndex: %v", err)
	}

	queries := []models.Coordinate{
		{Latitude: 36.6058, Longitude: -97.4888},
		{Latitude: 36.0, Longitude: -98.0},
		{Latitude: 37.0, Longitude: -97.0},
		{Latitude: 36.49, Longitude: -97.51},
	}

	for _, q := range queries {
		row, col, meters, err := idx.Nearest(q)
		if err != nil {
			t.Fatalf("Nearest(%v): %v", q, err)
		}

		bestD := math.Inf(1)
		bestRow, bestCol := -1, -1
		for i := range lats {
			for j := range lats[i] {
				d := Distance(q, models.Coordinate{Latitude: lats[i][j], Longitude: lons[i][j]})
				if d < bestD {
					bestD, bestRow, bestCol = d, i, j
				}
			}
		}

		got := Distance(q, models.Coordinate{Latitude: lats[row][col], Longitude: lons[row][col]})
		if math.Abs(got-bestD) > 1e-6 {
			t.Errorf("Nearest(%v) = (%d,%d) at %v m, brute force (%d,%d) at %v m",
				q, row, col, got, bestRow, bestCol, bestD)
		}
		if math.Abs(meters-bestD) > 1.0 {
			t.Errorf("reported distance %v m, want %v m", meters, bestD)
		}
	}
}

func TestGridIndexSkipsMaskedPixels(t *testing.T) {
	lats, lons := meshgrid(36.0, 37.0, -98.0, -97.0, 5, 5)
	// Mask the pixel a query would otherwise hit.
	lats[2][2] = math.NaN()
	lons[2][2] = math.NaN()

	idx, err := NewGridIndex(lats, lons)
	if err != nil {
		t.Fatalf("NewGridIndex: %v", err)
	}

	row, col, _, err := idx.Nearest(models.Coordinate{Latitude: 36.5, Longitude: -97.5})
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if row == 2 && col == 2 {
		t.Error("Nearest returned masked pixel")
	}
}

func TestGridIndexErrors(t *testing.T) {
	if _, err := NewGridIndex(nil, nil); !errors.Is(err, ErrEmptyCandidateSet) {
		t.Errorf("empty grid err = %v, want ErrEmptyCandidateSet", err)
	}

	lats, lons := meshgrid(36.0, 37.0, -98.0, -97.0, 3, 3)
	idx, err := NewGridIndex(lats, lons)
	if err != nil {
		t.Fatalf("NewGridIndex: %v", err)
	}
	if _, _, _, err := idx.Nearest(models.Coordinate{Latitude: math.NaN(), Longitude: 0}); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("nan query err = %v, want ErrInvalidCoordinate", err)
	}
}
