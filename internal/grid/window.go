package grid

import (
	"github.com/urbanflux/fluxmap/internal/geo"
	"github.com/urbanflux/fluxmap/internal/models"
)

// Bounds is a lat/lon bounding box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Window is a half-open rectangular index slice into a source grid:
// rows [RowLo, RowHi), columns [ColLo, ColHi).
type Window struct {
	RowLo, RowHi int
	ColLo, ColHi int
}

func (w Window) Rows() int { return w.RowHi - w.RowLo }
func (w Window) Cols() int { return w.ColHi - w.ColLo }

// BoundWindow resolves a bounding box to the minimal index slice of the
// indexed source grid covering it, by locating the grid pixels nearest the
// two box corners. The slice is then trimmed square (excess rows or
// columns dropped from the high end) so downstream arrays stay consistent
// across granules with irregular shapes.
func BoundWindow(idx *geo.GridIndex, box Bounds) (Window, error) {
	loRow, loCol, _, err := idx.Nearest(models.Coordinate{Latitude: box.MinLat, Longitude: box.MinLon})
	if err != nil {
		return Window{}, err
	}
	hiRow, hiCol, _, err := idx.Nearest(models.Coordinate{Latitude: box.MaxLat, Longitude: box.MaxLon})
	if err != nil {
		return Window{}, err
	}

	// Grid row order follows the product's scan direction, so the corner
	// nearest MinLat is not necessarily the lower row index.
	if loRow > hiRow {
		loRow, hiRow = hiRow, loRow
	}
	if loCol > hiCol {
		loCol, hiCol = hiCol, loCol
	}

	// The corner pixels themselves belong to the window; the slice is
	// half-open, so extend past them, clamped to the grid edge.
	rows, cols := idx.Shape()
	w := Window{RowLo: loRow, RowHi: min(hiRow+1, rows), ColLo: loCol, ColHi: min(hiCol+1, cols)}
	return w.squared(), nil
}

// squared trims the longer axis so the window is square.
func (w Window) squared() Window {
	if d := w.Rows() - w.Cols(); d > 0 {
		w.RowHi -= d
	} else if d < 0 {
		w.ColHi += d
	}
	return w
}
