package geo

import (
	"math"
	"sort"

	"github.com/urbanflux/fluxmap/internal/models"
)

// GridIndex answers nearest-pixel queries against a satellite product's
// lat/lon meshgrid. Granule grids run to tens of thousands of points, so a
// linear scan per query is too slow; the index is a static k-d tree over
// unit-sphere positions, where chord distance orders the same as
// great-circle distance.
type GridIndex struct {
	nodes []gridNode
	root  int
	rows  int
	cols  int
}

type gridNode struct {
	x, y, z  float64
	row, col int
	left     int // node indices, -1 for none
	right    int
	axis     int
}

// NewGridIndex builds an index over meshgrid latitude/longitude arrays.
// lats and lons must have identical shape; entries with NaN coordinates
// (masked pixels beyond the product edge) are skipped.
func NewGridIndex(lats, lons [][]float64) (*GridIndex, error) {
	if len(lats) == 0 || len(lats) != len(lons) {
		return nil, ErrEmptyCandidateSet
	}

	var nodes []gridNode
	for i := range lats {
		if len(lats[i]) != len(lons[i]) {
			return nil, ErrInvalidCoordinate
		}
		for j := range lats[i] {
			if math.IsNaN(lats[i][j]) || math.IsNaN(lons[i][j]) {
				continue
			}
			x, y, z := toUnitSphere(lats[i][j], lons[i][j])
			nodes = append(nodes, gridNode{x: x, y: y, z: z, row: i, col: j, left: -1, right: -1})
		}
	}
	if len(nodes) == 0 {
		return nil, ErrEmptyCandidateSet
	}

	idx := &GridIndex{nodes: nodes, rows: len(lats), cols: len(lats[0])}
	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	idx.root = idx.build(order, 0)
	return idx, nil
}

// Shape returns the row and column extent of the indexed source grid.
func (g *GridIndex) Shape() (rows, cols int) {
	return g.rows, g.cols
}

func toUnitSphere(lat, lon float64) (x, y, z float64) {
	p := math.Pi / 180
	return math.Cos(lat*p) * math.Cos(lon*p), math.Cos(lat*p) * math.Sin(lon*p), math.Sin(lat * p)
}

func coord(n *gridNode, axis int) float64 {
	switch axis {
	case 0:
		return n.x
	case 1:
		return n.y
	default:
		return n.z
	}
}

// build arranges order into a k-d tree by median split and returns the
// root's node index.
func (g *GridIndex) build(order []int, depth int) int {
	if len(order) == 0 {
		return -1
	}
	axis := depth % 3
	sort.Slice(order, func(a, b int) bool {
		return coord(&g.nodes[order[a]], axis) < coord(&g.nodes[order[b]], axis)
	})
	mid := len(order) / 2
	root := order[mid]
	g.nodes[root].axis = axis
	g.nodes[root].left = g.build(order[:mid], depth+1)
	g.nodes[root].right = g.build(order[mid+1:], depth+1)
	return root
}

// Nearest returns the (row, col) of the grid pixel closest to query, along
// with the great-circle distance in meters.
func (g *GridIndex) Nearest(query models.Coordinate) (row, col int, meters float64, err error) {
	if !validCoordinate(query) {
		return 0, 0, 0, ErrInvalidCoordinate
	}
	qx, qy, qz := toUnitSphere(query.Latitude, query.Longitude)

	bestIdx := -1
	bestSq := math.Inf(1)
	g.search(g.root, qx, qy, qz, &bestIdx, &bestSq)
	if bestIdx < 0 {
		return 0, 0, 0, ErrEmptyCandidateSet
	}

	n := &g.nodes[bestIdx]
	// Chord to great-circle arc: d = 2R asin(chord/2).
	chord := math.Sqrt(bestSq)
	return n.row, n.col, 2 * EarthRadius * math.Asin(chord/2), nil
}

func (g *GridIndex) search(idx int, qx, qy, qz float64, bestIdx *int, bestSq *float64) {
	if idx < 0 {
		return
	}
	n := &g.nodes[idx]
	dx, dy, dz := n.x-qx, n.y-qy, n.z-qz
	if sq := dx*dx + dy*dy + dz*dz; sq < *bestSq {
		*bestSq = sq
		*bestIdx = idx
	}

	var q float64
	switch n.axis {
	case 0:
		q = qx
	case 1:
		q = qy
	default:
		q = qz
	}
	delta := q - coord(n, n.axis)
	near, far := n.left, n.right
	if delta > 0 {
		near, far = far, near
	}
	g.search(near, qx, qy, qz, bestIdx, bestSq)
	if delta*delta < *bestSq {
		g.search(far, qx, qy, qz, bestIdx, bestSq)
	}
}
