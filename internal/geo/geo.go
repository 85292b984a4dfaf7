// Package geo resolves coordinates against station lists and satellite
// pixel grids using great-circle distance on a spherical Earth.
package geo

import (
	"errors"
	"math"

	"github.com/urbanflux/fluxmap/internal/models"
)

// EarthRadius is the GRS80 semi-major axis in meters, per the GOES-16
// PUG-L2 (Volume 5, Table 4.2.8). A spherical approximation, not the
// ellipsoidal geodesic.
const EarthRadius = 6378137.0

var (
	ErrEmptyCandidateSet = errors.New("geo: empty candidate set")
	ErrInvalidCoordinate = errors.New("geo: invalid coordinate")
)

// Candidate is a station or grid pixel eligible for nearest-neighbor search.
type Candidate struct {
	ID    string
	Coord models.Coordinate
}

// Distance returns the great-circle distance between two coordinates in
// meters. Symmetric, non-negative, zero only for coincident points.
func Distance(a, b models.Coordinate) float64 {
	p := math.Pi / 180
	h := 0.5 - math.Cos((b.Latitude-a.Latitude)*p)/2 +
		math.Cos(a.Latitude*p)*math.Cos(b.Latitude*p)*(1-math.Cos((b.Longitude-a.Longitude)*p))/2
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

func validCoordinate(c models.Coordinate) bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// NearestSite returns the candidate closest to query and its distance in
// meters. Ties resolve to the earliest candidate in input order (strict
// less-than against the running minimum).
func NearestSite(query models.Coordinate, candidates []Candidate) (string, float64, error) {
	if !validCoordinate(query) {
		return "", 0, ErrInvalidCoordinate
	}
	if len(candidates) == 0 {
		return "", 0, ErrEmptyCandidateSet
	}

	// Initial bound just above any possible great-circle distance. A NaN
	// candidate distance never compares below it, so a set of entirely
	// degenerate candidates leaves the minimum untouched.
	best := 2 * math.Pi * EarthRadius
	bestID := ""
	found := false
	for _, c := range candidates {
		if d := Distance(query, c.Coord); d < best {
			best = d
			bestID = c.ID
			found = true
		}
	}
	if !found {
		return "", 0, ErrEmptyCandidateSet
	}
	return bestID, best, nil
}
