package models

import (
	"database/sql"
	"time"
)

// Coordinate is a WGS84-equivalent spherical (lat, lon) pair in degrees.
// Altitude is not modelled.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Station is a ground observation site. Network identifies the source
// archive ("asos" or "ameriflux"); UTCOffsetHours is the shift applied to
// raw log timestamps to normalise them to UTC at ingestion.
type Station struct {
	StationID      string
	Name           string
	Network        string // "asos" or "ameriflux"
	Latitude       float64
	Longitude      float64
	Elevation      float64
	UTCOffsetHours int
	Active         bool
}

func (s Station) Coordinate() Coordinate {
	return Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Observation is one hourly record for a station, timestamped UTC.
// Temperatures are Kelvin, pressure hPa, wind m/s, soil moisture m3/m3,
// solar radiation W/m2. Fields a source does not report stay invalid;
// -9999 sentinels and unit conversions are handled at the ingestion
// boundary, so anything Valid here is already in physical units.
type Observation struct {
	ID             int64
	StationID      string
	ObservedAt     time.Time
	Temp           sql.NullFloat64
	SurfaceTemp    sql.NullFloat64 // satellite land surface temperature for the station's pixel
	Dewpoint       sql.NullFloat64
	Pressure       sql.NullFloat64
	WindSpeed      sql.NullFloat64
	SolarRadiation sql.NullFloat64
	SoilMoisture   sql.NullFloat64
	LeafAreaIndex  sql.NullFloat64
	LatentHeat     sql.NullFloat64 // measured Q_E where the site reports it, for validation
	SensibleHeat   sql.NullFloat64 // measured Q_H
	CreatedAt      time.Time
}

// FluxRecord is a computed latent heat flux value for a station and hour.
// Flux is invalid when any required input for that hour was missing.
type FluxRecord struct {
	ID        int64
	StationID string
	Timestamp time.Time
	Flux      sql.NullFloat64 // W/m2
	CreatedAt time.Time
}
