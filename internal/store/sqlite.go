// Package store caches downloaded observations and computed flux results
// in a local sqlite database, so reruns over the same window do not hit
// the source archives again.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/urbanflux/fluxmap/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertStation(st models.Station) error {
	_, err := s.db.Exec(`
		INSERT INTO stations (station_id, name, network, latitude, longitude, elevation, utc_offset_hours, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			name = excluded.name,
			network = excluded.network,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			elevation = excluded.elevation,
			utc_offset_hours = excluded.utc_offset_hours,
			active = excluded.active
	`, st.StationID, st.Name, st.Network, st.Latitude, st.Longitude, st.Elevation, st.UTCOffsetHours, st.Active)
	return err
}

func (s *Store) GetActiveStations(network string) ([]models.Station, error) {
	rows, err := s.db.Query(`
		SELECT station_id, name, network, latitude, longitude, elevation, utc_offset_hours, active
		FROM stations
		WHERE active = TRUE AND (network = ? OR ? = '')
	`, network, network)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.StationID, &st.Name, &st.Network, &st.Latitude, &st.Longitude, &st.Elevation, &st.UTCOffsetHours, &st.Active); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

func (s *Store) GetStation(stationID string) (*models.Station, error) {
	row := s.db.QueryRow(`
		SELECT station_id, name, network, latitude, longitude, elevation, utc_offset_hours, active
		FROM stations WHERE station_id = ?
	`, stationID)

	var st models.Station
	err := row.Scan(&st.StationID, &st.Name, &st.Network, &st.Latitude, &st.Longitude, &st.Elevation, &st.UTCOffsetHours, &st.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) InsertObservation(obs models.Observation) error {
	_, err := s.db.Exec(`
		INSERT INTO observations (station_id, observed_at, temp, surface_temp, dewpoint, pressure, wind_speed, solar_radiation, soil_moisture, leaf_area_index, latent_heat, sensible_heat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, observed_at) DO NOTHING
	`, obs.StationID, obs.ObservedAt, obs.Temp, obs.SurfaceTemp, obs.Dewpoint, obs.Pressure, obs.WindSpeed, obs.SolarRadiation, obs.SoilMoisture, obs.LeafAreaIndex, obs.LatentHeat, obs.SensibleHeat)
	return err
}

// InsertObservations writes a batch in one transaction.
func (s *Store) InsertObservations(obs []models.Observation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO observations (station_id, observed_at, temp, surface_temp, dewpoint, pressure, wind_speed, solar_radiation, soil_moisture, leaf_area_index, latent_heat, sensible_heat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, observed_at) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.Exec(o.StationID, o.ObservedAt, o.Temp, o.SurfaceTemp, o.Dewpoint, o.Pressure, o.WindSpeed, o.SolarRadiation, o.SoilMoisture, o.LeafAreaIndex, o.LatentHeat, o.SensibleHeat); err != nil {
			return fmt.Errorf("insert observation %s %s: %w", o.StationID, o.ObservedAt, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetObservations(stationID string, start, end time.Time) ([]models.Observation, error) {
	rows, err := s.db.Query(`
		SELECT id, station_id, observed_at, temp, surface_temp, dewpoint, pressure, wind_speed, solar_radiation, soil_moisture, leaf_area_index, latent_heat, sensible_heat, created_at
		FROM observations
		WHERE station_id = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`, stationID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.ID, &o.StationID, &o.ObservedAt, &o.Temp, &o.SurfaceTemp, &o.Dewpoint, &o.Pressure, &o.WindSpeed, &o.SolarRadiation, &o.SoilMoisture, &o.LeafAreaIndex, &o.LatentHeat, &o.SensibleHeat, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) UpsertFlux(rec models.FluxRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO flux_results (station_id, timestamp, flux)
		VALUES (?, ?, ?)
		ON CONFLICT(station_id, timestamp) DO UPDATE SET flux = excluded.flux
	`, rec.StationID, rec.Timestamp, rec.Flux)
	return err
}

func (s *Store) GetFlux(stationID string, start, end time.Time) ([]models.FluxRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, station_id, timestamp, flux, created_at
		FROM flux_results
		WHERE station_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, stationID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FluxRecord
	for rows.Next() {
		var r models.FluxRecord
		if err := rows.Scan(&r.ID, &r.StationID, &r.Timestamp, &r.Flux, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
