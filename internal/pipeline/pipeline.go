// Package pipeline assembles aligned observation series into latent heat
// flux estimates, per station-hour or per pixel over a windowed grid.
package pipeline

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/urbanflux/fluxmap/internal/grid"
	"github.com/urbanflux/fluxmap/internal/metrics"
	"github.com/urbanflux/fluxmap/internal/models"
	"github.com/urbanflux/fluxmap/internal/phys"
	"github.com/urbanflux/fluxmap/internal/store"
)

// Config holds the run parameters that are inputs to the retrieval rather
// than calibration constants. AeroResistance is supplied by the momentum
// model upstream; SoilMoistureMax is the saturation water content of the
// domain's soil, an explicit parameter so the flux of a pixel never
// depends on what else happens to be in the batch.
type Config struct {
	Calibration     phys.Calibration
	AeroResistance  float64 // s/m
	SoilMoistureMax float64 // m3/m3
	Verbose         bool
}

func DefaultConfig() Config {
	return Config{
		Calibration:     phys.DefaultCalibration(),
		AeroResistance:  50,
		SoilMoistureMax: 0.4,
	}
}

type Runner struct {
	store *store.Store
	cfg   Config
}

func NewRunner(st *store.Store, cfg Config) *Runner {
	return &Runner{store: st, cfg: cfg}
}

// hourlySeries is the set of aligned input series for one station window.
type hourlySeries struct {
	start time.Time
	hours int

	airTemp     []sql.NullFloat64
	surfaceTemp []sql.NullFloat64
	dewpoint    []sql.NullFloat64
	pressure    []sql.NullFloat64
	solarDown   []sql.NullFloat64
	soilMoist   []sql.NullFloat64
	lai         []sql.NullFloat64
}

// ComputeStation aligns a station's cached observations onto the hourly
// grid over [start, end], computes flux per hour, and writes the results.
// Hours with any required input missing produce a missing flux value, not
// an error and not zero. Soil moisture and LAI come from daily satellite
// products, so interior gaps in those series are interpolated before the
// flux pass; the instantaneous meteorological fields are not.
func (r *Runner) ComputeStation(stationID string, start, end time.Time) ([]models.FluxRecord, error) {
	obs, err := r.store.GetObservations(stationID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}

	s := alignSeries(obs, start, end)
	s.soilMoist = grid.Interpolate(s.soilMoist)
	s.lai = grid.Interpolate(s.lai)

	records := make([]models.FluxRecord, s.hours)
	for i := 0; i < s.hours; i++ {
		ts := s.start.Add(time.Duration(i) * time.Hour)
		rec := models.FluxRecord{StationID: stationID, Timestamp: ts}

		flux, ok, err := r.fluxAt(s, i)
		if err != nil {
			return nil, fmt.Errorf("flux at %s: %w", ts, err)
		}
		if ok {
			rec.Flux = sql.NullFloat64{Float64: flux, Valid: true}
			metrics.FluxComputed.WithLabelValues("ok").Inc()
		} else {
			metrics.FluxComputed.WithLabelValues("missing").Inc()
		}
		records[i] = rec

		if err := r.store.UpsertFlux(rec); err != nil {
			return nil, fmt.Errorf("store flux: %w", err)
		}
	}

	if r.cfg.Verbose {
		valid := 0
		for _, rec := range records {
			if rec.Flux.Valid {
				valid++
			}
		}
		log.Printf("pipeline: %s: %d/%d hours with flux", stationID, valid, len(records))
	}
	return records, nil
}

// fluxAt evaluates one hour. ok is false when an input is missing; a
// returned error means the inputs were present but non-physical, which is
// a data defect worth failing loudly on.
func (r *Runner) fluxAt(s hourlySeries, i int) (float64, bool, error) {
	required := []sql.NullFloat64{
		s.airTemp[i], s.dewpoint[i], s.pressure[i],
		s.solarDown[i], s.soilMoist[i], s.lai[i],
	}
	for _, v := range required {
		if !v.Valid {
			return 0, false, nil
		}
	}

	// Without a satellite LST for the hour, the surface path degenerates
	// to the air temperature (zero surface-air humidity gradient).
	surface := s.airTemp[i].Float64
	if s.surfaceTemp[i].Valid {
		surface = s.surfaceTemp[i].Float64
	}

	flux, err := r.cfg.Calibration.LatentHeatFlux(phys.FluxInputs{
		SurfaceTemp:     surface,
		AirTemp:         s.airTemp[i].Float64,
		Dewpoint:        s.dewpoint[i].Float64,
		Pressure:        s.pressure[i].Float64,
		AeroResistance:  r.cfg.AeroResistance,
		SoilMoisture:    s.soilMoist[i].Float64,
		SolarDown:       s.solarDown[i].Float64,
		LeafAreaIndex:   s.lai[i].Float64,
		SoilMoistureMax: r.cfg.SoilMoistureMax,
	})
	if err != nil {
		return 0, false, err
	}
	return flux, true, nil
}

func alignSeries(obs []models.Observation, start, end time.Time) hourlySeries {
	pick := func(f func(models.Observation) sql.NullFloat64) []grid.Sample {
		samples := make([]grid.Sample, len(obs))
		for i, o := range obs {
			samples[i] = grid.Sample{Time: o.ObservedAt, Value: f(o)}
		}
		return samples
	}

	s := hourlySeries{start: start.UTC().Truncate(time.Hour)}
	s.airTemp = grid.AlignHourly(pick(func(o models.Observation) sql.NullFloat64 { return o.Temp }), start, end)
	s.surfaceTemp = grid.AlignHourly(pick(func(o models.Observation) sql.NullFloat64 { return o.SurfaceTemp }), start, end)
	s.dewpoint = grid.AlignHourly(pick(func(o models.Observation) sql.NullFloat64 { return o.Dewpoint }), start, end)
	s.pressure = grid.AlignHourly(pick(func(o models.Observation) sql.NullFloat64 { return o.Pressure }), start, end)
	s.solarDown = grid.AlignHourly(pick(func(o models.Observation) sql.NullFloat64 { return o.SolarRadiation }), start, end)
	s.soilMoist = grid.AlignHourly(pick(func(o models.Observation) sql.NullFloat64 { return o.SoilMoisture }), start, end)
	s.lai = grid.AlignHourly(pick(func(o models.Observation) sql.NullFloat64 { return o.LeafAreaIndex }), start, end)
	s.hours = len(s.airTemp)
	return s
}
