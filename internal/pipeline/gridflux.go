package pipeline

import (
	"database/sql"
	"sync"

	"github.com/urbanflux/fluxmap/internal/metrics"
	"github.com/urbanflux/fluxmap/internal/phys"
)

// GridInputs are the gridded and scalar inputs for one timestep. The
// gridded fields come from satellite products windowed to a common shape;
// air temperature, dewpoint, and pressure are station scalars applied
// across the domain, as in the single-tower retrieval setup.
type GridInputs struct {
	SurfaceTemp  [][]sql.NullFloat64 // land surface temperature, K
	SoilMoisture [][]sql.NullFloat64 // m3/m3
	SolarDown    [][]sql.NullFloat64 // W/m2
	LAI          [][]sql.NullFloat64

	AirTemp  float64 // K
	Dewpoint float64 // K
	Pressure float64 // hPa
}

// ComputeGrid evaluates the flux field for one timestep. Cells are
// independent, so rows are computed in parallel; a cell with any missing
// input yields a missing flux. Non-physical inputs abort the whole field:
// they indicate an upstream ingestion bug, not weather.
func (r *Runner) ComputeGrid(in GridInputs) ([][]sql.NullFloat64, error) {
	rows := len(in.SurfaceTemp)
	out := make([][]sql.NullFloat64, rows)

	var wg sync.WaitGroup
	errs := make([]error, rows)
	for i := 0; i < rows; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = make([]sql.NullFloat64, len(in.SurfaceTemp[i]))
			for j := range in.SurfaceTemp[i] {
				flux, ok, err := r.cellFlux(in, i, j)
				if err != nil {
					errs[i] = err
					return
				}
				if ok {
					out[i][j] = sql.NullFloat64{Float64: flux, Valid: true}
					metrics.FluxComputed.WithLabelValues("ok").Inc()
				} else {
					metrics.FluxComputed.WithLabelValues("missing").Inc()
				}
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Runner) cellFlux(in GridInputs, i, j int) (float64, bool, error) {
	st := in.SurfaceTemp[i][j]
	sm := cellAt(in.SoilMoisture, i, j)
	sd := cellAt(in.SolarDown, i, j)
	lai := cellAt(in.LAI, i, j)
	if !st.Valid || !sm.Valid || !sd.Valid || !lai.Valid {
		return 0, false, nil
	}

	flux, err := r.cfg.Calibration.LatentHeatFlux(phys.FluxInputs{
		SurfaceTemp:     st.Float64,
		AirTemp:         in.AirTemp,
		Dewpoint:        in.Dewpoint,
		Pressure:        in.Pressure,
		AeroResistance:  r.cfg.AeroResistance,
		SoilMoisture:    sm.Float64,
		SolarDown:       sd.Float64,
		LeafAreaIndex:   lai.Float64,
		SoilMoistureMax: r.cfg.SoilMoistureMax,
	})
	if err != nil {
		return 0, false, err
	}
	return flux, true, nil
}

// cellAt tolerates ragged or differently-truncated product grids by
// treating out-of-range cells as missing.
func cellAt(g [][]sql.NullFloat64, i, j int) sql.NullFloat64 {
	if i >= len(g) || j >= len(g[i]) {
		return sql.NullFloat64{}
	}
	return g[i][j]
}
