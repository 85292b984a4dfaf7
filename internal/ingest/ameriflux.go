package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/urbanflux/fluxmap/internal/models"
)

// amerifluxMissing is the archive's null sentinel. Anything at or below it
// becomes a missing value, never a physical reading.
const amerifluxMissing = -9999

// Ameriflux BASE column sets. Tower sites export either position-qualified
// names or the plain set, so the reader falls back when the primary set is
// absent. See the AmeriFlux BASE README for the variable definitions.
var (
	amerifluxPrimaryCols = map[string]string{
		"TA_1_1_1":    "ta",
		"PA_1_1_1":    "pa",
		"RH_1_1_1":    "rh",
		"WS_1_1_1":    "ws",
		"SW_IN_1_1_1": "swin",
		"SWC_1_1_1":   "swc",
		"H_1_1_1":     "h",
		"LE_1_1_1":    "le",
		"USTAR_1_1_1": "ustar",
	}
	amerifluxFallbackCols = map[string]string{
		"TA":    "ta",
		"PA":    "pa",
		"RH":    "rh",
		"WS":    "ws",
		"SW_IN": "swin",
		"SWC":   "swc",
		"H":     "h",
		"LE":    "le",
		"USTAR": "ustar",
	}
)

// ParseSiteLog reads the Ameriflux site log CSV (Site, Latitude, Longitude
// columns among others) into station records.
func ParseSiteLog(r io.Reader) ([]models.Station, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("site log header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"Site", "Latitude", "Longitude"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("site log: missing column %s", name)
		}
	}

	var stations []models.Station
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("site log row: %w", err)
		}
		lat, err1 := strconv.ParseFloat(row[col["Latitude"]], 64)
		lon, err2 := strconv.ParseFloat(row[col["Longitude"]], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		name := row[col["Site"]]
		if n, ok := col["Name"]; ok && n < len(row) {
			name = row[n]
		}
		stations = append(stations, models.Station{
			StationID: row[col["Site"]],
			Name:      name,
			Network:   "ameriflux",
			Latitude:  lat,
			Longitude: lon,
			Active:    true,
		})
	}
	return stations, nil
}

// ParseBase reads an Ameriflux BASE data CSV for one station and returns
// observations within [start, end], in archive order. The file starts with
// two comment lines before the header row. Dewpoint is derived from
// relative humidity and air temperature at this boundary so the flux model
// sees only (T, T_dew, p) triples.
func ParseBase(r io.Reader, station models.Station, start, end time.Time) ([]models.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	// Skip the citation comment lines above the header.
	var header []string
	for i := 0; i < 3; i++ {
		row, err := cr.Read()
		if err != nil {
			return nil, fmt.Errorf("base header: %w", err)
		}
		if len(row) > 0 && row[0] == "TIMESTAMP_START" {
			header = row
			break
		}
	}
	if header == nil {
		return nil, fmt.Errorf("base header: TIMESTAMP_START column not found")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	names := amerifluxPrimaryCols
	if _, ok := col["TA_1_1_1"]; !ok {
		names = amerifluxFallbackCols
	}
	field := make(map[string]int) // role -> column index
	for raw, role := range names {
		if i, ok := col[raw]; ok {
			field[role] = i
		}
	}

	var out []models.Observation
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("base row: %w", err)
		}
		ts, err := time.Parse("200601021504", row[col["TIMESTAMP_START"]])
		if err != nil {
			continue
		}
		ts = ts.UTC()
		if ts.Before(start) || ts.After(end) {
			continue
		}

		obs := models.Observation{StationID: station.StationID, ObservedAt: ts}
		ta := baseValue(row, field, "ta")
		if ta.Valid {
			obs.Temp = sql.NullFloat64{Float64: CToK(ta.Float64), Valid: true}
		}
		if pa := baseValue(row, field, "pa"); pa.Valid {
			obs.Pressure = sql.NullFloat64{Float64: KPaToHPa(pa.Float64), Valid: true}
		}
		if ws := baseValue(row, field, "ws"); ws.Valid {
			obs.WindSpeed = ws
		}
		if sw := baseValue(row, field, "swin"); sw.Valid {
			obs.SolarRadiation = sw
		}
		// SWC is percent volumetric water content.
		if swc := baseValue(row, field, "swc"); swc.Valid {
			obs.SoilMoisture = sql.NullFloat64{Float64: swc.Float64 / 100, Valid: true}
		}
		if h := baseValue(row, field, "h"); h.Valid {
			obs.SensibleHeat = h
		}
		if le := baseValue(row, field, "le"); le.Valid {
			obs.LatentHeat = le
		}
		// RH at or below zero has no dewpoint; the inversion's log blows
		// up. Those rows keep a missing dewpoint rather than a NaN.
		if rh := baseValue(row, field, "rh"); rh.Valid && rh.Float64 > 0 && ta.Valid {
			if td := dewpointFromRH(ta.Float64, rh.Float64); !math.IsNaN(td) && !math.IsInf(td, 0) {
				obs.Dewpoint = sql.NullFloat64{Float64: CToK(td), Valid: true}
			}
		}
		out = append(out, obs)
	}
	return out, nil
}

func baseValue(row []string, field map[string]int, role string) sql.NullFloat64 {
	i, ok := field[role]
	if !ok || i >= len(row) {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(row[i], 64)
	if err != nil || v <= amerifluxMissing {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// dewpointFromRH inverts the Bolton (1980) vapor pressure relation: with
// e = (RH/100) * e_s(T), the dewpoint in Celsius is the temperature whose
// saturation vapor pressure equals e.
func dewpointFromRH(tC, rhPercent float64) float64 {
	es := 6.113 * math.Exp(17.67*tC/(tC+243.5))
	e := rhPercent / 100 * es
	ln := math.Log(e / 6.113)
	return 243.5 * ln / (17.67 - ln)
}
