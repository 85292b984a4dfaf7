// Package grid aligns irregular observation series onto uniform hourly
// grids and bounds spatial extraction windows to fixed-size slices.
package grid

import (
	"database/sql"
	"time"
)

// Sample is one timestamped observation value. An invalid Value is an
// observation that exists in the source but was flagged missing there.
type Sample struct {
	Time  time.Time
	Value sql.NullFloat64
}

// AlignHourly reindexes samples onto a dense hourly grid over [start, end].
// The output always has floor(hours between start and end)+1 entries, one
// per boundary-inclusive hour; hours with no matching sample are invalid
// (missing), never zero. Sample timestamps are truncated to the hour for
// matching; the first sample for an hour wins.
func AlignHourly(samples []Sample, start, end time.Time) []sql.NullFloat64 {
	// Count before truncating so a sub-hour start does not inflate the
	// window by an extra entry.
	n := int(end.UTC().Sub(start.UTC()).Hours()) + 1
	if n < 1 {
		return nil
	}
	start = start.UTC().Truncate(time.Hour)

	byHour := make(map[time.Time]sql.NullFloat64, len(samples))
	for _, s := range samples {
		h := s.Time.UTC().Truncate(time.Hour)
		if _, ok := byHour[h]; !ok {
			byHour[h] = s.Value
		}
	}

	out := make([]sql.NullFloat64, n)
	for i := 0; i < n; i++ {
		out[i] = byHour[start.Add(time.Duration(i)*time.Hour)]
	}
	return out
}

// Interpolate fills interior missing runs by linear interpolation between
// the valid neighbors on either side. Leading and trailing gaps have no
// bracketing values and stay missing. The input is not modified.
func Interpolate(series []sql.NullFloat64) []sql.NullFloat64 {
	out := make([]sql.NullFloat64, len(series))
	copy(out, series)

	prev := -1
	for i, v := range out {
		if !v.Valid {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (v.Float64 - out[prev].Float64) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				out[j] = sql.NullFloat64{Float64: out[prev].Float64 + step*float64(j-prev), Valid: true}
			}
		}
		prev = i
	}
	return out
}
