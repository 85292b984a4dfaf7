package ingest

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/urbanflux/fluxmap/internal/metrics"
	"github.com/urbanflux/fluxmap/internal/models"
)

const (
	asosFTPHost = "ftp.ncdc.noaa.gov:21"
	asosFTPDir  = "/pub/data/asos-fivemin"

	// Five-minute logs carry 12 records per hour; the flux grid is hourly.
	recordsPerHour = 12
)

// Regex patterns for mining the fixed-format five-minute .dat logs.
var (
	// Air/dew temperature group "TT/DD" bounded by spaces.
	asosTempPattern = regexp.MustCompile(`\s\d\d[^a-z0-9\s]\d\d\s`)
	// Wind group: "HZ DDDSS" where DDD is direction and SS speed in knots.
	// Gusts are ignored; the sustained speed becomes the effective speed.
	asosWindPattern = regexp.MustCompile(`\d[Z]\s\d\d\d\d\d\D`)
)

// ASOSClient retrieves NOAA ASOS five-minute observation logs over FTP.
type ASOSClient struct {
	host    string
	verbose bool
}

func NewASOSClient(verbose bool) *ASOSClient {
	return &ASOSClient{host: asosFTPHost, verbose: verbose}
}

// monthFile is the archive layout: 6401-YYYY/64010<CALL>YYYYMM.dat.
func monthFile(call string, year int, month time.Month) string {
	return fmt.Sprintf("%s/6401-%04d/64010%s%04d%02d.dat", asosFTPDir, year, call, year, int(month))
}

// FetchMonth downloads and parses one month of five-minute records for a
// station, subsampled to hourly and normalised to UTC and SI units.
func (c *ASOSClient) FetchMonth(station models.Station, year int, month time.Month) ([]models.Observation, error) {
	path := monthFile(station.StationID, year, month)
	start := time.Now()

	var body []byte
	operation := func() error {
		conn, err := ftp.Dial(c.host, ftp.DialWithTimeout(30*time.Second))
		if err != nil {
			return fmt.Errorf("ftp dial: %w", err)
		}
		defer conn.Quit()

		if err := conn.Login("anonymous", "anonymous"); err != nil {
			return fmt.Errorf("ftp login: %w", err)
		}

		resp, err := conn.Retr(path)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("ftp retr %s: %w", path, err))
		}
		defer resp.Close()

		body, err = io.ReadAll(resp)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(operation, bo); err != nil {
		metrics.FetchesTotal.WithLabelValues("asos", "error").Inc()
		return nil, err
	}
	metrics.FetchesTotal.WithLabelValues("asos", "ok").Inc()
	metrics.FetchLatency.WithLabelValues("asos").Observe(time.Since(start).Seconds())

	obs, err := ParseFiveMinute(strings.NewReader(string(body)), station)
	if err != nil {
		return nil, err
	}
	if c.verbose {
		log.Printf("asos: %s %04d-%02d: %d hourly records", station.StationID, year, int(month), len(obs))
	}
	return obs, nil
}

// ParseFiveMinute extracts temperature, dewpoint, and wind speed from
// five-minute ASOS log lines, keeps every twelfth record for an hourly
// series, converts Celsius to Kelvin and knots to m/s, and shifts the
// station's local standard time to UTC.
func ParseFiveMinute(r io.Reader, station models.Station) ([]models.Observation, error) {
	var all []models.Observation

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		row := scanner.Text()
		if len(row) < 25 {
			continue
		}
		observedAt, err := time.Parse("200601021504", row[13:25])
		if err != nil {
			continue
		}

		tempMatch := asosTempPattern.FindString(row)
		windMatch := asosWindPattern.FindString(row)
		if tempMatch == "" || windMatch == "" {
			continue
		}

		tAir, err1 := strconv.Atoi(tempMatch[1:3])
		tDew, err2 := strconv.Atoi(tempMatch[4:6])
		wind, err3 := strconv.Atoi(windMatch[6:8])
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}

		obs := models.Observation{
			StationID:  station.StationID,
			ObservedAt: observedAt.Add(-time.Duration(station.UTCOffsetHours) * time.Hour).UTC(),
			Temp:       sql.NullFloat64{Float64: CToK(float64(tAir)), Valid: true},
			Dewpoint:   sql.NullFloat64{Float64: CToK(float64(tDew)), Valid: true},
			WindSpeed:  sql.NullFloat64{Float64: KnotsToMS(float64(wind)), Valid: true},
		}
		all = append(all, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}

	var hourly []models.Observation
	for i := 0; i < len(all); i += recordsPerHour {
		hourly = append(hourly, all[i])
	}
	return hourly, nil
}

// ParseStationList reads the fixed-width asos-stations.txt metadata file.
// The second line of the file is a run of dashes marking the column spans;
// the header line above it names them.
func ParseStationList(r io.Reader) ([]models.Station, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, fmt.Errorf("station list: missing header")
	}
	header := scanner.Text()
	if !scanner.Scan() {
		return nil, fmt.Errorf("station list: missing column ruler")
	}
	ruler := scanner.Text()

	spans := columnSpans(ruler)
	cols := make(map[string][2]int, len(spans))
	for _, sp := range spans {
		cols[strings.TrimSpace(sliceSpan(header, sp))] = sp
	}
	for _, name := range []string{"CALL", "NAME", "LAT", "LON", "ELEV", "UTC"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("station list: missing column %s", name)
		}
	}

	var stations []models.Station
	for scanner.Scan() {
		row := scanner.Text()
		if strings.TrimSpace(row) == "" {
			continue
		}
		call := strings.TrimSpace(sliceSpan(row, cols["CALL"]))
		if call == "" {
			continue
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(sliceSpan(row, cols["LAT"])), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(sliceSpan(row, cols["LON"])), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		elev, _ := strconv.ParseFloat(strings.TrimSpace(sliceSpan(row, cols["ELEV"])), 64)
		utc, _ := strconv.Atoi(strings.TrimSpace(sliceSpan(row, cols["UTC"])))

		stations = append(stations, models.Station{
			// Archive file names prefix the contiguous-US call sign with K.
			StationID:      "K" + call,
			Name:           strings.TrimSpace(sliceSpan(row, cols["NAME"])),
			Network:        "asos",
			Latitude:       lat,
			Longitude:      lon,
			Elevation:      elev,
			UTCOffsetHours: utc,
			Active:         true,
		})
	}
	return stations, scanner.Err()
}

// columnSpans finds the [start, end) byte ranges of each dash run in the
// ruler line.
func columnSpans(ruler string) [][2]int {
	var spans [][2]int
	start := -1
	for i, ch := range ruler {
		if ch == '-' {
			if start < 0 {
				start = i
			}
		} else if start >= 0 {
			spans = append(spans, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(ruler)})
	}
	return spans
}

func sliceSpan(row string, span [2]int) string {
	if span[0] >= len(row) {
		return ""
	}
	end := span[1]
	if end > len(row) {
		end = len(row)
	}
	return row[span[0]:end]
}
