package ingest

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/urbanflux/fluxmap/internal/models"
)

func asosLine(call, stamp, metar string) string {
	// Archive rows carry the file prefix, the call sign at offset 5, and
	// the YYYYMMDDHHMM timestamp at offset 13.
	return "64010" + call + "2007" + stamp + " " + metar
}

func testStation() models.Station {
	return models.Station{
		StationID:      "KLGA",
		Network:        "asos",
		Latitude:       40.7792,
		Longitude:      -73.8803,
		UTCOffsetHours: -5,
	}
}

func TestParseFiveMinute(t *testing.T) {
	// One hour of five-minute records plus the first record of the next
	// hour; only records 0 and 12 should survive the hourly subsample.
	var lines []string
	for i := 0; i < 13; i++ {
		stamp := fmt.Sprintf("2019070100%02d", i*5%60)
		if i == 12 {
			stamp = "201907010100"
		}
		metar := fmt.Sprintf("KLGA 010%02d00Z 31015KT 25/12 A3002 RMK AO2", i*5%60)
		lines = append(lines, asosLine("KLGA", stamp, metar))
	}

	obs, err := ParseFiveMinute(strings.NewReader(strings.Join(lines, "\n")), testStation())
	if err != nil {
		t.Fatalf("ParseFiveMinute: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("got %d hourly records, want 2", len(obs))
	}

	first := obs[0]
	if !first.Temp.Valid || math.Abs(first.Temp.Float64-(25+273.15)) > 1e-9 {
		t.Errorf("Temp = %+v, want 298.15 K", first.Temp)
	}
	if !first.Dewpoint.Valid || math.Abs(first.Dewpoint.Float64-(12+273.15)) > 1e-9 {
		t.Errorf("Dewpoint = %+v, want 285.15 K", first.Dewpoint)
	}
	if !first.WindSpeed.Valid || math.Abs(first.WindSpeed.Float64-15*0.51444) > 1e-9 {
		t.Errorf("WindSpeed = %+v, want 15 kt in m/s", first.WindSpeed)
	}

	// EST log time 2019-07-01 00:00 shifts +5h to UTC.
	if got := first.ObservedAt.Format("2006-01-02 15:04"); got != "2019-07-01 05:00" {
		t.Errorf("ObservedAt = %s, want 2019-07-01 05:00 UTC", got)
	}
}

func TestParseFiveMinuteSkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"short row",
		asosLine("KLGA", "201907010000", "KLGA 010000Z NO WIND OR TEMP GROUPS"),
		asosLine("KLGA", "201907010005", "KLGA 010005Z 31010KT 22/10 A3002"),
	}, "\n")

	obs, err := ParseFiveMinute(strings.NewReader(input), testStation())
	if err != nil {
		t.Fatalf("ParseFiveMinute: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("got %d records, want 1 (malformed rows skipped)", len(obs))
	}
	if obs[0].Temp.Float64 != 22+273.15 {
		t.Errorf("Temp = %v, want 295.15", obs[0].Temp.Float64)
	}
}

func TestParseStationList(t *testing.T) {
	header := fmt.Sprintf("%-8s %-4s %-30s %-9s %-10s %-6s %-3s",
		"NCDCID", "CALL", "NAME", "LAT", "LON", "ELEV", "UTC")
	ruler := fmt.Sprintf("%s %s %s %s %s %s %s",
		strings.Repeat("-", 8), strings.Repeat("-", 4), strings.Repeat("-", 30),
		strings.Repeat("-", 9), strings.Repeat("-", 10), strings.Repeat("-", 6), strings.Repeat("-", 3))
	rows := []string{
		fmt.Sprintf("%-8s %-4s %-30s %-9s %-10s %-6s %-3s",
			"00012345", "LGA", "LA GUARDIA AIRPORT", "40.7792", "-73.8803", "11", "-5"),
		fmt.Sprintf("%-8s %-4s %-30s %-9s %-10s %-6s %-3s",
			"00067890", "OKC", "WILL ROGERS WORLD AIRPORT", "35.3889", "-97.6003", "392", "-6"),
		"",
	}

	input := strings.Join(append([]string{header, ruler}, rows...), "\n")
	stations, err := ParseStationList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseStationList: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("got %d stations, want 2", len(stations))
	}

	lga := stations[0]
	if lga.StationID != "KLGA" {
		t.Errorf("StationID = %s, want KLGA", lga.StationID)
	}
	if lga.Latitude != 40.7792 || lga.Longitude != -73.8803 {
		t.Errorf("coordinates = (%v, %v)", lga.Latitude, lga.Longitude)
	}
	if lga.UTCOffsetHours != -5 {
		t.Errorf("UTCOffsetHours = %d, want -5", lga.UTCOffsetHours)
	}
	if lga.Network != "asos" {
		t.Errorf("Network = %s, want asos", lga.Network)
	}
}

func TestParseStationListMissingColumns(t *testing.T) {
	input := "FOO BAR\n--- ---\nabc def\n"
	if _, err := ParseStationList(strings.NewReader(input)); err == nil {
		t.Error("station list without required columns accepted")
	}
}

func TestUnitConversions(t *testing.T) {
	if got := CToK(25); got != 298.15 {
		t.Errorf("CToK(25) = %v", got)
	}
	if got := KToC(CToK(36.6)); math.Abs(got-36.6) > 1e-12 {
		t.Errorf("round trip = %v, want 36.6", got)
	}
	if got := KnotsToMS(10); math.Abs(got-5.1444) > 1e-9 {
		t.Errorf("KnotsToMS(10) = %v", got)
	}
	if got := KPaToHPa(101.325); math.Abs(got-1013.25) > 1e-9 {
		t.Errorf("KPaToHPa(101.325) = %v", got)
	}
}
