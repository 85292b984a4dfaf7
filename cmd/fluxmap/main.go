package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/urbanflux/fluxmap/internal/geo"
	"github.com/urbanflux/fluxmap/internal/ingest"
	"github.com/urbanflux/fluxmap/internal/models"
	"github.com/urbanflux/fluxmap/internal/phys"
	"github.com/urbanflux/fluxmap/internal/pipeline"
	"github.com/urbanflux/fluxmap/internal/render"
	"github.com/urbanflux/fluxmap/internal/store"
)

type appContext struct {
	store   *store.Store
	verbose bool
}

var cli struct {
	DB      string `help:"Path to sqlite cache database." default:"data/fluxmap.db" env:"FLUXMAP_DB"`
	Verbose bool   `short:"v" help:"Log per-station diagnostics."`

	Ingest ingestCmd `cmd:"" help:"Fetch station observations into the cache."`
	Flux   fluxCmd   `cmd:"" help:"Compute latent heat flux for cached observations."`
	Render renderCmd `cmd:"" help:"Render cached flux results as a PNG map."`
	Serve  serveCmd  `cmd:"" help:"Serve prometheus metrics."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("fluxmap"),
		kong.Description("Latent heat flux retrieval from ground station and satellite observations."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx.FatalIfErrorf(ctx.Run(&appContext{store: st, verbose: cli.Verbose}))
}

type ingestCmd struct {
	ASOS      ingestASOSCmd      `cmd:"" help:"Ingest NOAA ASOS five-minute logs over FTP."`
	Ameriflux ingestAmerifluxCmd `cmd:"" help:"Ingest Ameriflux BASE tower data from local files."`
}

type ingestASOSCmd struct {
	Stations string  `help:"Path to the fixed-width asos-stations.txt metadata file." required:""`
	Station  string  `help:"Station call sign (e.g. KLGA). Mutually exclusive with --lat/--lon." xor:"target"`
	Lat      float64 `help:"Latitude to resolve to the nearest station." xor:"target"`
	Lon      float64 `help:"Longitude to resolve to the nearest station."`
	Year     int     `help:"Archive year." required:""`
	Month    int     `help:"Archive month (1-12)." required:""`
	Loop     bool    `help:"Keep refreshing hourly instead of exiting after one fetch."`
}

func (c *ingestASOSCmd) Run(app *appContext) error {
	f, err := os.Open(c.Stations)
	if err != nil {
		return fmt.Errorf("open station list: %w", err)
	}
	defer f.Close()

	stations, err := ingest.ParseStationList(f)
	if err != nil {
		return fmt.Errorf("parse station list: %w", err)
	}

	target, err := pickStation(stations, c.Station, c.Lat, c.Lon, app.verbose)
	if err != nil {
		return err
	}
	if err := app.store.UpsertStation(*target); err != nil {
		return fmt.Errorf("upsert station: %w", err)
	}

	client := ingest.NewASOSClient(app.verbose)
	if c.Loop {
		sched := ingest.NewScheduler(app.store, client, app.verbose)
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		sched.Run(ctx)
		return nil
	}

	obs, err := client.FetchMonth(*target, c.Year, time.Month(c.Month))
	if err != nil {
		return err
	}
	if err := app.store.InsertObservations(obs); err != nil {
		return err
	}
	log.Printf("ingested %d hourly observations for %s", len(obs), target.StationID)
	return nil
}

type ingestAmerifluxCmd struct {
	SiteLog string  `help:"Path to the Ameriflux site log CSV." required:""`
	Base    string  `help:"Path to the station's BASE data CSV." required:""`
	Station string  `help:"Site code (e.g. US-ARM). Mutually exclusive with --lat/--lon." xor:"target"`
	Lat     float64 `help:"Latitude to resolve to the nearest site." xor:"target"`
	Lon     float64 `help:"Longitude to resolve to the nearest site."`
	Start   string  `help:"Window start (2006-01-02 or 2006-01-02T15)." required:""`
	End     string  `help:"Window end." required:""`
}

func (c *ingestAmerifluxCmd) Run(app *appContext) error {
	logF, err := os.Open(c.SiteLog)
	if err != nil {
		return fmt.Errorf("open site log: %w", err)
	}
	defer logF.Close()

	sites, err := ingest.ParseSiteLog(logF)
	if err != nil {
		return fmt.Errorf("parse site log: %w", err)
	}

	target, err := pickStation(sites, c.Station, c.Lat, c.Lon, app.verbose)
	if err != nil {
		return err
	}
	if err := app.store.UpsertStation(*target); err != nil {
		return fmt.Errorf("upsert station: %w", err)
	}

	start, end, err := parseWindow(c.Start, c.End)
	if err != nil {
		return err
	}

	baseF, err := os.Open(c.Base)
	if err != nil {
		return fmt.Errorf("open base file: %w", err)
	}
	defer baseF.Close()

	obs, err := ingest.ParseBase(baseF, *target, start, end)
	if err != nil {
		return err
	}
	if err := app.store.InsertObservations(obs); err != nil {
		return err
	}
	log.Printf("ingested %d observations for %s", len(obs), target.StationID)
	return nil
}

type fluxCmd struct {
	Station string `help:"Station to compute flux for." required:""`
	Start   string `help:"Window start." required:""`
	End     string `help:"Window end." required:""`

	AeroResistance  float64 `help:"Aerodynamic resistance (s/m)." default:"50"`
	SoilMoistureMax float64 `help:"Saturation soil water content (m3/m3)." default:"0.4"`

	// Calibration overrides; defaults are the published empirical values.
	RstMin   float64 `help:"Minimum stomatal resistance (s/m)." default:"100"`
	RstMax   float64 `help:"Maximum stomatal resistance (s/m)." default:"10000"`
	RadScale float64 `help:"Radiation scaling constant (W/m2)." default:"25"`
	SoilA    float64 `help:"Soil resistance coefficient a." default:"3.5"`
	SoilB    float64 `help:"Soil resistance exponent b." default:"2.3"`
	SoilC    float64 `help:"Soil resistance offset c (s/m)." default:"433.5"`
}

func (c *fluxCmd) Run(app *appContext) error {
	start, end, err := parseWindow(c.Start, c.End)
	if err != nil {
		return err
	}

	calib := phys.DefaultCalibration()
	calib.StomatalResistanceMin = c.RstMin
	calib.StomatalResistanceMax = c.RstMax
	calib.RadiationScale = c.RadScale
	calib.SoilResistanceA = c.SoilA
	calib.SoilResistanceB = c.SoilB
	calib.SoilResistanceC = c.SoilC

	runner := pipeline.NewRunner(app.store, pipeline.Config{
		Calibration:     calib,
		AeroResistance:  c.AeroResistance,
		SoilMoistureMax: c.SoilMoistureMax,
		Verbose:         app.verbose,
	})

	records, err := runner.ComputeStation(c.Station, start, end)
	if err != nil {
		return err
	}

	valid := 0
	for _, r := range records {
		if r.Flux.Valid {
			valid++
		}
	}
	log.Printf("computed flux for %s: %d hours, %d with data", c.Station, len(records), valid)
	return nil
}

type renderCmd struct {
	Date    string `help:"UTC date to render (2006-01-02)." required:""`
	Out     string `help:"Output PNG path." default:"flux.png"`
	Network string `help:"Restrict to one network (asos or ameriflux)." default:""`
}

// Run renders a station-by-hour raster of the date's flux results: one
// row per active station, one column per UTC hour.
func (c *renderCmd) Run(app *appContext) error {
	day, err := time.Parse("2006-01-02", c.Date)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	start := day.UTC()
	end := start.Add(23 * time.Hour)

	stations, err := app.store.GetActiveStations(c.Network)
	if err != nil {
		return err
	}
	if len(stations) == 0 {
		return fmt.Errorf("no active stations to render")
	}

	field := make([][]sql.NullFloat64, len(stations))
	for i, st := range stations {
		row := make([]sql.NullFloat64, 24)
		records, err := app.store.GetFlux(st.StationID, start, end)
		if err != nil {
			return err
		}
		for _, r := range records {
			h := int(r.Timestamp.UTC().Sub(start).Hours())
			if h >= 0 && h < 24 {
				row[h] = r.Flux
			}
		}
		field[i] = row
	}

	out, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	opts := render.Options{Title: fmt.Sprintf("Latent heat flux %s", c.Date)}
	if err := render.WritePNG(out, field, opts); err != nil {
		return err
	}
	log.Printf("wrote %s (%d stations x 24 hours)", c.Out, len(stations))
	return nil
}

type serveCmd struct {
	Addr string `help:"Metrics listen address." default:":9090"`
}

func (c *serveCmd) Run(app *appContext) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: c.Addr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("metrics listening on %s", c.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// pickStation resolves an explicit ID or falls back to the nearest site to
// the given coordinate.
func pickStation(stations []models.Station, id string, lat, lon float64, verbose bool) (*models.Station, error) {
	if id != "" {
		for i := range stations {
			if stations[i].StationID == id {
				return &stations[i], nil
			}
		}
		return nil, fmt.Errorf("station %s not in station list", id)
	}

	candidates := make([]geo.Candidate, len(stations))
	for i, st := range stations {
		candidates[i] = geo.Candidate{ID: st.StationID, Coord: st.Coordinate()}
	}
	nearest, meters, err := geo.NearestSite(models.Coordinate{Latitude: lat, Longitude: lon}, candidates)
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("closest station: %s, %.2f m away", nearest, meters)
	}
	for i := range stations {
		if stations[i].StationID == nearest {
			return &stations[i], nil
		}
	}
	return nil, fmt.Errorf("station %s not in station list", nearest)
}

func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	parse := func(s string) (time.Time, error) {
		if t, err := time.Parse("2006-01-02T15", s); err == nil {
			return t.UTC(), nil
		}
		t, err := time.Parse("2006-01-02", s)
		return t.UTC(), err
	}
	start, err := parse(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start: %w", err)
	}
	end, err := parse(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s before start %s", endStr, startStr)
	}
	return start, end, nil
}
