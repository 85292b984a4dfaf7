package ingest

import (
	"context"
	"log"
	"time"

	"github.com/urbanflux/fluxmap/internal/metrics"
	"github.com/urbanflux/fluxmap/internal/store"
)

// Scheduler periodically refreshes the cache with the current month's
// five-minute logs for every active ASOS station.
type Scheduler struct {
	store    *store.Store
	asos     *ASOSClient
	interval time.Duration
	verbose  bool
}

func NewScheduler(st *store.Store, asos *ASOSClient, verbose bool) *Scheduler {
	return &Scheduler{
		store:    st,
		asos:     asos,
		interval: time.Hour,
		verbose:  verbose,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	if err := s.IngestOnce(); err != nil {
		log.Printf("ingest: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler stopping")
			return
		case <-ticker.C:
			if err := s.IngestOnce(); err != nil {
				log.Printf("ingest: %v", err)
			}
		}
	}
}

// IngestOnce fetches the current month for each active ASOS station.
// A station failure is logged and skipped so one dead archive path does
// not starve the rest.
func (s *Scheduler) IngestOnce() error {
	stations, err := s.store.GetActiveStations("asos")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, station := range stations {
		obs, err := s.asos.FetchMonth(station, now.Year(), now.Month())
		if err != nil {
			log.Printf("ingest %s: %v", station.StationID, err)
			continue
		}
		if err := s.store.InsertObservations(obs); err != nil {
			log.Printf("store %s: %v", station.StationID, err)
			continue
		}
		metrics.ObservationsIngested.WithLabelValues(station.StationID).Add(float64(len(obs)))
		if s.verbose {
			log.Printf("ingest %s: %d hourly observations", station.StationID, len(obs))
		}
	}
	return nil
}
