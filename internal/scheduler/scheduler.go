package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-favorites/internal/weather"
)

// Ingester is the part of weather.Service the ingestion job needs.
type Ingester interface {
	ListLocations(ctx context.Context) ([]weather.Location, error)
	FetchAndStore(ctx context.Context, loc weather.Location, date time.Time) (int, error)
}

// Scheduler periodically stores external hourly forecasts for every location with coordinates.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ingester  Ingester
	interval  time.Duration
	days      int
	log       zerolog.Logger
	now       func() time.Time
}

// New creates a new Scheduler. days is the number of calendar days, starting today
// (UTC), ingested on each run.
func New(ingester Ingester, interval time.Duration, days int, log zerolog.Logger) *Scheduler {
	if days < 1 {
		days = 1
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		ingester:  ingester,
		interval:  interval,
		days:      days,
		log:       log.With().Str("component", "scheduler").Logger(),
		now:       time.Now,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval < time.Minute {
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().Dur("interval", interval).Int("days", s.days).Msg("ingestion job scheduled")
	return nil
}

// RunOnce ingests every location once. Failures are logged per location and skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	locations, err := s.ingester.ListLocations(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing locations failed")
		return
	}

	s.log.Info().Int("locations", len(locations)).Msg("running ingestion job")
	today := weather.DateOf(s.now())

	var wg sync.WaitGroup
	for _, loc := range locations {
		if !loc.HasCoordinates() {
			continue
		}
		wg.Add(1)
		go func(loc weather.Location) {
			defer wg.Done()

			for d := 0; d < s.days; d++ {
				date := today.AddDate(0, 0, d)
				fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				n, err := s.ingester.FetchAndStore(fetchCtx, loc, date)
				cancel()
				if err != nil {
					s.log.Warn().Err(err).Str("location", loc.Name).Str("date", date.Format(weather.DateLayout)).Msg("ingestion failed")
					continue
				}
				s.log.Debug().Str("location", loc.Name).Str("date", date.Format(weather.DateLayout)).Int("records", n).Msg("ingested forecast")
			}
		}(loc)
	}
	wg.Wait()
	s.log.Info().Msg("completed ingestion job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
