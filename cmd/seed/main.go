package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/i474232898/weather-favorites/internal/config"
	"github.com/i474232898/weather-favorites/internal/seed"
	"github.com/i474232898/weather-favorites/internal/store"
	"github.com/i474232898/weather-favorites/internal/weather"
)

func main() {
	dateFlag := flag.String("date", "2025-11-19", "calendar date of the seeded hourly records (YYYY-MM-DD)")
	reset := flag.Bool("reset", false, "delete all favorites, records and locations first")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("service", "seed").Logger()

	date, err := weather.ParseDate(*dateFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	connect, err := store.NewConnector(cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid database configuration")
	}
	db, err := store.NewDatabaseConnection(connect, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	res, err := seed.Run(context.Background(), db, seed.Options{Date: date, Reset: *reset}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("seed failed")
		db.Close()
		os.Exit(1)
	}
	logger.Info().Int("locations", len(res.Locations)).Int("records", res.Records).Msg("seed completed")
}
