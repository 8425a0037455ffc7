package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/weather-favorites/internal/api/http"
	"github.com/i474232898/weather-favorites/internal/config"
	"github.com/i474232898/weather-favorites/internal/scheduler"
	"github.com/i474232898/weather-favorites/internal/store"
	"github.com/i474232898/weather-favorites/internal/weather"
	"github.com/i474232898/weather-favorites/internal/weather/providers"
)

const serviceName = "weather-favorites"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info().Str("env", cfg.Env).Msg("starting up ...")

	connect, err := store.NewConnector(cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid database configuration")
	}
	db, err := store.NewDatabaseConnection(connect, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var gateway weather.Gateway
	if cfg.ExternalWeatherEnabled {
		gw, err := newGateway(cfg, httpClient, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure weather gateway")
		}
		gateway = gw
	} else {
		logger.Info().Msg("external weather disabled; serving stored forecasts only")
	}

	var cache weather.ForecastCache
	if cfg.ForecastCacheTTL > 0 && cfg.ForecastCacheMax > 0 {
		cache = store.NewMemoryCache(cfg.ForecastCacheMax, cfg.ForecastCacheTTL)
	}

	service := weather.NewService(db.Locations(), db.Records(), db.Favorites(), gateway, cache, weather.Options{
		DefaultSource: cfg.DefaultSource,
		AutoGeocode:   cfg.AutoGeocode,
		Logger:        logger,
	})

	// Optional ingestion job.
	if cfg.IngestInterval > 0 && gateway != nil {
		sched := scheduler.New(service, cfg.IngestInterval, cfg.IngestDays, logger)
		if err := sched.Start(); err != nil {
			logger.Fatal().Err(err).Msg("failed to start scheduler")
		}
		defer sched.Stop()
	}

	app := httpapi.NewApp(service, httpapi.Options{
		Development: cfg.Development(),
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   !cfg.Test(),
		Logger:      logger,
		Metrics:     httpapi.NewMetrics(),
	})

	// Serve until a termination signal arrives.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, app, ":"+cfg.Port, 10*time.Second); err != nil {
		logger.Fatal().Err(err).Msg("fiber server stopped")
	}
	logger.Info().Msg("shut down")
}

// serve runs app on addr until ctx is done and then shuts it down within timeout.
// A listen failure is returned as soon as it happens.
func serve(ctx context.Context, app *fiber.App, addr string, timeout time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg *config.AppConfig) zerolog.Logger {
	zerolog.SetGlobalLevel(cfg.LogLvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if cfg.Development() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.With().Timestamp().Str("service", serviceName).Logger()
}

// newGateway combines the configured geocoder and forecast provider.
func newGateway(cfg *config.AppConfig, client *http.Client, logger zerolog.Logger) (*providers.Gateway, error) {
	httpCfg := providers.DefaultHTTPConfig(client)
	openMeteo := providers.NewOpenMeteoProvider(httpCfg)

	var forecaster providers.Forecaster = openMeteo
	var weatherAPI *providers.WeatherAPIProvider
	if cfg.WeatherProvider == "weatherapi" || cfg.Geocoder == "weatherapi" {
		if cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("WEATHERAPI_API_KEY is required for the weatherapi provider")
		}
		weatherAPI = providers.NewWeatherAPIProvider(httpCfg, cfg.WeatherAPIKey)
	}
	if cfg.WeatherProvider == "weatherapi" {
		forecaster = weatherAPI
	}

	var geocoder providers.Geocoder = openMeteo
	switch cfg.Geocoder {
	case "weatherapi":
		geocoder = weatherAPI
	case "google":
		if cfg.GoogleGeocoderAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_GEOCODER_API_KEY is required for the google geocoder")
		}
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey)
	}

	logger.Info().Str("geocoder", geocoder.Name()).Str("forecaster", forecaster.Name()).Msg("weather gateway configured")
	return providers.NewGateway(geocoder, forecaster, logger), nil
}
