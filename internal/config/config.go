package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-favorites/internal/store"
	"github.com/i474232898/weather-favorites/internal/weather"
)

type AppConfig struct {
	Port   string
	Env    string
	LogLvl zerolog.Level

	Database store.Settings

	// ExternalWeatherEnabled toggles the external gateway. When false the
	// external and auto source modes behave as store-only.
	ExternalWeatherEnabled bool
	DefaultSource          weather.SourceMode
	AutoGeocode            bool

	WeatherProvider string // openmeteo or weatherapi
	Geocoder        string // openmeteo, weatherapi or google

	WeatherAPIKey        string
	GoogleGeocoderAPIKey string

	HTTPTimeout time.Duration

	// External forecast cache.
	ForecastCacheTTL time.Duration
	ForecastCacheMax int

	// IngestInterval of zero disables the ingestion job.
	IngestInterval time.Duration
	IngestDays     int

	CORSOrigins string
}

// Development reports whether APP_ENV is development.
func (c *AppConfig) Development() bool {
	return c.Env == "development"
}

// Test reports whether APP_ENV is test.
func (c *AppConfig) Test() bool {
	return c.Env == "test"
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "5000")
	cfg.Env = strings.ToLower(getenvDefault("APP_ENV", "development"))

	cfg.LogLvl, err = zerolog.ParseLevel(strings.ToLower(getenvDefault("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg.Database, err = loadDatabase(cfg.Development())
	if err != nil {
		return nil, err
	}

	cfg.ExternalWeatherEnabled = getenvBool("EXTERNAL_WEATHER_ENABLED", true)
	cfg.AutoGeocode = getenvBool("AUTO_GEOCODE", true)

	defaultSource := "auto"
	if cfg.Test() {
		defaultSource = "db"
	}
	cfg.DefaultSource, err = weather.ParseSourceMode(strings.ToLower(getenvDefault("WEATHER_SOURCE", defaultSource)))
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_SOURCE: %w", err)
	}

	cfg.WeatherProvider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", "openmeteo"))
	if cfg.WeatherProvider != "openmeteo" && cfg.WeatherProvider != "weatherapi" {
		return nil, fmt.Errorf("invalid WEATHER_PROVIDER %q", cfg.WeatherProvider)
	}
	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", "openmeteo"))
	switch cfg.Geocoder {
	case "openmeteo", "weatherapi", "google":
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q", cfg.Geocoder)
	}
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.ForecastCacheTTL, err = getenvDuration("FORECAST_CACHE_TTL", "15m"); err != nil {
		return nil, err
	}
	cfg.ForecastCacheMax = getenvInt("FORECAST_CACHE_MAX", 256)

	if cfg.IngestInterval, err = getenvDuration("INGEST_INTERVAL", ""); err != nil {
		return nil, err
	}
	cfg.IngestDays = getenvInt("INGEST_DAYS", 1)
	if cfg.IngestDays < 1 {
		cfg.IngestDays = 1
	}

	cfg.CORSOrigins = getenvDefault("CORS_ORIGINS", "*")

	return cfg, nil
}

func loadDatabase(verbose bool) (store.Settings, error) {
	s := store.Settings{
		Dialect:    strings.ToLower(getenvDefault("DB_DIALECT", "postgres")),
		Host:       getenvDefault("DB_HOST", "localhost"),
		Port:       os.Getenv("DB_PORT"),
		User:       os.Getenv("DB_USER"),
		Password:   os.Getenv("DB_PASS"),
		Name:       getenvDefault("DB_NAME", "weather"),
		SSLMode:    os.Getenv("DB_SSLMODE"),
		SSLCAPath:  os.Getenv("DB_SSL_CA_PATH"),
		SSLCAB64:   os.Getenv("DB_SSL_CA_B64"),
		SQLitePath: getenvDefault("DB_SQLITE_PATH", "weather.db"),

		MaxOpenConns: getenvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns: getenvInt("DB_MAX_IDLE_CONNS", 2),
		Verbose:      verbose,
	}

	switch s.Dialect {
	case "postgres", "postgresql", "mysql", "sqlite":
	default:
		return s, fmt.Errorf("invalid DB_DIALECT %q", s.Dialect)
	}
	if s.Dialect == "sqlite" && s.SQLitePath == ":memory:" {
		s.SQLitePath = ""
	}

	idle, err := getenvDuration("DB_CONN_MAX_IDLE", "10s")
	if err != nil {
		return s, err
	}
	s.ConnMaxIdleTime = idle
	return s, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

// getenvDuration parses a Go duration. An empty value yields zero.
func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
