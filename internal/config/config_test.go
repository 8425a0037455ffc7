package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-favorites/internal/weather"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "LOG_LEVEL", "DB_DIALECT", "WEATHER_SOURCE", "INGEST_INTERVAL", "HTTP_TIMEOUT", "FORECAST_CACHE_TTL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "5000", cfg.Port)
	require.True(t, cfg.Development())
	require.Equal(t, zerolog.InfoLevel, cfg.LogLvl)
	require.Equal(t, "postgres", cfg.Database.Dialect)
	require.Equal(t, weather.SourceAuto, cfg.DefaultSource)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 15*time.Minute, cfg.ForecastCacheTTL)
	require.Zero(t, cfg.IngestInterval)
}

func TestLoadTestEnvDefaultsToDB(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("WEATHER_SOURCE", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, weather.SourceDB, cfg.DefaultSource)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"WEATHER_SOURCE":   "cache",
		"DB_DIALECT":       "oracle",
		"INGEST_INTERVAL":  "often",
		"LOG_LEVEL":        "loud",
		"WEATHER_PROVIDER": "openweather",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestSQLiteMemoryPath(t *testing.T) {
	t.Setenv("DB_DIALECT", "sqlite")
	t.Setenv("DB_SQLITE_PATH", ":memory:")

	cfg, err := Load()
	require.NoError(t, err)
	require.Empty(t, cfg.Database.SQLitePath)
}
