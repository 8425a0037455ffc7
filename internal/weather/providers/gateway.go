package providers

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/weather-favorites/internal/weather"
)

// Geocoder resolves a place name in a single attempt.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, name string) (*weather.GeoResult, error)
}

// Forecaster fetches the hourly forecast of one UTC calendar day.
type Forecaster interface {
	Name() string
	FetchHourlyForecast(ctx context.Context, latitude, longitude float64, date time.Time) ([]weather.HourlyEntry, error)
}

// Gateway combines a geocoder and a forecaster into a weather.Gateway.
type Gateway struct {
	geocoder   Geocoder
	forecaster Forecaster
	log        zerolog.Logger
}

func NewGateway(geocoder Geocoder, forecaster Forecaster, log zerolog.Logger) *Gateway {
	return &Gateway{
		geocoder:   geocoder,
		forecaster: forecaster,
		log:        log.With().Str("component", "gateway").Logger(),
	}
}

var _ weather.Gateway = (*Gateway)(nil)

// Geocode queries the raw name and, when that finds nothing and the trimmed name is
// longer than 3 characters, retries once without its last character.
func (g *Gateway) Geocode(ctx context.Context, name string) (*weather.GeoResult, error) {
	geo, err := g.geocoder.Geocode(ctx, name)
	if err != nil || geo != nil {
		return geo, err
	}

	trimmed := []rune(strings.TrimSpace(name))
	if len(trimmed) <= 3 {
		return nil, nil
	}
	alt := string(trimmed[:len(trimmed)-1])
	g.log.Debug().Str("name", name).Str("retry", alt).Str("geocoder", g.geocoder.Name()).Msg("no geocoding match; retrying truncated name")
	return g.geocoder.Geocode(ctx, alt)
}

func (g *Gateway) FetchHourlyForecast(ctx context.Context, latitude, longitude float64, date time.Time) ([]weather.HourlyEntry, error) {
	entries, err := g.forecaster.FetchHourlyForecast(ctx, latitude, longitude, date)
	if err != nil {
		g.log.Error().Err(err).Str("forecaster", g.forecaster.Name()).Msg("hourly forecast fetch failed")
		return nil, err
	}
	return entries, nil
}
