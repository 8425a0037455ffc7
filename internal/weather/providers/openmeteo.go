package providers

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-favorites/internal/weather"
)

const openMeteoHourlyFields = "temperature_2m,relative_humidity_2m,wind_speed_10m,uv_index,weathercode"

// OpenMeteoProvider geocodes names and fetches hourly forecasts from Open-Meteo.
// It needs no API key.
type OpenMeteoProvider struct {
	name        string
	geocodeURL  string
	forecastURL string
	httpCfg     HTTPClientConfig
	circuit     *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(httpCfg HTTPClientConfig) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:        "openmeteo",
		geocodeURL:  "https://geocoding-api.open-meteo.com/v1/search",
		forecastURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg:     httpCfg,
		circuit:     newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Geocode returns the first search result for name, or nil when there is none.
func (p *OpenMeteoProvider) Geocode(ctx context.Context, name string) (*weather.GeoResult, error) {
	values := url.Values{}
	values.Set("name", name)
	values.Set("count", "5")
	values.Set("language", "en")
	values.Set("format", "json")

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.geocodeURL+"?"+values.Encode(), &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}

	r := payload.Results[0]
	return &weather.GeoResult{Latitude: r.Latitude, Longitude: r.Longitude, ResolvedName: r.Name}, nil
}

// FetchHourlyForecast returns the hourly forecast for one UTC calendar day.
func (p *OpenMeteoProvider) FetchHourlyForecast(ctx context.Context, latitude, longitude float64, date time.Time) ([]weather.HourlyEntry, error) {
	day := weather.DateOf(date).Format(weather.DateLayout)

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	values.Set("hourly", openMeteoHourlyFields)
	values.Set("start_date", day)
	values.Set("end_date", day)
	values.Set("timezone", "UTC")
	values.Set("wind_speed_unit", "ms")

	var payload struct {
		Hourly *struct {
			Time        []string   `json:"time"`
			Temperature []*float64 `json:"temperature_2m"`
			Humidity    []*float64 `json:"relative_humidity_2m"`
			WindSpeed   []*float64 `json:"wind_speed_10m"`
			UVIndex     []*float64 `json:"uv_index"`
			WeatherCode []*int     `json:"weathercode"`
		} `json:"hourly"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.forecastURL+"?"+values.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.Hourly == nil || len(payload.Hourly.Time) == 0 {
		return []weather.HourlyEntry{}, nil
	}

	h := payload.Hourly
	entries := make([]weather.HourlyEntry, 0, len(h.Time))
	for i, raw := range h.Time {
		ts, err := parseOpenMeteoTime(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: openmeteo: %v", weather.ErrUpstream, err)
		}

		entry := weather.HourlyEntry{
			Time:      ts,
			Hour:      ts.Hour(),
			TempC:     floatAt(h.Temperature, i),
			Condition: WeatherCodeToText(intAt(h.WeatherCode, i)),
			UV:        floatAt(h.UVIndex, i),
		}
		if hum := floatAt(h.Humidity, i); hum != nil {
			v := int(math.Round(*hum))
			entry.Humidity = &v
		}
		if ms := floatAt(h.WindSpeed, i); ms != nil {
			// m/s to km/h
			kph := weather.RoundTo(*ms*3.6, 1)
			entry.WindKph = &kph
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseOpenMeteoTime parses "2006-01-02T15:04" in UTC, falling back to RFC 3339.
func parseOpenMeteoTime(s string) (time.Time, error) {
	if ts, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hourly time %q", s)
	}
	return ts.UTC(), nil
}

func floatAt(values []*float64, i int) *float64 {
	if i >= len(values) || values[i] == nil {
		return nil
	}
	v := *values[i]
	return &v
}

func intAt(values []*int, i int) *int {
	if i >= len(values) || values[i] == nil {
		return nil
	}
	v := *values[i]
	return &v
}
