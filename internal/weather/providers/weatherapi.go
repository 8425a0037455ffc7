package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-favorites/internal/weather"
)

// WeatherAPIProvider geocodes names and fetches hourly forecasts from WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(httpCfg HTTPClientConfig, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1",
		httpCfg: httpCfg,
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// Geocode uses the search endpoint and returns the first match, or nil.
func (p *WeatherAPIProvider) Geocode(ctx context.Context, name string) (*weather.GeoResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrUpstream)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", name)

	var results []struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/search.json?"+values.Encode(), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	r := results[0]
	return &weather.GeoResult{Latitude: r.Lat, Longitude: r.Lon, ResolvedName: r.Name}, nil
}

// weatherAPICondition accepts both shapes seen for the condition field: an object
// carrying text, or a bare string.
type weatherAPICondition struct {
	Text string
}

func (c *weatherAPICondition) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		return nil
	case strings.HasPrefix(s, `"`):
		return json.Unmarshal(b, &c.Text)
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	c.Text = obj.Text
	return nil
}

// FetchHourlyForecast returns the hours of date whose UTC calendar date matches it.
func (p *WeatherAPIProvider) FetchHourlyForecast(ctx context.Context, latitude, longitude float64, date time.Time) ([]weather.HourlyEntry, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrUpstream)
	}
	day := weather.DateOf(date)

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", fmt.Sprintf("%f,%f", latitude, longitude))
	values.Set("dt", day.Format(weather.DateLayout))
	values.Set("days", "1")

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Hour []struct {
					TimeEpoch int64               `json:"time_epoch"`
					TempC     *float64            `json:"temp_c"`
					Humidity  *float64            `json:"humidity"`
					WindKph   *float64            `json:"wind_kph"`
					UV        *float64            `json:"uv"`
					Condition weatherAPICondition `json:"condition"`
				} `json:"hour"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/forecast.json?"+values.Encode(), &payload); err != nil {
		return nil, err
	}

	entries := []weather.HourlyEntry{}
	for _, fd := range payload.Forecast.ForecastDay {
		for _, h := range fd.Hour {
			ts := time.Unix(h.TimeEpoch, 0).UTC()
			if !weather.DateOf(ts).Equal(day) {
				continue
			}
			cond := strings.ToLower(strings.TrimSpace(h.Condition.Text))
			if cond == "" {
				cond = "unknown"
			}
			entry := weather.HourlyEntry{
				Time:      ts,
				Hour:      ts.Hour(),
				TempC:     h.TempC,
				Condition: cond,
				WindKph:   h.WindKph,
				UV:        h.UV,
			}
			if h.Humidity != nil {
				v := int(math.Round(*h.Humidity))
				entry.Humidity = &v
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
