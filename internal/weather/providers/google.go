package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-favorites/internal/common"
	"github.com/i474232898/weather-favorites/internal/weather"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder resolves names through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey  string
	lookup  func(geocoder.Address) (geocoder.Location, error)
	circuit *gobreaker.CircuitBreaker
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		lookup:  geocoder.Geocoding,
		circuit: newBreaker("google-geocoder"),
	}
}

func (g *GoogleGeocoder) Name() string {
	return "google"
}

// Geocode treats the name as a city. The library reports "no results" as an error,
// which is mapped to a nil result inside the breaker so misses never trip it.
func (g *GoogleGeocoder) Geocode(ctx context.Context, name string) (*weather.GeoResult, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: google geocoder api key is not configured", weather.ErrUpstream)
	}

	type outcome struct {
		loc   geocoder.Location
		found bool
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := g.circuit.Execute(func() (interface{}, error) {
			googleKeyMu.Lock()
			defer googleKeyMu.Unlock()
			geocoder.ApiKey = g.apiKey
			loc, err := g.lookup(geocoder.Address{City: name})
			if err != nil {
				if isNoResults(err) {
					return outcome{}, nil
				}
				return nil, err
			}
			return outcome{loc: loc, found: true}, nil
		})
		if err != nil {
			done <- outcome{err: err}
			return
		}
		done <- res.(outcome)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: google: %v", weather.ErrUpstream, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("%w: google: %v", weather.ErrUpstream, out.err)
		}
		if !out.found {
			return nil, nil
		}
		return &weather.GeoResult{
			Latitude:     out.loc.Latitude,
			Longitude:    out.loc.Longitude,
			ResolvedName: name,
		}, nil
	}
}

func isNoResults(err error) bool {
	return common.HasAny(strings.ToLower(err.Error()), "zero_results", "no results")
}
