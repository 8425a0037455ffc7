package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-favorites/internal/weather"
)

type fakeIngester struct {
	mu        sync.Mutex
	locations []weather.Location
	calls     map[string][]string
	failFor   string
}

func (f *fakeIngester) ListLocations(context.Context) ([]weather.Location, error) {
	return f.locations, nil
}

func (f *fakeIngester) FetchAndStore(_ context.Context, loc weather.Location, date time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string][]string{}
	}
	f.calls[loc.Name] = append(f.calls[loc.Name], date.Format(weather.DateLayout))
	if loc.Name == f.failFor {
		return 0, errors.New("boom")
	}
	return 24, nil
}

func coords(lat, lon float64) (*float64, *float64) { return &lat, &lon }

func TestRunOnceIngestsLocationsWithCoordinates(t *testing.T) {
	lat, lon := coords(19.076, 72.8777)
	ing := &fakeIngester{
		locations: []weather.Location{
			{ID: 1, Name: "Mumbai", Latitude: lat, Longitude: lon},
			{ID: 2, Name: "Nowhere"},
			{ID: 3, Name: "Broken", Latitude: lat, Longitude: lon},
		},
		failFor: "Broken",
	}

	s := New(ing, time.Hour, 2, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 11, 19, 22, 30, 0, 0, time.UTC) }
	s.RunOnce(context.Background())

	require.Equal(t, []string{"2025-11-19", "2025-11-20"}, ing.calls["Mumbai"])
	require.Len(t, ing.calls["Broken"], 2) // a failing day does not stop the next one
	require.NotContains(t, ing.calls, "Nowhere")
}
