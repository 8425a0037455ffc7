package store

import (
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/i474232898/weather-favorites/internal/weather"
)

func entries(n int) []weather.HourlyEntry {
	out := make([]weather.HourlyEntry, n)
	for i := range out {
		out[i] = weather.HourlyEntry{Hour: i, Condition: "clear"}
	}
	return out
}

func TestMemoryCacheHitAndExpiry(t *testing.T) {
	is := is.New(t)
	now := time.Date(2025, 11, 19, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(10, 15*time.Minute)
	c.now = func() time.Time { return now }
	day := time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC)

	c.Save(19.076, 72.8777, day, entries(24))

	got, ok := c.Get(19.07601, 72.87769, day) // rounds to the same key
	is.True(ok)
	is.Equal(len(got), 24)

	_, ok = c.Get(19.076, 72.8777, day.AddDate(0, 0, 1))
	is.True(!ok) // other date

	now = now.Add(16 * time.Minute)
	_, ok = c.Get(19.076, 72.8777, day)
	is.True(!ok) // expired
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	is := is.New(t)
	c := NewMemoryCache(2, 0)
	day := time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC)

	c.Save(1, 1, day, entries(1))
	c.Save(2, 2, day, entries(1))
	c.Save(3, 3, day, entries(1))

	is.Equal(c.Len(), 2)
	_, ok := c.Get(1, 1, day)
	is.True(!ok)
	_, ok = c.Get(3, 3, day)
	is.True(ok)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	is := is.New(t)
	c := NewMemoryCache(0, 0)
	day := time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC)
	c.Save(1, 1, day, entries(2))

	got, _ := c.Get(1, 1, day)
	got[0].Condition = "mutated"

	again, _ := c.Get(1, 1, day)
	is.Equal(again[0].Condition, "clear")
}
