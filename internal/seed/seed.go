package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/weather-favorites/internal/store"
	"github.com/i474232898/weather-favorites/internal/weather"
)

var conditions = []string{"clear", "cloudy", "rain"}

// city is a seeded location and the shape of its synthetic day.
type city struct {
	name          string
	lat, lon, alt float64
	tempOffset    float64

	humidityBase, humiditySpan int
	windBase, windSpan         int
	uvSpan                     int
}

var cities = []city{
	{name: "Mumbai", lat: 19.0760, lon: 72.8777, alt: 14, humidityBase: 60, humiditySpan: 20, windBase: 10, windSpan: 15, uvSpan: 8},
	{name: "Bengaluru", lat: 12.9716, lon: 77.5946, alt: 920, tempOffset: -3, humidityBase: 50, humiditySpan: 25, windBase: 8, windSpan: 12, uvSpan: 7},
}

// Options controls a seeding run.
type Options struct {
	Date  time.Time
	Reset bool
	// Rand drives the random fields; nil uses a time-seeded source.
	Rand *rand.Rand
}

// Result summarizes what was written.
type Result struct {
	Locations []weather.Location
	Records   int
	Favorite  weather.FavoriteWithLocation
}

// TempForHour follows a daily curve with the minimum (22°C) before dawn and the
// maximum (32°C) in the afternoon, rounded to 0.1.
func TempForHour(hour int) float64 {
	const minTemp, maxTemp = 22.0, 32.0
	normalized := math.Sin(float64(hour-5) / 24 * 2 * math.Pi)
	return weather.RoundTo(minTemp+(maxTemp-minTemp)/2*(1+normalized), 1)
}

// Run creates the sample locations with 24 hourly records each and stars the first one.
func Run(ctx context.Context, db *store.Database, opts Options, log zerolog.Logger) (Result, error) {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	date := weather.DateOf(opts.Date)

	if opts.Reset {
		if err := db.Reset(ctx); err != nil {
			return Result{}, fmt.Errorf("reset: %w", err)
		}
		log.Info().Msg("cleared existing data")
	}

	var res Result
	for _, c := range cities {
		lat, lon, alt := c.lat, c.lon, c.alt
		loc, err := db.Locations().Create(ctx, weather.NewLocation{Name: c.name, Latitude: &lat, Longitude: &lon, Altitude: &alt})
		if err != nil {
			return res, fmt.Errorf("create %s: %w", c.name, err)
		}
		res.Locations = append(res.Locations, loc)

		records := make([]weather.WeatherRecord, 0, 24)
		for hour := 0; hour < 24; hour++ {
			temp := weather.RoundTo(TempForHour(hour)+c.tempOffset, 1)
			cond := conditions[rng.Intn(len(conditions))]
			humidity := c.humidityBase + rng.Intn(c.humiditySpan)
			wind := float64(c.windBase + rng.Intn(c.windSpan))
			uv := 0.0
			if hour >= 6 && hour <= 18 {
				uv = float64(rng.Intn(c.uvSpan) + 1)
			}
			records = append(records, weather.WeatherRecord{
				LocationID: loc.ID,
				Date:       date,
				Hour:       hour,
				TempC:      &temp,
				Condition:  &cond,
				Humidity:   &humidity,
				WindKph:    &wind,
				UV:         &uv,
			})
		}
		if err := db.Records().BulkInsert(ctx, records); err != nil {
			return res, fmt.Errorf("insert records for %s: %w", c.name, err)
		}
		res.Records += len(records)
		log.Info().Str("location", c.name).Str("date", date.Format(weather.DateLayout)).Int("records", len(records)).Msg("created hourly records")
	}

	fav, err := db.Favorites().Create(ctx, res.Locations[0].ID)
	if err != nil {
		return res, fmt.Errorf("create favorite: %w", err)
	}
	res.Favorite = fav
	log.Info().Str("location", fav.Location.Name).Msg("created favorite")

	return res, nil
}
