package weather

import (
	"context"
	"time"
)

// LocationStore persists locations.
type LocationStore interface {
	Create(ctx context.Context, in NewLocation) (Location, error)
	GetByID(ctx context.Context, id uint) (Location, error)
	GetByName(ctx context.Context, name string) (Location, error)
	ListAll(ctx context.Context) ([]Location, error)
	// FindByNamePattern returns the first case-insensitive substring match in
	// name order, or ErrLocationNotFound.
	FindByNamePattern(ctx context.Context, substring string) (Location, error)
}

// RecordStore persists hourly weather records.
type RecordStore interface {
	BulkInsert(ctx context.Context, records []WeatherRecord) error
	Upsert(ctx context.Context, records []WeatherRecord) error
	// QueryByLocationAndDate returns the records sorted by hour ascending.
	QueryByLocationAndDate(ctx context.Context, locationID uint, date time.Time) ([]WeatherRecord, error)
}

// FavoriteStore persists favorites.
type FavoriteStore interface {
	ListAllWithLocation(ctx context.Context) ([]FavoriteWithLocation, error)
	FindByLocationID(ctx context.Context, locationID uint) (FavoriteWithLocation, error)
	Create(ctx context.Context, locationID uint) (FavoriteWithLocation, error)
}

// Gateway is the external geocoding and forecast source.
type Gateway interface {
	// Geocode returns nil without error when nothing matches.
	Geocode(ctx context.Context, name string) (*GeoResult, error)
	FetchHourlyForecast(ctx context.Context, latitude, longitude float64, date time.Time) ([]HourlyEntry, error)
}

// ForecastCache keeps recent external forecasts.
type ForecastCache interface {
	Get(latitude, longitude float64, date time.Time) ([]HourlyEntry, bool)
	Save(latitude, longitude float64, date time.Time, entries []HourlyEntry)
}
