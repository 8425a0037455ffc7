package weather

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the wire and for record dates.
const DateLayout = "2006-01-02"

// SourceMode selects where forecast data may come from.
type SourceMode string

const (
	SourceDB       SourceMode = "db"
	SourceExternal SourceMode = "external"
	SourceAuto     SourceMode = "auto"
)

// ParseSourceMode validates a source mode string. An empty string is rejected;
// callers substitute their default first.
func ParseSourceMode(s string) (SourceMode, error) {
	switch m := SourceMode(s); m {
	case SourceDB, SourceExternal, SourceAuto:
		return m, nil
	default:
		return "", fmt.Errorf("invalid source mode %q (want db, external or auto)", s)
	}
}

func (m SourceMode) allowsDB() bool {
	return m == SourceDB || m == SourceAuto
}

func (m SourceMode) allowsExternal() bool {
	return m == SourceExternal || m == SourceAuto
}

// Location is a named place. Coordinates and altitude are optional.
type Location struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Altitude  *float64  `json:"altitude"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// NewLocation is the input for creating a location.
type NewLocation struct {
	Name      string
	Latitude  *float64
	Longitude *float64
	Altitude  *float64
}

// WeatherRecord is one stored hourly observation. (LocationID, Date, Hour) is unique.
type WeatherRecord struct {
	ID         uint
	LocationID uint
	Date       time.Time // midnight UTC
	Hour       int
	TempC      *float64
	Condition  *string
	Humidity   *int
	WindKph    *float64
	UV         *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Favorite marks a location as starred.
type Favorite struct {
	ID         uint      `json:"id"`
	LocationID uint      `json:"locationId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FavoriteWithLocation is a favorite joined with its location.
type FavoriteWithLocation struct {
	Favorite
	Location LocationRef `json:"location"`
}

// LocationRef is the compact location shape embedded in forecasts and favorites.
// ID is nil for locations synthesized from a geocoding result.
type LocationRef struct {
	ID        *uint    `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
}

// Ref returns the compact representation of a stored location.
func (l Location) Ref() LocationRef {
	id := l.ID
	return LocationRef{
		ID:        &id,
		Name:      l.Name,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Altitude:  l.Altitude,
	}
}

// HourlyEntry is the canonical hourly forecast entry, whichever source produced it.
type HourlyEntry struct {
	Time      time.Time `json:"time"` // always UTC
	Hour      int       `json:"hour"`
	TempC     *float64  `json:"tempC"`
	Condition string    `json:"condition"`
	Humidity  *int      `json:"humidity"`
	WindKph   *float64  `json:"windKph"`
	UV        *float64  `json:"uv"`
}

// Forecast is the hourly forecast of one location for one calendar date.
type Forecast struct {
	Date     string        `json:"date"`
	Location LocationRef   `json:"location"`
	Hourly   []HourlyEntry `json:"hourly"`

	// Source records which path produced Hourly (db or external).
	Source SourceMode `json:"-"`
}

// GeoResult is a geocoding match.
type GeoResult struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	ResolvedName string  `json:"name"`
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 instant and returns the UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	if d, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(ts), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q; use YYYY-MM-DD or RFC3339", s)
}
