package store

import (
	"time"

	"github.com/i474232898/weather-favorites/internal/weather"
)

type locationRow struct {
	ID        uint     `gorm:"primaryKey"`
	Name      string   `gorm:"size:255;not null;index"`
	Latitude  *float64 `gorm:"type:decimal(10,6)"`
	Longitude *float64 `gorm:"type:decimal(10,6)"`
	Altitude  *float64 `gorm:"type:decimal(10,2)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (locationRow) TableName() string { return "locations" }

func (r locationRow) toDomain() weather.Location {
	return weather.Location{
		ID:        r.ID,
		Name:      r.Name,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Altitude:  r.Altitude,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// weatherRecordRow holds at most one row per (location, date, hour).
type weatherRecordRow struct {
	ID         uint        `gorm:"primaryKey"`
	LocationID uint        `gorm:"not null;uniqueIndex:unique_location_date_hour,priority:1"`
	Location   locationRow `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Date       time.Time   `gorm:"type:date;not null;uniqueIndex:unique_location_date_hour,priority:2"`
	Hour       int         `gorm:"not null;uniqueIndex:unique_location_date_hour,priority:3"`
	TempC      *float64
	Condition  *string `gorm:"size:64"`
	Humidity   *int
	WindKph    *float64
	UV         *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (weatherRecordRow) TableName() string { return "weather_data" }

func recordRowFromDomain(r weather.WeatherRecord) weatherRecordRow {
	return weatherRecordRow{
		ID:         r.ID,
		LocationID: r.LocationID,
		Date:       weather.DateOf(r.Date),
		Hour:       r.Hour,
		TempC:      r.TempC,
		Condition:  r.Condition,
		Humidity:   r.Humidity,
		WindKph:    r.WindKph,
		UV:         r.UV,
	}
}

func (r weatherRecordRow) toDomain() weather.WeatherRecord {
	return weather.WeatherRecord{
		ID:         r.ID,
		LocationID: r.LocationID,
		Date:       weather.DateOf(r.Date),
		Hour:       r.Hour,
		TempC:      r.TempC,
		Condition:  r.Condition,
		Humidity:   r.Humidity,
		WindKph:    r.WindKph,
		UV:         r.UV,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// favoriteRow is unique per location.
type favoriteRow struct {
	ID         uint        `gorm:"primaryKey"`
	LocationID uint        `gorm:"not null;uniqueIndex"`
	Location   locationRow `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (favoriteRow) TableName() string { return "favorites" }

func (r favoriteRow) toDomain() weather.FavoriteWithLocation {
	return weather.FavoriteWithLocation{
		Favorite: weather.Favorite{
			ID:         r.ID,
			LocationID: r.LocationID,
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
		},
		Location: r.Location.toDomain().Ref(),
	}
}
