package weather

import (
	"math"
	"time"
)

const unknownCondition = "unknown"

// EntryFromRecord maps a stored record to the canonical hourly entry. Time is the
// record's date at its hour, UTC, with zero minutes and seconds.
func EntryFromRecord(r WeatherRecord) HourlyEntry {
	d := DateOf(r.Date)
	cond := unknownCondition
	if r.Condition != nil && *r.Condition != "" {
		cond = *r.Condition
	}
	return HourlyEntry{
		Time:      d.Add(time.Duration(r.Hour) * time.Hour),
		Hour:      r.Hour,
		TempC:     r.TempC,
		Condition: cond,
		Humidity:  r.Humidity,
		WindKph:   r.WindKph,
		UV:        r.UV,
	}
}

// RecordFromEntry converts an external hourly entry to a record for the given location.
// The record date is the entry's UTC calendar date.
func RecordFromEntry(locationID uint, e HourlyEntry) WeatherRecord {
	cond := e.Condition
	return WeatherRecord{
		LocationID: locationID,
		Date:       DateOf(e.Time),
		Hour:       e.Time.UTC().Hour(),
		TempC:      e.TempC,
		Condition:  &cond,
		Humidity:   e.Humidity,
		WindKph:    e.WindKph,
		UV:         e.UV,
	}
}

// RoundTo rounds v to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
