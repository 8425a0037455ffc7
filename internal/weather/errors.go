package weather

import (
	"errors"
)

// Error kinds. Concrete errors wrap one of these so callers can use errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrUpstream   = errors.New("upstream failure")
	ErrValidation = errors.New("validation failed")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

var (
	ErrLocationNotFound = &kindError{kind: ErrNotFound, msg: "Location not found"}
	ErrNoForecastData   = &kindError{kind: ErrNotFound, msg: "No forecast data available for this date"}
	ErrFavoriteNotFound = &kindError{kind: ErrNotFound, msg: "Favorite not found"}
)

// LocationExistsError is returned when a location with the exact same name already exists.
type LocationExistsError struct {
	Existing Location
}

func (e *LocationExistsError) Error() string {
	return "Location with this name already exists"
}

func (e *LocationExistsError) Unwrap() error { return ErrConflict }
