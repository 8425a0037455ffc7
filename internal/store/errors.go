package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/i474232898/weather-favorites/internal/common"
	"github.com/i474232898/weather-favorites/internal/weather"
)

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return common.HasAny(strings.ToLower(err.Error()), "unique constraint", "duplicate key", "duplicate entry")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return common.HasAny(strings.ToLower(err.Error()), "foreign key")
}

// translate maps storage errors onto the weather error kinds.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case isDuplicateKey(err):
		return fmt.Errorf("%w: %s: %v", weather.ErrConflict, what, err)
	case isForeignKeyViolation(err):
		return weather.ErrLocationNotFound
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
