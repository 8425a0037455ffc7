package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/i474232898/weather-favorites/internal/common"
	"github.com/i474232898/weather-favorites/internal/weather"
)

// LocationRepo is the GORM-backed weather.LocationStore.
type LocationRepo struct {
	db *gorm.DB
}

var _ weather.LocationStore = (*LocationRepo)(nil)

func (r *LocationRepo) Create(ctx context.Context, in weather.NewLocation) (weather.Location, error) {
	row := locationRow{
		Name:      in.Name,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Altitude:  in.Altitude,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return weather.Location{}, translate(err, "create location")
	}
	return row.toDomain(), nil
}

func (r *LocationRepo) GetByID(ctx context.Context, id uint) (weather.Location, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetByName returns the oldest location whose name equals name exactly.
func (r *LocationRepo) GetByName(ctx context.Context, name string) (weather.Location, error) {
	return r.first(r.db.WithContext(ctx).Where("name = ?", name).Order("id ASC"))
}

func (r *LocationRepo) ListAll(ctx context.Context) ([]weather.Location, error) {
	var rows []locationRow
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translate(err, "list locations")
	}

	out := make([]weather.Location, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// FindByNamePattern matches substring case-insensitively anywhere in the name. Ties are
// broken by name, then id.
func (r *LocationRepo) FindByNamePattern(ctx context.Context, substring string) (weather.Location, error) {
	pattern := "%" + common.EscapeLike(strings.ToLower(substring)) + "%"
	return r.first(r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '!'", pattern).
		Order("name ASC").
		Order("id ASC"))
}

func (r *LocationRepo) first(q *gorm.DB) (weather.Location, error) {
	var rows []locationRow
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return weather.Location{}, translate(err, "find location")
	}
	if len(rows) == 0 {
		return weather.Location{}, weather.ErrLocationNotFound
	}
	return rows[0].toDomain(), nil
}
