package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/i474232898/weather-favorites/internal/weather"
)

// FavoriteRepo is the GORM-backed weather.FavoriteStore.
type FavoriteRepo struct {
	db *gorm.DB
}

var _ weather.FavoriteStore = (*FavoriteRepo)(nil)

func (r *FavoriteRepo) ListAllWithLocation(ctx context.Context) ([]weather.FavoriteWithLocation, error) {
	var rows []favoriteRow
	err := r.db.WithContext(ctx).
		Preload("Location").
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list favorites")
	}

	out := make([]weather.FavoriteWithLocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *FavoriteRepo) FindByLocationID(ctx context.Context, locationID uint) (weather.FavoriteWithLocation, error) {
	var rows []favoriteRow
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("location_id = ?", locationID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return weather.FavoriteWithLocation{}, translate(err, "find favorite")
	}
	if len(rows) == 0 {
		return weather.FavoriteWithLocation{}, weather.ErrFavoriteNotFound
	}
	return rows[0].toDomain(), nil
}

// Create stars a location. A missing location yields weather.ErrLocationNotFound and
// an existing favorite for it weather.ErrConflict.
func (r *FavoriteRepo) Create(ctx context.Context, locationID uint) (weather.FavoriteWithLocation, error) {
	var loc locationRow
	err := r.db.WithContext(ctx).Where("id = ?", locationID).Limit(1).Find(&loc).Error
	if err != nil {
		return weather.FavoriteWithLocation{}, translate(err, "find location")
	}
	if loc.ID == 0 {
		return weather.FavoriteWithLocation{}, weather.ErrLocationNotFound
	}

	row := favoriteRow{LocationID: locationID}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return weather.FavoriteWithLocation{}, translate(err, "create favorite")
	}
	row.Location = loc
	return row.toDomain(), nil
}
