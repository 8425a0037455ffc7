package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/i474232898/weather-favorites/internal/weather"
)

const recordBatchSize = 100

// RecordRepo is the GORM-backed weather.RecordStore.
type RecordRepo struct {
	db *gorm.DB
}

var _ weather.RecordStore = (*RecordRepo)(nil)

func toRecordRows(records []weather.WeatherRecord) ([]weatherRecordRow, error) {
	rows := make([]weatherRecordRow, 0, len(records))
	for _, rec := range records {
		if rec.Hour < 0 || rec.Hour > 23 {
			return nil, fmt.Errorf("%w: hour %d out of range [0,23]", weather.ErrValidation, rec.Hour)
		}
		if rec.LocationID == 0 {
			return nil, fmt.Errorf("%w: record without location", weather.ErrValidation)
		}
		rows = append(rows, recordRowFromDomain(rec))
	}
	return rows, nil
}

// BulkInsert stores records in batches inside one transaction. An existing
// (location, date, hour) triple fails the whole call with weather.ErrConflict.
func (r *RecordRepo) BulkInsert(ctx context.Context, records []weather.WeatherRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows, err := toRecordRows(records)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(&rows, recordBatchSize).Error
	})
	return translate(err, "insert weather records")
}

// Upsert inserts records and overwrites the measurements of existing triples.
func (r *RecordRepo) Upsert(ctx context.Context, records []weather.WeatherRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows, err := toRecordRows(records)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}, {Name: "date"}, {Name: "hour"}},
			DoUpdates: clause.AssignmentColumns([]string{"temp_c", "condition", "humidity", "wind_kph", "uv", "updated_at"}),
		}).
		CreateInBatches(&rows, recordBatchSize).Error
	return translate(err, "upsert weather records")
}

func (r *RecordRepo) QueryByLocationAndDate(ctx context.Context, locationID uint, date time.Time) ([]weather.WeatherRecord, error) {
	var rows []weatherRecordRow
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND date = ?", locationID, weather.DateOf(date)).
		Order("hour ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "query weather records")
	}

	out := make([]weather.WeatherRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
