package seed

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-favorites/internal/store"
)

func TestTempForHour(t *testing.T) {
	is := is.New(t)

	is.Equal(TempForHour(5), 27.0)  // curve midpoint
	is.Equal(TempForHour(11), 32.0) // peak
	is.Equal(TempForHour(23), 22.0) // trough
}

func TestRunSeedsBothCities(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	db, err := store.NewDatabaseConnection(store.NewSQLiteConnector("file:seed_run?mode=memory&cache=shared", zerolog.Nop()), store.Settings{})
	is.NoErr(err)
	defer db.Close()

	opts := Options{
		Date:  time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC),
		Reset: true,
		Rand:  rand.New(rand.NewSource(1)),
	}
	res, err := Run(ctx, db, opts, zerolog.Nop())
	is.NoErr(err)
	is.Equal(len(res.Locations), 2)
	is.Equal(res.Records, 48)
	is.Equal(res.Favorite.Location.Name, "Mumbai")

	rows, err := db.Records().QueryByLocationAndDate(ctx, res.Locations[1].ID, opts.Date)
	is.NoErr(err)
	is.Equal(len(rows), 24)
	is.Equal(*rows[0].UV, 0.0) // night hours carry no UV

	// a second run with reset starts over instead of failing on duplicates
	_, err = Run(ctx, db, opts, zerolog.Nop())
	is.NoErr(err)
	locs, err := db.Locations().ListAll(ctx)
	is.NoErr(err)
	is.Equal(len(locs), 2)
}
