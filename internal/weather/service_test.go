package weather

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeLocations struct {
	rows   []Location
	nextID uint
}

func (f *fakeLocations) Create(_ context.Context, in NewLocation) (Location, error) {
	f.nextID++
	loc := Location{ID: f.nextID, Name: in.Name, Latitude: in.Latitude, Longitude: in.Longitude, Altitude: in.Altitude}
	f.rows = append(f.rows, loc)
	return loc, nil
}

func (f *fakeLocations) GetByID(_ context.Context, id uint) (Location, error) {
	for _, l := range f.rows {
		if l.ID == id {
			return l, nil
		}
	}
	return Location{}, ErrLocationNotFound
}

func (f *fakeLocations) GetByName(_ context.Context, name string) (Location, error) {
	for _, l := range f.rows {
		if l.Name == name {
			return l, nil
		}
	}
	return Location{}, ErrLocationNotFound
}

func (f *fakeLocations) ListAll(context.Context) ([]Location, error) {
	out := append([]Location(nil), f.rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeLocations) FindByNamePattern(ctx context.Context, sub string) (Location, error) {
	all, _ := f.ListAll(ctx)
	for _, l := range all {
		if strings.Contains(strings.ToLower(l.Name), strings.ToLower(sub)) {
			return l, nil
		}
	}
	return Location{}, ErrLocationNotFound
}

type fakeRecords struct {
	rows     []WeatherRecord
	upserted []WeatherRecord
}

func (f *fakeRecords) BulkInsert(_ context.Context, records []WeatherRecord) error {
	f.rows = append(f.rows, records...)
	return nil
}

func (f *fakeRecords) Upsert(_ context.Context, records []WeatherRecord) error {
	f.upserted = append(f.upserted, records...)
	return nil
}

func (f *fakeRecords) QueryByLocationAndDate(_ context.Context, id uint, date time.Time) ([]WeatherRecord, error) {
	var out []WeatherRecord
	for _, r := range f.rows {
		if r.LocationID == id && r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out, nil
}

type fakeFavorites struct {
	rows      []FavoriteWithLocation
	conflicts int // Create fails with ErrConflict this many times after inserting
}

func (f *fakeFavorites) ListAllWithLocation(context.Context) ([]FavoriteWithLocation, error) {
	return f.rows, nil
}

func (f *fakeFavorites) FindByLocationID(_ context.Context, id uint) (FavoriteWithLocation, error) {
	for _, r := range f.rows {
		if r.LocationID == id {
			return r, nil
		}
	}
	return FavoriteWithLocation{}, ErrFavoriteNotFound
}

func (f *fakeFavorites) Create(_ context.Context, id uint) (FavoriteWithLocation, error) {
	fav := FavoriteWithLocation{Favorite: Favorite{ID: uint(len(f.rows) + 1), LocationID: id}}
	f.rows = append(f.rows, fav)
	if f.conflicts > 0 {
		f.conflicts--
		return FavoriteWithLocation{}, fmt.Errorf("%w: duplicate", ErrConflict)
	}
	return fav, nil
}

type fakeGateway struct {
	geo       map[string]*GeoResult
	hourly    []HourlyEntry
	geoErr    error
	fetchErr  error
	geocodes  []string
	fetches   int
	lastCoord [2]float64
}

func (g *fakeGateway) Geocode(_ context.Context, name string) (*GeoResult, error) {
	g.geocodes = append(g.geocodes, name)
	if g.geoErr != nil {
		return nil, g.geoErr
	}
	return g.geo[strings.ToLower(name)], nil
}

func (g *fakeGateway) FetchHourlyForecast(_ context.Context, lat, lon float64, _ time.Time) ([]HourlyEntry, error) {
	g.fetches++
	g.lastCoord = [2]float64{lat, lon}
	return g.hourly, g.fetchErr
}

type mapCache struct {
	data map[string][]HourlyEntry
}

func (m *mapCache) key(lat, lon float64, d time.Time) string {
	return fmt.Sprintf("%.4f:%.4f:%s", lat, lon, d.Format(DateLayout))
}

func (m *mapCache) Get(lat, lon float64, d time.Time) ([]HourlyEntry, bool) {
	v, ok := m.data[m.key(lat, lon, d)]
	return v, ok
}

func (m *mapCache) Save(lat, lon float64, d time.Time, e []HourlyEntry) {
	m.data[m.key(lat, lon, d)] = e
}

var testDay = time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

type fixture struct {
	locations *fakeLocations
	records   *fakeRecords
	favorites *fakeFavorites
	gateway   *fakeGateway
	svc       *Service
}

func newFixture(t *testing.T, withGateway bool, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		locations: &fakeLocations{},
		records:   &fakeRecords{},
		favorites: &fakeFavorites{},
		gateway: &fakeGateway{
			geo:    map[string]*GeoResult{},
			hourly: []HourlyEntry{{Time: testDay, Hour: 0, TempC: fp(12), Condition: "overcast"}},
		},
	}
	opts.Logger = zerolog.Nop()
	var gw Gateway
	if withGateway {
		gw = f.gateway
	}
	f.svc = NewService(f.locations, f.records, f.favorites, gw, nil, opts)
	return f
}

func (f *fixture) addCity(t *testing.T, name string, lat, lon *float64, hours int) Location {
	t.Helper()
	loc, err := f.locations.Create(context.Background(), NewLocation{Name: name, Latitude: lat, Longitude: lon})
	require.NoError(t, err)
	for h := hours - 1; h >= 0; h-- {
		cond := "clear"
		f.records.rows = append(f.records.rows, WeatherRecord{LocationID: loc.ID, Date: testDay, Hour: h, TempC: fp(float64(20 + h)), Condition: &cond})
	}
	return loc
}

func TestGetForecastFromStoreMapsRowsInHourOrder(t *testing.T) {
	f := newFixture(t, true, Options{DefaultSource: SourceAuto})
	loc := f.addCity(t, "TestCity", fp(1), fp(2), 24)

	out, err := f.svc.GetForecast(context.Background(), "TestCity", testDay, "")
	require.NoError(t, err)
	require.Equal(t, SourceDB, out.Source)
	require.Equal(t, "2025-11-19", out.Date)
	require.Equal(t, loc.ID, *out.Location.ID)
	require.Len(t, out.Hourly, 24)
	for i, e := range out.Hourly {
		require.Equal(t, i, e.Hour)
		require.Equal(t, testDay.Add(time.Duration(i)*time.Hour), e.Time)
		require.Equal(t, float64(20+i), *e.TempC)
	}
	require.Zero(t, f.gateway.fetches)
}

func TestGetForecastDBModeUnknownLocation(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.addCity(t, "TestCity", nil, nil, 24)

	_, err := f.svc.GetForecast(context.Background(), "NonExistentCity", testDay, SourceDB)
	require.ErrorIs(t, err, ErrLocationNotFound)
	require.Empty(t, f.gateway.geocodes)
}

func TestGetForecastDBModeNoRows(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.addCity(t, "TestCity", fp(1), fp(2), 24)

	_, err := f.svc.GetForecast(context.Background(), "TestCity", testDay.AddDate(0, 1, 6), SourceDB)
	require.ErrorIs(t, err, ErrNoForecastData)
	require.Zero(t, f.gateway.fetches)
}

func TestGetForecastResolvesByID(t *testing.T) {
	f := newFixture(t, false, Options{})
	loc := f.addCity(t, "TestCity", nil, nil, 3)

	out, err := f.svc.GetForecast(context.Background(), fmt.Sprint(loc.ID), testDay, SourceDB)
	require.NoError(t, err)
	require.Len(t, out.Hourly, 3)

	_, err = f.svc.GetForecast(context.Background(), "0", testDay, SourceDB)
	require.ErrorIs(t, err, ErrLocationNotFound)
}

func TestResolveLocationTypoTolerance(t *testing.T) {
	f := newFixture(t, false, Options{})
	f.addCity(t, "Mumbai", nil, nil, 0)

	loc, err := f.svc.ResolveLocation(context.Background(), "Mumbaii")
	require.NoError(t, err)
	require.Equal(t, "Mumbai", loc.Name)

	loc, err = f.svc.ResolveLocation(context.Background(), "mum")
	require.NoError(t, err)
	require.Equal(t, "Mumbai", loc.Name)

	// three characters or fewer get no retry
	_, err = f.svc.ResolveLocation(context.Background(), "mux")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetForecastAutoFallsBackToStoredCoordinates(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.addCity(t, "TestCity", fp(10), fp(20), 0)

	out, err := f.svc.GetForecast(context.Background(), "TestCity", testDay, SourceAuto)
	require.NoError(t, err)
	require.Equal(t, SourceExternal, out.Source)
	require.Equal(t, "TestCity", out.Location.Name)
	require.NotNil(t, out.Location.ID)
	require.Equal(t, [2]float64{10, 20}, f.gateway.lastCoord)
	require.Empty(t, f.gateway.geocodes)
}

func TestGetForecastGeocodesResolvedLocationWithoutCoordinates(t *testing.T) {
	f := newFixture(t, true, Options{})
	loc := f.addCity(t, "Pune", nil, nil, 0)
	f.gateway.geo["pune"] = &GeoResult{Latitude: 18.52, Longitude: 73.85, ResolvedName: "Pune"}

	out, err := f.svc.GetForecast(context.Background(), fmt.Sprint(loc.ID), testDay, SourceExternal)
	require.NoError(t, err)
	require.Equal(t, []string{"Pune"}, f.gateway.geocodes) // the stored name, not the id
	require.Equal(t, loc.ID, *out.Location.ID)
}

func TestGetForecastSynthesizesUnresolvedLocation(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.gateway.geo["paris"] = &GeoResult{Latitude: 48.85, Longitude: 2.35, ResolvedName: "Paris"}

	out, err := f.svc.GetForecast(context.Background(), "paris", testDay, SourceAuto)
	require.NoError(t, err)
	require.Nil(t, out.Location.ID)
	require.Equal(t, "Paris", out.Location.Name)
	require.Equal(t, 48.85, *out.Location.Latitude)
	require.Nil(t, out.Location.Altitude)
}

func TestGetForecastExternalNoMatch(t *testing.T) {
	f := newFixture(t, true, Options{})

	_, err := f.svc.GetForecast(context.Background(), "Atlantis", testDay, SourceExternal)
	require.ErrorIs(t, err, ErrLocationNotFound)

	_, err = f.svc.GetForecast(context.Background(), "12345", testDay, SourceExternal)
	require.ErrorIs(t, err, ErrLocationNotFound)
	require.Equal(t, []string{"Atlantis"}, f.gateway.geocodes) // numeric ids are never geocoded
}

func TestGetForecastOversizedIDIsNotAName(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.addCity(t, "Route 99999999999999999999", fp(1), fp(2), 24)

	_, err := f.svc.GetForecast(context.Background(), "99999999999999999999", testDay, SourceDB)
	require.ErrorIs(t, err, ErrLocationNotFound)

	_, err = f.svc.GetForecast(context.Background(), "-99999999999999999999", testDay, SourceAuto)
	require.ErrorIs(t, err, ErrLocationNotFound)
	require.Empty(t, f.gateway.geocodes)
}

func TestGetForecastExternalEmptyHourly(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.addCity(t, "TestCity", fp(1), fp(2), 0)
	f.gateway.hourly = nil

	_, err := f.svc.GetForecast(context.Background(), "TestCity", testDay, SourceAuto)
	require.ErrorIs(t, err, ErrNoForecastData)
}

func TestGetForecastPropagatesUpstreamErrors(t *testing.T) {
	f := newFixture(t, true, Options{})
	f.gateway.geoErr = fmt.Errorf("%w: boom", ErrUpstream)

	_, err := f.svc.GetForecast(context.Background(), "Paris", testDay, SourceAuto)
	require.ErrorIs(t, err, ErrUpstream)
}

func TestGetForecastWithoutGatewayIsStoreOnly(t *testing.T) {
	f := newFixture(t, false, Options{})
	f.addCity(t, "TestCity", fp(1), fp(2), 0)

	_, err := f.svc.GetForecast(context.Background(), "TestCity", testDay, SourceExternal)
	require.ErrorIs(t, err, ErrNoForecastData)
	_, err = f.svc.GetForecast(context.Background(), "Paris", testDay, SourceAuto)
	require.ErrorIs(t, err, ErrLocationNotFound)
}

func TestGetForecastUsesCache(t *testing.T) {
	f := newFixture(t, true, Options{})
	cache := &mapCache{data: map[string][]HourlyEntry{}}
	f.svc.cache = cache
	f.addCity(t, "TestCity", fp(1), fp(2), 0)

	for i := 0; i < 2; i++ {
		_, err := f.svc.GetForecast(context.Background(), "TestCity", testDay, SourceExternal)
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.gateway.fetches)
}

func TestCreateLocation(t *testing.T) {
	f := newFixture(t, true, Options{AutoGeocode: true})
	f.gateway.geo["oslo"] = &GeoResult{Latitude: 59.91, Longitude: 10.75, ResolvedName: "Oslo"}

	loc, err := f.svc.CreateLocation(context.Background(), NewLocation{Name: "  Oslo "})
	require.NoError(t, err)
	require.Equal(t, "Oslo", loc.Name)
	require.Equal(t, 59.91, *loc.Latitude)

	_, err = f.svc.CreateLocation(context.Background(), NewLocation{Name: "Oslo"})
	var exists *LocationExistsError
	require.ErrorAs(t, err, &exists)
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, loc.ID, exists.Existing.ID)

	_, err = f.svc.CreateLocation(context.Background(), NewLocation{Name: " "})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateLocationKeepsGivenCoordinates(t *testing.T) {
	f := newFixture(t, true, Options{AutoGeocode: true})

	loc, err := f.svc.CreateLocation(context.Background(), NewLocation{Name: "NewCity", Latitude: fp(15.5), Longitude: fp(25.5)})
	require.NoError(t, err)
	require.Equal(t, 15.5, *loc.Latitude)
	require.Empty(t, f.gateway.geocodes)
}

func TestCreateLocationSwallowsGeocodeFailure(t *testing.T) {
	f := newFixture(t, true, Options{AutoGeocode: true})
	f.gateway.geoErr = errors.New("network down")

	loc, err := f.svc.CreateLocation(context.Background(), NewLocation{Name: "Somewhere"})
	require.NoError(t, err)
	require.Nil(t, loc.Latitude)
}

func TestAddFavorite(t *testing.T) {
	f := newFixture(t, false, Options{})
	loc := f.addCity(t, "TestCity", nil, nil, 0)

	first, created, err := f.svc.AddFavorite(context.Background(), loc.ID)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.svc.AddFavorite(context.Background(), loc.ID)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)

	_, _, err = f.svc.AddFavorite(context.Background(), 99999)
	require.ErrorIs(t, err, ErrLocationNotFound)
}

func TestAddFavoriteLostRaceReturnsExisting(t *testing.T) {
	f := newFixture(t, false, Options{})
	loc := f.addCity(t, "TestCity", nil, nil, 0)
	f.favorites.conflicts = 1

	fav, created, err := f.svc.AddFavorite(context.Background(), loc.ID)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, loc.ID, fav.LocationID)
}

func TestFetchAndStore(t *testing.T) {
	f := newFixture(t, true, Options{})
	loc := f.addCity(t, "TestCity", fp(1), fp(2), 0)

	n, err := f.svc.FetchAndStore(context.Background(), loc, testDay)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, f.records.upserted, 1)
	require.Equal(t, loc.ID, f.records.upserted[0].LocationID)
	require.Equal(t, "overcast", *f.records.upserted[0].Condition)

	n, err = f.svc.FetchAndStore(context.Background(), Location{ID: 9, Name: "NoCoords"}, testDay)
	require.NoError(t, err)
	require.Zero(t, n)
}
