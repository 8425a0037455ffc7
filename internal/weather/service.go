package weather

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// minFuzzyLength is the name length above which the drop-last-character retry applies.
const minFuzzyLength = 3

// Options tunes Service behaviour.
type Options struct {
	// DefaultSource is used when a request does not name a source mode.
	DefaultSource SourceMode
	// AutoGeocode fills missing coordinates on location creation.
	AutoGeocode bool
	Logger      zerolog.Logger
}

// Service resolves forecasts and manages locations and favorites.
type Service struct {
	locations LocationStore
	records   RecordStore
	favorites FavoriteStore
	gateway   Gateway
	cache     ForecastCache
	opts      Options
	log       zerolog.Logger
}

// NewService creates a new Service. gateway and cache may be nil; without a gateway
// the external path never yields data.
func NewService(locations LocationStore, records RecordStore, favorites FavoriteStore, gateway Gateway, cache ForecastCache, opts Options) *Service {
	if opts.DefaultSource == "" {
		opts.DefaultSource = SourceAuto
	}
	return &Service{
		locations: locations,
		records:   records,
		favorites: favorites,
		gateway:   gateway,
		cache:     cache,
		opts:      opts,
		log:       opts.Logger.With().Str("component", "weather").Logger(),
	}
}

// DefaultSource returns the source mode applied when a request names none.
func (s *Service) DefaultSource() SourceMode {
	return s.opts.DefaultSource
}

// GetForecast returns the hourly forecast of locationParam (an id or a name) for date.
func (s *Service) GetForecast(ctx context.Context, locationParam string, date time.Time, source SourceMode) (Forecast, error) {
	if source == "" {
		source = s.opts.DefaultSource
	}
	date = DateOf(date)
	param := strings.TrimSpace(locationParam)
	_, numeric := parseLocationID(param)
	isName := !numeric

	loc, err := s.ResolveLocation(ctx, param)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Forecast{}, err
	}
	resolved := err == nil

	if !resolved && !source.allowsExternal() {
		return Forecast{}, ErrLocationNotFound
	}

	out := Forecast{Date: date.Format(DateLayout)}
	if resolved {
		out.Location = loc.Ref()
	}

	if source.allowsDB() && resolved {
		rows, err := s.records.QueryByLocationAndDate(ctx, loc.ID, date)
		if err != nil {
			return Forecast{}, err
		}
		if len(rows) > 0 {
			out.Hourly = make([]HourlyEntry, 0, len(rows))
			for _, r := range rows {
				out.Hourly = append(out.Hourly, EntryFromRecord(r))
			}
			out.Source = SourceDB
			return out, nil
		}
	}

	if source.allowsExternal() && s.gateway != nil {
		var lat, lon *float64
		locName := ""
		if resolved {
			lat, lon = loc.Latitude, loc.Longitude
			locName = loc.Name
		}

		if lat == nil || lon == nil {
			query := ""
			switch {
			case isName:
				query = param
			case resolved:
				query = loc.Name
			}
			if query != "" {
				geo, err := s.gateway.Geocode(ctx, query)
				if err != nil {
					return Forecast{}, err
				}
				if geo != nil {
					lat, lon = &geo.Latitude, &geo.Longitude
					if locName == "" {
						locName = geo.ResolvedName
					}
				}
			}
		}

		if lat != nil && lon != nil {
			hourly, err := s.externalForecast(ctx, *lat, *lon, date)
			if err != nil {
				return Forecast{}, err
			}
			if len(hourly) > 0 {
				out.Hourly = hourly
				out.Source = SourceExternal
				if !resolved {
					if locName == "" {
						locName = param
					}
					la, lo := *lat, *lon
					out.Location = LocationRef{Name: locName, Latitude: &la, Longitude: &lo}
				}
				return out, nil
			}
		}
	}

	if !resolved {
		return Forecast{}, ErrLocationNotFound
	}
	return Forecast{}, ErrNoForecastData
}

func (s *Service) externalForecast(ctx context.Context, lat, lon float64, date time.Time) ([]HourlyEntry, error) {
	if s.cache != nil {
		if hourly, ok := s.cache.Get(lat, lon, date); ok {
			s.log.Debug().Float64("lat", lat).Float64("lon", lon).Str("date", date.Format(DateLayout)).Msg("forecast cache hit")
			return hourly, nil
		}
	}

	hourly, err := s.gateway.FetchHourlyForecast(ctx, lat, lon, date)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(hourly) > 0 {
		s.cache.Save(lat, lon, date, hourly)
	}
	return hourly, nil
}

// ResolveLocation looks a location up by numeric id, or by case-insensitive name
// substring with a single drop-last-character retry for names longer than 3 characters.
func (s *Service) ResolveLocation(ctx context.Context, param string) (Location, error) {
	param = strings.TrimSpace(param)
	if id, numeric := parseLocationID(param); numeric {
		if id == 0 {
			return Location{}, ErrLocationNotFound
		}
		return s.locations.GetByID(ctx, id)
	}
	if param == "" {
		return Location{}, ErrLocationNotFound
	}

	loc, err := s.locations.FindByNamePattern(ctx, param)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return loc, err
	}

	if trimmed := []rune(param); len(trimmed) > minFuzzyLength {
		return s.locations.FindByNamePattern(ctx, string(trimmed[:len(trimmed)-1]))
	}
	return Location{}, ErrLocationNotFound
}

// parseLocationID reports whether param is an integer and, if so, the id it names.
// Integers that are not positive or do not fit an id yield 0.
func parseLocationID(param string) (uint, bool) {
	n, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return 0, errors.Is(err, strconv.ErrRange)
	}
	if n <= 0 || uint64(n) > uint64(^uint(0)) {
		return 0, true
	}
	return uint(n), true
}

// CreateLocation stores a new location. A location with the exact same name yields a
// *LocationExistsError. Missing coordinates are geocoded when enabled; geocoding
// failures are logged and creation proceeds without them.
func (s *Service) CreateLocation(ctx context.Context, in NewLocation) (Location, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Location{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	existing, err := s.locations.GetByName(ctx, in.Name)
	switch {
	case err == nil:
		return Location{}, &LocationExistsError{Existing: existing}
	case !errors.Is(err, ErrNotFound):
		return Location{}, err
	}

	if (in.Latitude == nil || in.Longitude == nil) && s.opts.AutoGeocode && s.gateway != nil {
		geo, err := s.gateway.Geocode(ctx, in.Name)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("name", in.Name).Msg("geocoding failed; creating location without coordinates")
		case geo != nil:
			if in.Latitude == nil {
				lat := geo.Latitude
				in.Latitude = &lat
			}
			if in.Longitude == nil {
				lon := geo.Longitude
				in.Longitude = &lon
			}
		}
	}

	return s.locations.Create(ctx, in)
}

// GetLocation returns a location by id.
func (s *Service) GetLocation(ctx context.Context, id uint) (Location, error) {
	return s.locations.GetByID(ctx, id)
}

// ListLocations returns all locations ordered by name.
func (s *Service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.locations.ListAll(ctx)
}

// ListFavorites returns all favorites, newest first.
func (s *Service) ListFavorites(ctx context.Context) ([]FavoriteWithLocation, error) {
	return s.favorites.ListAllWithLocation(ctx)
}

// AddFavorite stars a location. It returns the existing favorite and created=false
// when the location is already a favorite.
func (s *Service) AddFavorite(ctx context.Context, locationID uint) (FavoriteWithLocation, bool, error) {
	if _, err := s.locations.GetByID(ctx, locationID); err != nil {
		return FavoriteWithLocation{}, false, err
	}

	existing, err := s.favorites.FindByLocationID(ctx, locationID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return FavoriteWithLocation{}, false, err
	}

	fav, err := s.favorites.Create(ctx, locationID)
	if errors.Is(err, ErrConflict) {
		// Lost a race against a concurrent create; the unique index kept one row.
		existing, ferr := s.favorites.FindByLocationID(ctx, locationID)
		if ferr != nil {
			return FavoriteWithLocation{}, false, ferr
		}
		return existing, false, nil
	}
	if err != nil {
		return FavoriteWithLocation{}, false, err
	}
	return fav, true, nil
}

// FetchAndStore fetches the external hourly forecast of loc for date and upserts it
// into the record store. Locations without coordinates are skipped. It returns the
// number of hourly records written.
func (s *Service) FetchAndStore(ctx context.Context, loc Location, date time.Time) (int, error) {
	if s.gateway == nil {
		return 0, fmt.Errorf("%w: external weather is disabled", ErrUpstream)
	}
	if !loc.HasCoordinates() {
		return 0, nil
	}

	hourly, err := s.gateway.FetchHourlyForecast(ctx, *loc.Latitude, *loc.Longitude, DateOf(date))
	if err != nil {
		return 0, err
	}
	records := make([]WeatherRecord, 0, len(hourly))
	for _, e := range hourly {
		records = append(records, RecordFromEntry(loc.ID, e))
	}
	if err := s.records.Upsert(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
