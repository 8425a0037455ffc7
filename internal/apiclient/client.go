package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-favorites/internal/weather"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:5000"

// FieldDetail is one field-level validation failure reported by the API.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx API response.
type APIError struct {
	Status  int
	Message string
	Details []FieldDetail
	// Existing is set on 409 responses to location creation.
	Existing *weather.Location
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Message)
	}
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// IsNotFound reports whether err is a 404 API response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client calls the weather favorites HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	favorites  *FavoritesCache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithFavoritesCache enables the local favorites cache.
func WithFavoritesCache(cache *FavoritesCache) Option {
	return func(cl *Client) { cl.favorites = cache }
}

func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetForecast fetches the hourly forecast of location (an id or a name) for date
// (YYYY-MM-DD). An empty source lets the server pick its default.
func (c *Client) GetForecast(ctx context.Context, location, date string, source weather.SourceMode) (weather.Forecast, error) {
	q := url.Values{}
	q.Set("location", location)
	q.Set("date", date)
	if source != "" {
		q.Set("source", string(source))
	}
	var out weather.Forecast
	err := c.do(ctx, http.MethodGet, "/api/forecast?"+q.Encode(), nil, &out)
	return out, err
}

// CreateLocationInput is the body of a location creation.
type CreateLocationInput struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

type locationEnvelope struct {
	Message  string           `json:"message"`
	Location weather.Location `json:"location"`
}

func (c *Client) CreateLocation(ctx context.Context, in CreateLocationInput) (weather.Location, error) {
	var out locationEnvelope
	err := c.do(ctx, http.MethodPost, "/api/locations", in, &out)
	return out.Location, err
}

// QuickAddLocation creates a location from a name only; the server geocodes it.
func (c *Client) QuickAddLocation(ctx context.Context, name string) (weather.Location, error) {
	var out locationEnvelope
	err := c.do(ctx, http.MethodPost, "/api/locations/quick", map[string]string{"name": name}, &out)
	return out.Location, err
}

func (c *Client) GetLocation(ctx context.Context, id uint) (weather.Location, error) {
	var out weather.Location
	err := c.do(ctx, http.MethodGet, "/api/locations/"+strconv.FormatUint(uint64(id), 10), nil, &out)
	return out, err
}

func (c *Client) ListLocations(ctx context.Context) ([]weather.Location, error) {
	var out []weather.Location
	err := c.do(ctx, http.MethodGet, "/api/locations", nil, &out)
	return out, err
}

// ListFavorites returns the favorites, newest first, and refreshes the local cache.
func (c *Client) ListFavorites(ctx context.Context) ([]weather.FavoriteWithLocation, error) {
	var out []weather.FavoriteWithLocation
	if err := c.do(ctx, http.MethodGet, "/api/favorites", nil, &out); err != nil {
		return nil, err
	}
	if c.favorites != nil {
		_ = c.favorites.Save(FavoriteLocations(out))
	}
	return out, nil
}

// FavoriteLocations returns the locations of the favorites.
func FavoriteLocations(favs []weather.FavoriteWithLocation) []weather.LocationRef {
	out := make([]weather.LocationRef, 0, len(favs))
	for _, f := range favs {
		out = append(out, f.Location)
	}
	return out
}

// Favorites returns the favorite locations. When the API cannot be reached and a
// cache is configured, the cached list is returned with cached set to true.
func (c *Client) Favorites(ctx context.Context) (locations []weather.LocationRef, cached bool, err error) {
	favs, err := c.ListFavorites(ctx)
	if err == nil {
		return FavoriteLocations(favs), false, nil
	}
	var apiErr *APIError
	if c.favorites == nil || errors.As(err, &apiErr) {
		return nil, false, err
	}
	locs, cacheErr := c.favorites.Load()
	if cacheErr != nil {
		return nil, false, errors.Join(err, cacheErr)
	}
	return locs, true, nil
}

// AddFavoriteResult is the outcome of starring a location.
type AddFavoriteResult struct {
	Message  string                       `json:"message"`
	Favorite weather.FavoriteWithLocation `json:"favorite"`
	// Created is false when the location already was a favorite.
	Created bool `json:"-"`
}

func (c *Client) AddFavorite(ctx context.Context, locationID uint) (AddFavoriteResult, error) {
	var out AddFavoriteResult
	status, err := c.doStatus(ctx, http.MethodPost, "/api/favorites", map[string]uint{"locationId": locationID}, &out)
	out.Created = status == http.StatusCreated
	if err == nil && c.favorites != nil {
		_, _ = c.ListFavorites(ctx)
	}
	return out, err
}

// AddFavoriteByRef stars the location of a forecast. A location without an id is
// first created through quick-add; an existing location of that name is reused.
func (c *Client) AddFavoriteByRef(ctx context.Context, ref weather.LocationRef) (AddFavoriteResult, error) {
	if ref.ID != nil {
		return c.AddFavorite(ctx, *ref.ID)
	}
	if strings.TrimSpace(ref.Name) == "" {
		return AddFavoriteResult{}, errors.New("missing location id and name")
	}

	loc, err := c.QuickAddLocation(ctx, ref.Name)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict && apiErr.Existing != nil {
		loc, err = *apiErr.Existing, nil
	}
	if err != nil {
		return AddFavoriteResult{}, err
	}
	if loc.ID == 0 {
		return AddFavoriteResult{}, errors.New("missing location id")
	}
	return c.AddFavorite(ctx, loc.ID)
}

// AddFavoriteByName resolves name through the forecast endpoint for date and stars
// the resulting location.
func (c *Client) AddFavoriteByName(ctx context.Context, name, date string) (AddFavoriteResult, error) {
	forecast, err := c.GetForecast(ctx, name, date, "")
	if err != nil {
		return AddFavoriteResult{}, err
	}
	if forecast.Location.Name == "" {
		forecast.Location.Name = name
	}
	return c.AddFavoriteByRef(ctx, forecast.Location)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	_, err := c.doStatus(ctx, method, path, body, out)
	return err
}

func (c *Client) doStatus(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func decodeAPIError(status int, raw []byte) error {
	var body struct {
		Message  string            `json:"message"`
		Details  []FieldDetail     `json:"details"`
		Location *weather.Location `json:"location"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}
	apiErr.Message = body.Message
	apiErr.Details = body.Details
	if status == http.StatusConflict {
		apiErr.Existing = body.Location
	}
	return apiErr
}
