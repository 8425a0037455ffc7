package apiclient

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/i474232898/weather-favorites/internal/weather"
)

// FavoritesCache keeps the last known favorite locations in a JSON file.
type FavoritesCache struct {
	mu   sync.Mutex
	path string
}

func NewFavoritesCache(path string) *FavoritesCache {
	return &FavoritesCache{path: path}
}

// DefaultCachePath is favorites.json under the user cache directory.
func DefaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "weather-favorites", "favorites.json")
}

// Load returns the cached locations. A missing or unreadable cache is empty.
func (c *FavoritesCache) Load() ([]weather.LocationRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []weather.LocationRef{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []weather.LocationRef
	if err := json.Unmarshal(raw, &out); err != nil {
		return []weather.LocationRef{}, nil
	}
	return out, nil
}

// Save replaces the cached locations.
func (c *FavoritesCache) Save(locations []weather.LocationRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(locations)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".favorites-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}
