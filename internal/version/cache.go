package version

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/marcus/vcpull/internal/globalconfig"
)

// cacheTTL bounds how long a release lookup is reused.
const cacheTTL = 6 * time.Hour

// now is replaced in tests to move the clock.
var now = time.Now

// CacheEntry is the last successful lookup made by one build. An entry
// written by a different build is ignored.
type CacheEntry struct {
	Current   string    `json:"current"`
	Latest    string    `json:"latest"`
	URL       string    `json:"url,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

func cachePath() (string, error) {
	dir, err := globalconfig.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "release.json"), nil
}

func readCache() (*CacheEntry, error) {
	path, err := cachePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func writeCache(e *CacheEntry) error {
	path, err := cachePath()
	if err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IsCacheValid reports whether e was recorded by the current build within
// the TTL.
func IsCacheValid(e *CacheEntry, current string) bool {
	return e != nil && e.Current == current && now().Sub(e.CheckedAt) < cacheTTL
}

// CheckCached is Check behind a per-build cache in the config directory.
// Failed lookups are not cached, so the next call retries.
func CheckCached(ctx context.Context, current string) Result {
	if IsDevelopmentVersion(current) {
		return Result{Current: current}
	}

	if e, err := readCache(); err == nil && IsCacheValid(e, current) {
		slog.Debug("version: cache hit", "current", current, "latest", e.Latest)
		return Result{
			Current:   current,
			Latest:    e.Latest,
			URL:       e.URL,
			HasUpdate: IsNewer(e.Latest, current),
		}
	}

	res := Check(ctx, current)
	if res.Err != nil {
		return res
	}
	err := writeCache(&CacheEntry{Current: current, Latest: res.Latest, URL: res.URL, CheckedAt: now()})
	if err != nil {
		slog.Debug("version: cache write failed", "err", err)
	}
	return res
}
