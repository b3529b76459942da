// Package version compares the running build against the latest published
// vcpull release.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const modulePath = "github.com/marcus/vcpull"

// releasesURL is a variable so tests can point it at a local server.
var releasesURL = "https://api.github.com/repos/marcus/vcpull/releases/latest"

var httpClient = &http.Client{Timeout: 5 * time.Second}

// Result is the outcome of one update check.
type Result struct {
	Current   string
	Latest    string
	URL       string
	HasUpdate bool
	Err       error
}

type release struct {
	Tag string `json:"tag_name"`
	URL string `json:"html_url"`
}

// Check asks GitHub for the latest release. Development builds are never
// checked and come back with an empty Result.
func Check(ctx context.Context, current string) Result {
	res := Result{Current: current}
	if IsDevelopmentVersion(current) {
		return res
	}

	rel, err := latestRelease(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Latest = rel.Tag
	res.URL = rel.URL
	res.HasUpdate = IsNewer(rel.Tag, current)
	return res
}

func latestRelease(ctx context.Context) (release, error) {
	var rel release

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return rel, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return rel, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rel, fmt.Errorf("fetch latest release: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return rel, fmt.Errorf("decode release: %w", err)
	}
	if rel.Tag == "" {
		return rel, errors.New("release has no tag")
	}
	return rel, nil
}

// IsNewer reports whether latest is a higher semantic version than current.
// Unparseable versions never compare as newer.
func IsNewer(latest, current string) bool {
	l, err := semver.NewVersion(latest)
	if err != nil {
		return false
	}
	c, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return l.GreaterThan(c)
}

// IsDevelopmentVersion reports whether v is anything other than a release
// version, such as "dev" or a "devel+<rev>" stamp from a source build.
func IsDevelopmentVersion(v string) bool {
	_, err := semver.NewVersion(v)
	return err != nil
}

// UpdateCommand returns the go install line for tag, or "" unless tag is a
// strict semantic version. The result is meant to be pasted into a shell.
func UpdateCommand(tag string) string {
	if _, err := semver.StrictNewVersion(strings.TrimPrefix(tag, "v")); err != nil {
		return ""
	}
	return fmt.Sprintf(`go install -ldflags "-X main.Version=%s" %s@%s`, tag, modulePath, tag)
}
