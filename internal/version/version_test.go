package version

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func setReleasesURL(t *testing.T, url string) {
	t.Helper()
	old := releasesURL
	releasesURL = url
	t.Cleanup(func() { releasesURL = old })
}

func TestIsDevelopmentVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", true},
		{"dev", true},
		{"unknown", true},
		{"devel+0123abcdef01", true},
		{"devel+0123abcdef01+dirty", true},
		{"(devel)", true},

		{"v0.1.0", false},
		{"1.0.0-rc.1", false},
		{"v2.3.4+build.7", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsDevelopmentVersion(tt.input); got != tt.expected {
				t.Errorf("IsDevelopmentVersion(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"v1.1.0", "v1.0.0", true},
		{"v1.0.1", "1.0.0", true},
		{"v2.0.0", "v1.9.9", true},
		{"v1.0.0", "v1.0.0", false},
		{"v1.0.0", "v1.1.0", false},
		{"v1.0.0", "v1.0.0-beta", true},
		{"v1.0.0-rc.2", "v1.0.0-rc.1", true},
		{"v1.0.0+build.2", "v1.0.0+build.1", false},
		{"garbage", "v1.0.0", false},
		{"v1.0.0", "garbage", false},
	}
	for _, tt := range tests {
		t.Run(tt.latest+"_vs_"+tt.current, func(t *testing.T) {
			if got := IsNewer(tt.latest, tt.current); got != tt.want {
				t.Errorf("IsNewer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v1.3.0","html_url":"https://github.com/marcus/vcpull/releases/v1.3.0"}`)
	}))
	defer srv.Close()
	setReleasesURL(t, srv.URL)

	result := Check(context.Background(), "v1.2.0")
	if result.Err != nil {
		t.Fatalf("Check: %v", result.Err)
	}
	if !result.HasUpdate || result.Latest != "v1.3.0" || result.URL == "" {
		t.Errorf("result = %+v", result)
	}

	if result := Check(context.Background(), "v1.3.0"); result.HasUpdate {
		t.Errorf("current release reported as outdated: %+v", result)
	}
}

func TestCheckSkipsDevelopmentBuilds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()
	setReleasesURL(t, srv.URL)

	if result := Check(context.Background(), "devel+abc"); result.HasUpdate || result.Err != nil {
		t.Errorf("result = %+v", result)
	}
	if hits.Load() != 0 {
		t.Errorf("development build queried GitHub")
	}
}

func TestCheckRejectsUntaggedRelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"html_url":"https://github.com/marcus/vcpull/releases"}`)
	}))
	defer srv.Close()
	setReleasesURL(t, srv.URL)

	if result := Check(context.Background(), "v1.2.0"); result.Err == nil || result.HasUpdate {
		t.Errorf("result = %+v", result)
	}
}

func TestUpdateCommand(t *testing.T) {
	tests := []struct {
		version  string
		expected string
	}{
		{"v1.2.3", `go install -ldflags "-X main.Version=v1.2.3" github.com/marcus/vcpull@v1.2.3`},
		{"1.5.0-beta.2", `go install -ldflags "-X main.Version=1.5.0-beta.2" github.com/marcus/vcpull@1.5.0-beta.2`},

		{"", ""},
		{"invalid", ""},
		{"v1.2.3; echo pwned", ""},
		{"v1.2.3$(whoami)", ""},
		{"../../.env", ""},
		{"v1.2.3-beta_release", ""},
		{"v1.2", ""},
		{"v1.2.3.4", ""},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := UpdateCommand(tt.version); got != tt.expected {
				t.Errorf("UpdateCommand(%q) = %q, want %q", tt.version, got, tt.expected)
			}
		})
	}
}
