package suggest

import (
	"reflect"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"env", "env", 0},
		{"env", "evn", 2},
		{"yes", "yse", 2},
		{"kitten", "sitting", 3},
	}
	for _, tc := range tests {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestClosest(t *testing.T) {
	teams := []string{"acme", "acme-labs", "globex"}

	if got := Closest("acm", teams); !reflect.DeepEqual(got, []string{"acme"}) {
		t.Errorf("Closest(acm) = %v", got)
	}
	if got := Closest("ACME", teams); len(got) == 0 || got[0] != "acme" {
		t.Errorf("Closest is case sensitive: %v", got)
	}
	if got := Closest("initech", teams); got != nil {
		t.Errorf("Closest(initech) = %v, want nothing", got)
	}
}

func TestFlag(t *testing.T) {
	valid := []string{"--yes", "--env", "--debug", "--help"}

	if got := Flag("--evn", valid); len(got) == 0 || got[0] != "--env" {
		t.Errorf("Flag(--evn) = %v", got)
	}
	if got := Flag("debgu", valid); len(got) == 0 || got[0] != "--debug" {
		t.Errorf("Flag(debgu) = %v", got)
	}
}

func TestHint(t *testing.T) {
	if Hint("--force") != "--yes, -y" {
		t.Errorf("Hint(--force) = %q", Hint("--force"))
	}
	if Hint("--TEAM") == "" {
		t.Error("Hint should ignore case")
	}
	if Hint("--nothing") != "" {
		t.Error("unexpected hint")
	}
}
