// Package suggest offers "did you mean" candidates for mistyped flags and
// names, ranked by Levenshtein distance.
package suggest

import (
	"sort"
	"strings"
)

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Closest returns up to three candidates within reach of word, best first.
// Ties keep the candidates' original order.
func Closest(word string, candidates []string) []string {
	type scored struct {
		value string
		dist  int
	}
	word = strings.ToLower(word)
	maxDist := max(2, len(word)/2)

	var matches []scored
	for _, c := range candidates {
		if d := levenshtein(word, strings.ToLower(c)); d <= maxDist {
			matches = append(matches, scored{c, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].dist < matches[j].dist })

	var out []string
	for i := 0; i < len(matches) && i < 3; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// Flag suggests flag names for an unknown flag; dashes are ignored when
// comparing and kept in the result.
func Flag(unknown string, valid []string) []string {
	bare := make([]string, len(valid))
	byBare := make(map[string]string, len(valid))
	for i, v := range valid {
		bare[i] = strings.TrimLeft(v, "-")
		byBare[bare[i]] = v
	}
	var out []string
	for _, b := range Closest(strings.TrimLeft(unknown, "-"), bare) {
		out = append(out, byBare[b])
	}
	return out
}

// flagHints maps flags people reach for to what vcpull offers instead.
var flagHints = map[string]string{
	"token":       "run: vcpull auth login, or set VCPULL_TOKEN",
	"environment": "every target is always pulled; --env only names the files",
	"target":      "every target is always pulled; --env only names the files",
	"prod":        "every target is always pulled; --env only names the files",
	"force":       "--yes, -y",
	"confirm":     "--yes, -y",
	"scope":       "use: vcpull switch <team>",
	"team":        "use: vcpull switch <team>",
	"cwd":         "pass the directory as an argument: vcpull <path>",
}

// Hint returns advice for a commonly misused flag, or "".
func Hint(flag string) string {
	return flagHints[strings.ToLower(strings.TrimLeft(flag, "-"))]
}
