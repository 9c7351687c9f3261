package tui

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// closestOption picks the offered option the draft most likely means. A
// case-insensitive prefix wins outright; otherwise the smallest edit
// distance does. An empty draft selects the first option.
func closestOption(draft string, options []string) (string, bool) {
	if len(options) == 0 {
		return "", false
	}
	d := strings.ToLower(strings.TrimSpace(draft))
	if d == "" {
		return options[0], true
	}
	for _, o := range options {
		if strings.HasPrefix(strings.ToLower(o), d) {
			return o, true
		}
	}
	best, bestDist := options[0], -1
	for _, o := range options {
		dist := levenshtein.ComputeDistance(d, strings.ToLower(o))
		if bestDist < 0 || dist < bestDist {
			best, bestDist = o, dist
		}
	}
	return best, true
}
