package services

import (
	"fmt"
	"strings"

	"fintrack/internal/core"

	"github.com/agnivade/levenshtein"
)

// UnknownCategoryError is returned for a category name that matches nothing.
type UnknownCategoryError struct {
	Name       string
	Suggestion string
}

func (e *UnknownCategoryError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown category %q, did you mean %q?", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown category %q", e.Name)
}

func (e *UnknownCategoryError) Unwrap() error { return core.ErrNotFound }

// Suggest returns the candidate closest to name, ignoring case, or "" when
// none is within a third of name's length (at least 2 edits).
func Suggest(name string, candidates []string) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return ""
	}
	limit := len(needle) / 3
	if limit < 2 {
		limit = 2
	}

	best, bestDist := "", limit+1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(c))
		if d < bestDist || (d == bestDist && c < best) {
			best, bestDist = c, d
		}
	}
	if bestDist > limit {
		return ""
	}
	return best
}
