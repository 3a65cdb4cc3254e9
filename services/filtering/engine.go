// Package filtering applies declarative filter criteria to in-memory lists of
// catalog items. It is pure and synchronous: no I/O, no reordering, output is
// always a subsequence of the input.
package filtering

import (
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"

	"cinedeck/models"
)

// Membership reports whether a composite item key belongs to the caller's
// watched collection. Which collection counts as "watched" (favorites or
// watchlist) is the caller's configuration choice.
type Membership func(key string) bool

// Apply filters items against criteria. Predicates compose with logical AND
// across dimensions; within the genre dimension membership is OR. Items are
// returned in their original order.
func Apply(items []models.CatalogItem, criteria models.FilterCriteria, watched Membership) []models.CatalogItem {
	if criteria.IsZero() {
		out := make([]models.CatalogItem, len(items))
		copy(out, items)
		return out
	}

	from, fromOK := parseDate(criteria.ReleaseFrom)
	to, toOK := parseDate(criteria.ReleaseTo)
	needle := foldText(criteria.FreeText)

	out := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		if !matchesWatchStatus(item, criteria.WatchStatus, watched) {
			continue
		}
		if !matchesReleaseRange(item, from, fromOK, to, toOK) {
			continue
		}
		if !matchesGenres(item, criteria.GenreIDs) {
			continue
		}
		if needle != "" && !strings.Contains(foldText(item.Title), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesWatchStatus(item models.CatalogItem, status models.WatchStatus, watched Membership) bool {
	if status == "" || status == models.WatchAll {
		return true
	}
	if watched == nil {
		// Without a membership source nothing counts as seen.
		return status == models.WatchUnseen
	}
	seen := watched(item.Key())
	if status == models.WatchSeen {
		return seen
	}
	return !seen
}

// matchesReleaseRange applies inclusive bounds. An item without a parseable
// release date is excluded whenever any bound is set and included otherwise.
func matchesReleaseRange(item models.CatalogItem, from time.Time, fromOK bool, to time.Time, toOK bool) bool {
	if !fromOK && !toOK {
		return true
	}
	release, ok := parseDate(item.ReleaseDate)
	if !ok {
		return false
	}
	if fromOK && release.Before(from) {
		return false
	}
	if toOK && release.After(to) {
		return false
	}
	return true
}

// matchesGenres passes when any selected genre id is present on the item.
func matchesGenres(item models.CatalogItem, selected []int) bool {
	if len(selected) == 0 {
		return true
	}
	for _, want := range selected {
		for _, have := range item.GenreIDs {
			if have == want {
				return true
			}
		}
	}
	return false
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// foldText lowercases and strips accents so "Amélie" matches "amelie".
func foldText(value string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(value)))
}
