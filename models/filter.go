package models

// WatchStatus selects items by membership in the configured watched collection.
type WatchStatus string

const (
	WatchAll    WatchStatus = "all"
	WatchSeen   WatchStatus = "seen"
	WatchUnseen WatchStatus = "unseen"
)

// FilterCriteria is a declarative set of predicates applied to an in-memory
// list of catalog items. A zero value matches everything. Criteria are plain
// values recreated per application; they carry no identity or state.
type FilterCriteria struct {
	WatchStatus WatchStatus `json:"watchStatus,omitempty"`
	ReleaseFrom string      `json:"releaseFrom,omitempty"` // ISO date, inclusive
	ReleaseTo   string      `json:"releaseTo,omitempty"`   // ISO date, inclusive
	GenreIDs    []int       `json:"genreIds,omitempty"`    // OR semantics
	FreeText    string      `json:"freeText,omitempty"`    // case-insensitive title substring
}

// IsZero reports whether no predicate is set on any dimension.
func (c FilterCriteria) IsZero() bool {
	return (c.WatchStatus == "" || c.WatchStatus == WatchAll) &&
		c.ReleaseFrom == "" && c.ReleaseTo == "" &&
		len(c.GenreIDs) == 0 && c.FreeText == ""
}
