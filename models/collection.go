package models

import "time"

// Collection names recognized by the collection store.
const (
	CollectionFavorites   = "favorites"
	CollectionWatchlist   = "watchlist"
	CollectionLikes       = "likes"
	CollectionWantToWatch = "wantToWatch"
)

// KnownCollection reports whether name is one of the supported collections.
func KnownCollection(name string) bool {
	switch name {
	case CollectionFavorites, CollectionWatchlist, CollectionLikes, CollectionWantToWatch:
		return true
	}
	return false
}

// CollectionEntry is a saved item reference inside a named per-user collection.
type CollectionEntry struct {
	ItemID    string    `json:"itemId"`
	Kind      MediaKind `json:"kind"`
	Title     string    `json:"title,omitempty"`
	PosterURL string    `json:"posterUrl,omitempty"`
	SavedAt   time.Time `json:"savedAt"`
}

// Key returns the composite identifier for the saved item. Upstream ids
// collide across kinds, so membership is always keyed this way.
func (e CollectionEntry) Key() string {
	return string(e.Kind) + ":" + e.ItemID
}

// ActivityRecord is an append-only note on a user's profile describing a
// collection action. Recording it never blocks or fails the action itself.
type ActivityRecord struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // e.g. "favorited", "watchlisted", "liked"
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// Review is a per-user free-text review of a catalog item.
type Review struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	Kind      MediaKind `json:"kind"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body"`
	Rating    int       `json:"rating,omitempty"` // 1-10, 0 when unrated
	CreatedAt time.Time `json:"createdAt"`
}
