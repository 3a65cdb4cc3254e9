package catalog

import (
	"sync"

	"cinedeck/models"
)

// Accumulator merges successive fetched pages of one logical list into an
// in-memory sequence. Items are strictly the concatenation of pages in fetch
// order; a page arriving out of order replaces the accumulated state instead
// of appending, which closes the rapid-interaction race where a stale page 2
// lands after a fresh page 1.
type Accumulator struct {
	mu         sync.Mutex
	items      []models.CatalogItem
	seen       map[string]struct{}
	page       int
	hasMore    bool
	generation uint64
}

// NewAccumulator returns an empty accumulator with hasMore set, ready for
// page 1.
func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]struct{}), hasMore: true}
}

// Reset clears accumulated items and bumps the request generation. Used when
// switching list kind or starting a fresh search; any in-flight fetch issued
// under the previous generation becomes stale.
func (a *Accumulator) Reset() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = nil
	a.seen = make(map[string]struct{})
	a.page = 0
	a.hasMore = true
	a.generation++
	return a.generation
}

// Generation returns the current request generation.
func (a *Accumulator) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// AppendPage merges a fetched page. Contiguous pages (page == current+1)
// append; anything else replaces the accumulated items wholesale. Items whose
// composite (kind, id) key is already present are skipped on append; the
// upstream occasionally repeats entries across page boundaries.
//
// A zero-item page marks the list exhausted.
func (a *Accumulator) AppendPage(items []models.CatalogItem, pageNumber int, generation uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if generation != a.generation {
		return false // stale response from a superseded query
	}

	if pageNumber != a.page+1 {
		a.items = nil
		a.seen = make(map[string]struct{})
	}
	for _, item := range items {
		key := item.Key()
		if _, dup := a.seen[key]; dup {
			continue
		}
		a.seen[key] = struct{}{}
		a.items = append(a.items, item)
	}
	a.page = pageNumber
	a.hasMore = len(items) > 0
	return true
}

// Items returns a copy of the accumulated sequence in fetch order.
func (a *Accumulator) Items() []models.CatalogItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.CatalogItem, len(a.items))
	copy(out, a.items)
	return out
}

// Page returns the last successfully merged page number, 0 when empty.
func (a *Accumulator) Page() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

// HasMore reports whether another page may exist. It turns false only after a
// page comes back empty.
func (a *Accumulator) HasMore() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasMore
}
