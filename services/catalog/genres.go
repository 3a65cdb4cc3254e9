package catalog

import (
	"context"
	"fmt"
	"log"
	"sync"

	"cinedeck/models"
)

// genreSource fetches one upstream genre taxonomy.
type genreSource interface {
	fetchGenres(ctx context.Context, kind models.MediaKind) ([]tmdbGenre, error)
}

// GenreDirectory is the process-wide lookup from numeric genre id to display
// name, merged from the movie and TV taxonomies. Exactly one load is issued
// per process; the outcome is latched either way. Genre names are a
// non-critical enhancement: if the load fails, Resolve keeps returning ""
// for the rest of the process and the failure is never retried.
type GenreDirectory struct {
	source genreSource

	mu       sync.Mutex
	names    map[int]string
	loaded   bool
	settled  bool
	loadErr  error
	inflight *genreLoad
}

// genreLoad lets concurrent Load callers share one in-flight request.
type genreLoad struct {
	wg  sync.WaitGroup
	err error
}

// NewGenreDirectory creates an empty directory backed by the given source.
func NewGenreDirectory(source genreSource) *GenreDirectory {
	return &GenreDirectory{source: source}
}

// Load populates the directory from the movie and TV genre lists. Concurrent
// callers are deduplicated onto a single upstream request pair, and once the
// first attempt settles no further upstream calls are ever made: a failed
// load keeps returning its recorded error.
func (d *GenreDirectory) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.settled {
		err := d.loadErr
		d.mu.Unlock()
		return err
	}
	if d.inflight != nil {
		load := d.inflight
		d.mu.Unlock()
		load.wg.Wait()
		return load.err
	}
	load := &genreLoad{}
	load.wg.Add(1)
	d.inflight = load
	d.mu.Unlock()

	names, err := d.fetchAll(ctx)

	d.mu.Lock()
	d.inflight = nil
	d.settled = true
	d.loadErr = err
	if err == nil {
		d.names = names
		d.loaded = true
	}
	d.mu.Unlock()

	load.err = err
	load.wg.Done()

	if err != nil {
		log.Printf("[genres] load failed (names unavailable): %v", err)
	} else {
		log.Printf("[genres] loaded %d genre names", len(names))
	}
	return err
}

func (d *GenreDirectory) fetchAll(ctx context.Context) (map[int]string, error) {
	names := make(map[int]string)
	for _, kind := range []models.MediaKind{models.KindMovie, models.KindTV} {
		genres, err := d.source.fetchGenres(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("load %s taxonomy: %w", kind, err)
		}
		for _, g := range genres {
			names[g.ID] = g.Name
		}
	}
	return names, nil
}

// Resolve returns the display name for a genre id, or "" when unknown or when
// the directory has not (successfully) loaded.
func (d *GenreDirectory) Resolve(id int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.names[id]
}

// Loaded reports whether the initial load has completed successfully.
func (d *GenreDirectory) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// Settled reports whether the one-per-process load attempt has completed,
// successfully or not.
func (d *GenreDirectory) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

var _ GenreResolver = (*GenreDirectory)(nil)
