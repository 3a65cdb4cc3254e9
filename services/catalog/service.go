package catalog

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"cinedeck/models"
)

// Options configures the catalog service. API keys are supplied by the
// configuration layer; nothing here is ever hardcoded.
type Options struct {
	TMDBAPIKey   string
	OMDBAPIKey   string
	Language     string
	Region       string
	ImageBaseURL string
}

// Service is the remote catalog aggregation layer: it fetches from the TMDB
// and legacy OMDb APIs, normalizes heterogeneous schemas into canonical
// items, and merges paginated results per logical list.
type Service struct {
	tmdb   *tmdbClient
	omdb   *omdbClient
	genres *GenreDirectory

	mu    sync.Mutex
	lists map[string]*listState
}

// listState tracks one logical list's accumulator plus its in-flight guard;
// a load-more arriving while one is already running is ignored.
type listState struct {
	acc      *Accumulator
	inFlight bool
}

// ListSnapshot is the current accumulated view of one logical list.
type ListSnapshot struct {
	Items   []models.CatalogItem `json:"items"`
	Page    int                  `json:"page"`
	HasMore bool                 `json:"hasMore"`
}

func NewService(opts Options) *Service {
	tmdb := newTMDBClient(opts.TMDBAPIKey, opts.Language, opts.Region, opts.ImageBaseURL)
	return &Service{
		tmdb:   tmdb,
		omdb:   newOMDBClient(opts.OMDBAPIKey),
		genres: NewGenreDirectory(tmdb),
		lists:  make(map[string]*listState),
	}
}

// Genres exposes the directory for consumers that resolve ids themselves.
func (s *Service) Genres() *GenreDirectory {
	return s.genres
}

// ensureGenres triggers the one-time genre load without blocking the caller.
// Listing never waits on genre names; items normalized before the load lands
// simply carry empty genreNames. Once the attempt settles, failed or not,
// nothing triggers it again.
func (s *Service) ensureGenres() {
	if s.genres.Settled() {
		return
	}
	go func() {
		// Errors are logged by the directory and deliberately not retried.
		_ = s.genres.Load(context.Background())
	}()
}

// List fetches a single page of the given upstream list and returns it
// normalized, with a hint whether more pages exist.
func (s *Service) List(ctx context.Context, kind models.MediaKind, list models.ListKind, page int) ([]models.CatalogItem, bool, error) {
	if page < 1 {
		page = 1
	}
	s.ensureGenres()

	raw, err := s.tmdb.fetchList(ctx, kind, list, page)
	if err != nil {
		return nil, false, err
	}
	items := normalizeTMDBPage(raw, kind, s.genres, s.tmdb.imageBaseURL)
	return items, raw.Page < raw.TotalPages && len(items) > 0, nil
}

// LoadMore fetches the next page of a logical list into its accumulator and
// returns the merged snapshot. Requests for the same list are serialized: a
// call arriving while a fetch is in flight returns the current snapshot
// without issuing another request. Responses for a list that was reset while
// the fetch was running are discarded.
func (s *Service) LoadMore(ctx context.Context, kind models.MediaKind, list models.ListKind) (ListSnapshot, error) {
	st := s.state(kind, list)

	s.mu.Lock()
	if st.inFlight {
		s.mu.Unlock()
		log.Printf("[catalog] load-more for %s/%s already in flight, ignoring", kind, list)
		return snapshot(st.acc), nil
	}
	st.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		st.inFlight = false
		s.mu.Unlock()
	}()

	s.ensureGenres()

	generation := st.acc.Generation()
	next := st.acc.Page() + 1

	raw, err := s.tmdb.fetchList(ctx, kind, list, next)
	if err != nil {
		return ListSnapshot{}, err
	}

	items := normalizeTMDBPage(raw, kind, s.genres, s.tmdb.imageBaseURL)
	if !st.acc.AppendPage(items, next, generation) {
		log.Printf("[catalog] discarding stale page %d for %s/%s", next, kind, list)
	}
	return snapshot(st.acc), nil
}

// ResetList clears the accumulator for a logical list, superseding any fetch
// still in flight.
func (s *Service) ResetList(kind models.MediaKind, list models.ListKind) {
	s.state(kind, list).acc.Reset()
}

// Snapshot returns the accumulated view of a logical list without fetching.
func (s *Service) Snapshot(kind models.MediaKind, list models.ListKind) ListSnapshot {
	return snapshot(s.state(kind, list).acc)
}

func (s *Service) state(kind models.MediaKind, list models.ListKind) *listState {
	key := string(kind) + "/" + string(list)
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.lists[key]
	if !ok {
		st = &listState{acc: NewAccumulator()}
		s.lists[key] = st
	}
	return st
}

func snapshot(acc *Accumulator) ListSnapshot {
	return ListSnapshot{Items: acc.Items(), Page: acc.Page(), HasMore: acc.HasMore()}
}

// Search runs a multi-type search against the modern catalog API. Results mix
// movie, tv and person records; each is normalized by its declared type.
func (s *Service) Search(ctx context.Context, query string, page int) ([]models.CatalogItem, bool, error) {
	if page < 1 {
		page = 1
	}
	s.ensureGenres()

	raw, err := s.tmdb.searchMulti(ctx, query, page)
	if err != nil {
		return nil, false, err
	}

	items := make([]models.CatalogItem, 0, len(raw.Results))
	for _, r := range raw.Results {
		kind := models.MediaKind(r.MediaType)
		if !kind.Valid() {
			continue
		}
		items = append(items, normalizeTMDBItem(r, kind, s.genres, s.tmdb.imageBaseURL))
	}
	return items, raw.Page < raw.TotalPages, nil
}

// LegacySearch queries the legacy plot-text API. A "no results" answer comes
// back as an *UpstreamError carrying the upstream message verbatim (for
// example "Movie not found!") alongside an empty list.
func (s *Service) LegacySearch(ctx context.Context, query string, page int) ([]models.CatalogItem, int, error) {
	raw, err := s.omdb.search(ctx, query, page)
	if err != nil {
		return nil, 0, err
	}

	items := make([]models.CatalogItem, 0, len(raw.Search))
	for _, r := range raw.Search {
		items = append(items, normalizeOMDBItem(r))
	}
	total, _ := strconv.Atoi(raw.TotalResults)
	return items, total, nil
}

// LegacyDetail fetches a single legacy record with its full plot text mapped
// onto the overview field.
func (s *Service) LegacyDetail(ctx context.Context, imdbID string) (models.CatalogItem, error) {
	raw, err := s.omdb.detail(ctx, imdbID)
	if err != nil {
		return models.CatalogItem{}, err
	}
	item := normalizeOMDBItem(raw.omdbItem)
	item.Overview = raw.Plot
	return item, nil
}

// Details aggregates the detail page for a movie or tv item: the record
// itself plus cast, videos, recommendations, similar titles and keywords,
// fetched concurrently. The batch is all-or-nothing: any sub-request failing
// aborts the whole aggregate with one error, never a partially populated
// page.
func (s *Service) Details(ctx context.Context, kind models.MediaKind, id string) (*models.ItemDetails, error) {
	if kind != models.KindMovie && kind != models.KindTV {
		return nil, fmt.Errorf("details not available for kind %q", kind)
	}
	s.ensureGenres()

	var (
		detail   *tmdbDetail
		credits  *tmdbCredits
		videos   *tmdbVideos
		recs     *tmdbPage
		similar  *tmdbPage
		keywords *tmdbKeywords
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) (err error) {
		detail, err = s.tmdb.fetchDetail(ctx, kind, id)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		credits, err = s.tmdb.fetchCredits(ctx, kind, id)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		videos, err = s.tmdb.fetchVideos(ctx, kind, id)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		recs, err = s.tmdb.fetchRecommendations(ctx, kind, id)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		similar, err = s.tmdb.fetchSimilar(ctx, kind, id)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		keywords, err = s.tmdb.fetchKeywords(ctx, kind, id)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate details for %s %s: %w", kind, id, err)
	}

	out := &models.ItemDetails{
		Item:            normalizeTMDBDetail(detail, kind, s.genres, s.tmdb.imageBaseURL),
		Recommendations: normalizeTMDBPage(recs, kind, s.genres, s.tmdb.imageBaseURL),
		Similar:         normalizeTMDBPage(similar, kind, s.genres, s.tmdb.imageBaseURL),
	}
	for _, c := range credits.Cast {
		out.Cast = append(out.Cast, models.CastMember{
			ID:        strconv.FormatInt(c.ID, 10),
			Name:      c.Name,
			Character: c.Character,
			PosterURL: imageURL(c.ProfilePath, s.tmdb.imageBaseURL),
		})
	}
	for _, v := range videos.Results {
		out.Videos = append(out.Videos, models.Video{Key: v.Key, Name: v.Name, Site: v.Site, Type: v.Type})
	}
	for _, k := range keywords.Keywords {
		out.Keywords = append(out.Keywords, k.Name)
	}
	for _, k := range keywords.Results {
		out.Keywords = append(out.Keywords, k.Name)
	}
	return out, nil
}

// Trailer returns the YouTube key of the first video of type "Trailer" for a
// title, or "" when none exists. A missing trailer is not an error.
func (s *Service) Trailer(ctx context.Context, kind models.MediaKind, id string) (string, error) {
	videos, err := s.tmdb.fetchVideos(ctx, kind, id)
	if err != nil {
		return "", err
	}
	for _, v := range videos.Results {
		if v.Type == "Trailer" && v.Site == "YouTube" {
			return v.Key, nil
		}
	}
	return "", nil
}
