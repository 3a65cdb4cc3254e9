package catalog

import (
	"strconv"
	"strings"

	"cinedeck/models"
)

// GenreResolver resolves a numeric genre id to its display name. An empty
// string means the id is unknown (or the directory never loaded); unknown ids
// are silently dropped from the normalized record.
type GenreResolver interface {
	Resolve(id int) string
}

// normalizeTMDBItem converts one raw TMDB record into the canonical shape.
// Upstream multi-type endpoints sometimes mix shapes, so movie- and tv-style
// fields are both consulted regardless of the declared kind.
func normalizeTMDBItem(raw tmdbItem, kind models.MediaKind, genres GenreResolver, imageBaseURL string) models.CatalogItem {
	if mt := models.MediaKind(raw.MediaType); mt.Valid() {
		kind = mt
	}

	item := models.CatalogItem{
		ID:       strconv.FormatInt(raw.ID, 10),
		Kind:     kind,
		Overview: raw.Overview,
		GenreIDs: raw.GenreIDs,
	}

	switch kind {
	case models.KindPerson:
		item.Title = firstNonEmpty(raw.Name, raw.Title)
		item.PosterURL = imageURL(raw.ProfilePath, imageBaseURL)
		for _, kf := range raw.KnownFor {
			item.KnownFor = append(item.KnownFor, models.KnownForRef{
				ID:        strconv.FormatInt(kf.ID, 10),
				Title:     firstNonEmpty(kf.Title, kf.Name),
				PosterURL: imageURL(kf.PosterPath, imageBaseURL),
			})
		}
	case models.KindTV:
		item.Title = firstNonEmpty(raw.Name, raw.Title)
		item.ReleaseDate = firstNonEmpty(raw.FirstAirDate, raw.ReleaseDate)
		item.PosterURL = imageURL(raw.PosterPath, imageBaseURL)
		item.VoteAverage = raw.VoteAverage
	default:
		item.Title = firstNonEmpty(raw.Title, raw.Name)
		item.ReleaseDate = firstNonEmpty(raw.ReleaseDate, raw.FirstAirDate)
		item.PosterURL = imageURL(raw.PosterPath, imageBaseURL)
		item.VoteAverage = raw.VoteAverage
	}

	if genres != nil {
		for _, id := range raw.GenreIDs {
			if name := genres.Resolve(id); name != "" {
				item.GenreNames = append(item.GenreNames, name)
			}
		}
	}

	return item
}

// normalizeTMDBPage normalizes every result in a page, keeping upstream order.
func normalizeTMDBPage(page *tmdbPage, kind models.MediaKind, genres GenreResolver, imageBaseURL string) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, len(page.Results))
	for _, raw := range page.Results {
		items = append(items, normalizeTMDBItem(raw, kind, genres, imageBaseURL))
	}
	return items
}

// normalizeTMDBDetail includes the inline genre objects a detail response
// carries instead of bare ids.
func normalizeTMDBDetail(raw *tmdbDetail, kind models.MediaKind, genres GenreResolver, imageBaseURL string) models.CatalogItem {
	item := normalizeTMDBItem(raw.tmdbItem, kind, genres, imageBaseURL)
	for _, g := range raw.Genres {
		item.GenreIDs = append(item.GenreIDs, g.ID)
		if g.Name != "" {
			item.GenreNames = append(item.GenreNames, g.Name)
		}
	}
	return item
}

// normalizeOMDBItem converts a legacy OMDb record. OMDb marks a missing
// poster with the literal "N/A" instead of omitting the field.
func normalizeOMDBItem(raw omdbItem) models.CatalogItem {
	kind := models.KindMovie
	if raw.Type == "series" {
		kind = models.KindTV
	}

	item := models.CatalogItem{
		ID:    raw.IMDBID,
		Kind:  kind,
		Title: raw.Title,
	}
	if raw.Poster != "" && raw.Poster != omdbNoPoster {
		item.PosterURL = raw.Poster
	}
	// OMDb years look like "2021" or "2019–2023"; keep the leading year.
	if year, _, _ := strings.Cut(raw.Year, "–"); len(year) == 4 {
		item.ReleaseDate = year + "-01-01"
	}
	return item
}

func imageURL(path, base string) string {
	if path == "" {
		return ""
	}
	return base + path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
