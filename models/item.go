package models

// MediaKind discriminates the upstream record shapes a catalog item can come from.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindTV     MediaKind = "tv"
	KindPerson MediaKind = "person"
)

// Valid reports whether the kind is one of the known media kinds.
func (k MediaKind) Valid() bool {
	switch k {
	case KindMovie, KindTV, KindPerson:
		return true
	}
	return false
}

// ListKind identifies a logical upstream list endpoint.
type ListKind string

const (
	ListPopular     ListKind = "popular"
	ListNowPlaying  ListKind = "nowPlaying"
	ListUpcoming    ListKind = "upcoming"
	ListTopRated    ListKind = "topRated"
	ListAiringToday ListKind = "airingToday"
	ListOnTheAir    ListKind = "onTheAir"
	ListTrending    ListKind = "trending"
)

// Valid reports whether the list kind is one of the known upstream lists.
func (l ListKind) Valid() bool {
	switch l {
	case ListPopular, ListNowPlaying, ListUpcoming, ListTopRated,
		ListAiringToday, ListOnTheAir, ListTrending:
		return true
	}
	return false
}

// KnownForRef is a lightweight reference to a title a person is known for.
type KnownForRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl,omitempty"`
}

// CatalogItem is the canonical, kind-tagged record every upstream schema is
// normalized into. Upstream ids are only unique within a kind, so consumers
// must key by Key(), never by ID alone.
type CatalogItem struct {
	ID          string        `json:"id"`
	Kind        MediaKind     `json:"kind"`
	Title       string        `json:"title"`
	Overview    string        `json:"overview,omitempty"`
	ReleaseDate string        `json:"releaseDate,omitempty"` // ISO date, empty when unknown or not applicable
	GenreIDs    []int         `json:"genreIds,omitempty"`
	GenreNames  []string      `json:"genreNames,omitempty"`
	PosterURL   string        `json:"posterUrl,omitempty"`
	VoteAverage float64       `json:"voteAverage,omitempty"`
	KnownFor    []KnownForRef `json:"knownFor,omitempty"` // person kind only
}

// Key returns the composite identifier combining media kind and upstream ID.
func (c CatalogItem) Key() string {
	return string(c.Kind) + ":" + c.ID
}

// ItemDetails is the aggregate detail-page payload. All sections are fetched
// together and populated together; there is no partial-success state.
type ItemDetails struct {
	Item            CatalogItem   `json:"item"`
	Cast            []CastMember  `json:"cast,omitempty"`
	Videos          []Video       `json:"videos,omitempty"`
	Recommendations []CatalogItem `json:"recommendations,omitempty"`
	Similar         []CatalogItem `json:"similar,omitempty"`
	Keywords        []string      `json:"keywords,omitempty"`
}

// CastMember is a single credited cast entry on a detail page.
type CastMember struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	PosterURL string `json:"posterUrl,omitempty"`
}

// Video is a promotional video attached to a title.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
	Site string `json:"site"`
	Type string `json:"type"`
}
