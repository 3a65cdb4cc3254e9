package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"cinedeck/models"
)

const tmdbAPIBaseURL = "https://api.themoviedb.org/3"

// tmdbClient handles requests against the TMDB v3 API. Every method performs
// exactly one upstream call; failures are returned to the caller as-is with
// no retries.
type tmdbClient struct {
	apiKey       string
	language     string
	region       string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

func newTMDBClient(apiKey, language, region, imageBaseURL string) *tmdbClient {
	if language == "" {
		language = "en-US"
	}
	if imageBaseURL == "" {
		imageBaseURL = "https://image.tmdb.org/t/p/w500"
	}
	return &tmdbClient{
		apiKey:       apiKey,
		language:     language,
		region:       region,
		baseURL:      tmdbAPIBaseURL,
		imageBaseURL: imageBaseURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		// TMDB allows ~50 req/s; stay well below it.
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 10),
	}
}

// tmdbItem is the defensive union of the movie, tv and person result shapes.
// Multi-type endpoints mix shapes freely, so every field is read regardless of
// the declared media type.
type tmdbItem struct {
	ID           int64      `json:"id"`
	MediaType    string     `json:"media_type"`
	Title        string     `json:"title"`
	Name         string     `json:"name"`
	Overview     string     `json:"overview"`
	ReleaseDate  string     `json:"release_date"`
	FirstAirDate string     `json:"first_air_date"`
	PosterPath   string     `json:"poster_path"`
	ProfilePath  string     `json:"profile_path"`
	VoteAverage  float64    `json:"vote_average"`
	GenreIDs     []int      `json:"genre_ids"`
	KnownFor     []tmdbItem `json:"known_for"`
}

type tmdbPage struct {
	Page         int        `json:"page"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
	Results      []tmdbItem `json:"results"`
}

type tmdbGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tmdbGenreList struct {
	Genres []tmdbGenre `json:"genres"`
}

type tmdbDetail struct {
	tmdbItem
	Genres []tmdbGenre `json:"genres"`
}

type tmdbCredits struct {
	Cast []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Character   string `json:"character"`
		ProfilePath string `json:"profile_path"`
	} `json:"cast"`
}

type tmdbVideos struct {
	Results []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
		Site string `json:"site"`
		Type string `json:"type"`
	} `json:"results"`
}

// tmdbKeywords covers both the movie shape ("keywords") and the tv shape
// ("results") of the keywords endpoint.
type tmdbKeywords struct {
	Keywords []tmdbGenre `json:"keywords"`
	Results  []tmdbGenre `json:"results"`
}

// listPath maps a (media kind, list kind) pair to the upstream endpoint path.
func listPath(kind models.MediaKind, list models.ListKind) (string, error) {
	if list == models.ListTrending {
		return fmt.Sprintf("/trending/%s/week", kind), nil
	}
	paths := map[models.MediaKind]map[models.ListKind]string{
		models.KindMovie: {
			models.ListPopular:    "/movie/popular",
			models.ListNowPlaying: "/movie/now_playing",
			models.ListUpcoming:   "/movie/upcoming",
			models.ListTopRated:   "/movie/top_rated",
		},
		models.KindTV: {
			models.ListPopular:     "/tv/popular",
			models.ListAiringToday: "/tv/airing_today",
			models.ListOnTheAir:    "/tv/on_the_air",
			models.ListTopRated:    "/tv/top_rated",
		},
		models.KindPerson: {
			models.ListPopular: "/person/popular",
		},
	}
	path, ok := paths[kind][list]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedList, kind, list)
	}
	return path, nil
}

func (c *tmdbClient) fetchList(ctx context.Context, kind models.MediaKind, list models.ListKind, page int) (*tmdbPage, error) {
	path, err := listPath(kind, list)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	if c.region != "" && kind == models.KindMovie && list == models.ListNowPlaying {
		values.Set("region", c.region)
	}

	var out tmdbPage
	if err := c.get(ctx, path, values, &out); err != nil {
		return nil, fmt.Errorf("fetch %s/%s page %d: %w", kind, list, page, err)
	}
	return &out, nil
}

func (c *tmdbClient) searchMulti(ctx context.Context, query string, page int) (*tmdbPage, error) {
	values := url.Values{}
	values.Set("query", query)
	values.Set("include_adult", "false")
	values.Set("page", strconv.Itoa(page))

	var out tmdbPage
	if err := c.get(ctx, "/search/multi", values, &out); err != nil {
		return nil, fmt.Errorf("search %q page %d: %w", query, page, err)
	}
	return &out, nil
}

func (c *tmdbClient) fetchDetail(ctx context.Context, kind models.MediaKind, id string) (*tmdbDetail, error) {
	var out tmdbDetail
	if err := c.get(ctx, fmt.Sprintf("/%s/%s", kind, id), nil, &out); err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", kind, id, err)
	}
	return &out, nil
}

func (c *tmdbClient) fetchCredits(ctx context.Context, kind models.MediaKind, id string) (*tmdbCredits, error) {
	var out tmdbCredits
	if err := c.get(ctx, fmt.Sprintf("/%s/%s/credits", kind, id), nil, &out); err != nil {
		return nil, fmt.Errorf("fetch credits for %s %s: %w", kind, id, err)
	}
	return &out, nil
}

func (c *tmdbClient) fetchVideos(ctx context.Context, kind models.MediaKind, id string) (*tmdbVideos, error) {
	var out tmdbVideos
	if err := c.get(ctx, fmt.Sprintf("/%s/%s/videos", kind, id), nil, &out); err != nil {
		return nil, fmt.Errorf("fetch videos for %s %s: %w", kind, id, err)
	}
	return &out, nil
}

func (c *tmdbClient) fetchRecommendations(ctx context.Context, kind models.MediaKind, id string) (*tmdbPage, error) {
	var out tmdbPage
	if err := c.get(ctx, fmt.Sprintf("/%s/%s/recommendations", kind, id), nil, &out); err != nil {
		return nil, fmt.Errorf("fetch recommendations for %s %s: %w", kind, id, err)
	}
	return &out, nil
}

func (c *tmdbClient) fetchSimilar(ctx context.Context, kind models.MediaKind, id string) (*tmdbPage, error) {
	var out tmdbPage
	if err := c.get(ctx, fmt.Sprintf("/%s/%s/similar", kind, id), nil, &out); err != nil {
		return nil, fmt.Errorf("fetch similar for %s %s: %w", kind, id, err)
	}
	return &out, nil
}

func (c *tmdbClient) fetchKeywords(ctx context.Context, kind models.MediaKind, id string) (*tmdbKeywords, error) {
	var out tmdbKeywords
	if err := c.get(ctx, fmt.Sprintf("/%s/%s/keywords", kind, id), nil, &out); err != nil {
		return nil, fmt.Errorf("fetch keywords for %s %s: %w", kind, id, err)
	}
	return &out, nil
}

func (c *tmdbClient) fetchGenres(ctx context.Context, kind models.MediaKind) ([]tmdbGenre, error) {
	var out tmdbGenreList
	if err := c.get(ctx, fmt.Sprintf("/genre/%s/list", kind), nil, &out); err != nil {
		return nil, fmt.Errorf("fetch %s genres: %w", kind, err)
	}
	return out.Genres, nil
}

// get performs one rate-limited GET against the TMDB API and decodes the JSON
// response into out.
func (c *tmdbClient) get(ctx context.Context, path string, values url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if values == nil {
		values = url.Values{}
	}
	values.Set("api_key", c.apiKey)
	values.Set("language", c.language)
	endpoint := c.baseURL + path + "?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
