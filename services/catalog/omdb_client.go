package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const omdbAPIBaseURL = "https://www.omdbapi.com/"

// omdbNoPoster is the literal sentinel OMDb returns when a title has no
// poster image.
const omdbNoPoster = "N/A"

// ErrUnsupportedList is returned when a (kind, list) pair has no upstream
// endpoint.
var ErrUnsupportedList = errors.New("unsupported list")

// UpstreamError is a business-level error signaled inside a successful HTTP
// response (OMDb's Response:"False" payloads). The upstream message is kept
// verbatim so callers can surface it directly.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// omdbClient handles requests to the legacy OMDb title-search and plot API.
type omdbClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func newOMDBClient(apiKey string) *omdbClient {
	return &omdbClient{
		apiKey:     apiKey,
		baseURL:    omdbAPIBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type omdbItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"` // movie | series | episode
	Poster string `json:"Poster"`
}

type omdbSearchResponse struct {
	Search       []omdbItem `json:"Search"`
	TotalResults string     `json:"totalResults"`
	Response     string     `json:"Response"`
	Error        string     `json:"Error"`
}

type omdbDetail struct {
	omdbItem
	Genre      string `json:"Genre"`
	Plot       string `json:"Plot"`
	Released   string `json:"Released"`
	IMDBRating string `json:"imdbRating"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// search runs a title search. A 200 response carrying Response:"False" is a
// business error, not a transport failure; the upstream message is preserved.
func (c *omdbClient) search(ctx context.Context, query string, page int) (*omdbSearchResponse, error) {
	values := url.Values{}
	values.Set("apikey", c.apiKey)
	values.Set("s", query)
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}

	var out omdbSearchResponse
	if err := c.get(ctx, values, &out); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if out.Response == "False" {
		return nil, &UpstreamError{Message: out.Error}
	}
	return &out, nil
}

// detail fetches a single title with its full plot text.
func (c *omdbClient) detail(ctx context.Context, imdbID string) (*omdbDetail, error) {
	values := url.Values{}
	values.Set("apikey", c.apiKey)
	values.Set("i", imdbID)
	values.Set("plot", "full")

	var out omdbDetail
	if err := c.get(ctx, values, &out); err != nil {
		return nil, fmt.Errorf("detail %s: %w", imdbID, err)
	}
	if out.Response == "False" {
		return nil, &UpstreamError{Message: out.Error}
	}
	return &out, nil
}

func (c *omdbClient) get(ctx context.Context, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
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
