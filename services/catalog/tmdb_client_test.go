package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"cinedeck/models"
)

func newTestTMDBClient(handler http.Handler) (*tmdbClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := newTMDBClient("test-key", "en-US", "US", "https://img")
	client.baseURL = server.URL
	client.limiter = rate.NewLimiter(rate.Inf, 1)
	return client, server
}

func TestTMDBFetchListInjectsKeyAndPage(t *testing.T) {
	var gotPath, gotKey, gotLang, gotPage string
	client, server := newTestTMDBClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		gotLang = r.URL.Query().Get("language")
		gotPage = r.URL.Query().Get("page")
		w.Write([]byte(`{"page":2,"total_pages":10,"results":[{"id":550,"title":"Fight Club"}]}`))
	}))
	defer server.Close()

	page, err := client.fetchList(context.Background(), models.KindMovie, models.ListPopular, 2)
	if err != nil {
		t.Fatalf("fetchList returned error: %v", err)
	}
	if gotPath != "/movie/popular" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" || gotLang != "en-US" || gotPage != "2" {
		t.Fatalf("unexpected query: key=%q lang=%q page=%q", gotKey, gotLang, gotPage)
	}
	if len(page.Results) != 1 || page.Results[0].Title != "Fight Club" {
		t.Fatalf("unexpected payload: %+v", page.Results)
	}
}

func TestTMDBListPathMapping(t *testing.T) {
	cases := []struct {
		kind models.MediaKind
		list models.ListKind
		want string
	}{
		{models.KindMovie, models.ListNowPlaying, "/movie/now_playing"},
		{models.KindMovie, models.ListUpcoming, "/movie/upcoming"},
		{models.KindMovie, models.ListTopRated, "/movie/top_rated"},
		{models.KindTV, models.ListAiringToday, "/tv/airing_today"},
		{models.KindTV, models.ListOnTheAir, "/tv/on_the_air"},
		{models.KindPerson, models.ListPopular, "/person/popular"},
		{models.KindMovie, models.ListTrending, "/trending/movie/week"},
	}
	for _, tc := range cases {
		got, err := listPath(tc.kind, tc.list)
		if err != nil {
			t.Fatalf("listPath(%s, %s) returned error: %v", tc.kind, tc.list, err)
		}
		if got != tc.want {
			t.Fatalf("listPath(%s, %s) = %q, want %q", tc.kind, tc.list, got, tc.want)
		}
	}

	if _, err := listPath(models.KindPerson, models.ListTopRated); !errors.Is(err, ErrUnsupportedList) {
		t.Fatalf("expected ErrUnsupportedList, got %v", err)
	}
}

func TestTMDBSearchMultiExcludesAdult(t *testing.T) {
	var gotAdult, gotQuery string
	client, server := newTestTMDBClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAdult = r.URL.Query().Get("include_adult")
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(`{"page":1,"total_pages":1,"results":[]}`))
	}))
	defer server.Close()

	if _, err := client.searchMulti(context.Background(), "dune", 1); err != nil {
		t.Fatalf("searchMulti returned error: %v", err)
	}
	if gotAdult != "false" || gotQuery != "dune" {
		t.Fatalf("unexpected query: include_adult=%q query=%q", gotAdult, gotQuery)
	}
}

func TestTMDBNon200SurfacesImmediately(t *testing.T) {
	client, server := newTestTMDBClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := client.fetchList(context.Background(), models.KindMovie, models.ListPopular, 1); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}
