package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOMDBClient(handler http.HandlerFunc) (*omdbClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := newOMDBClient("test-key")
	client.baseURL = server.URL
	return client, server
}

func TestOMDBSearchSuccess(t *testing.T) {
	client, server := newTestOMDBClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("apikey"); got != "test-key" {
			t.Errorf("expected api key injection, got %q", got)
		}
		if got := r.URL.Query().Get("s"); got != "Dune" {
			t.Errorf("expected search term Dune, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Search":[{"Title":"Dune","Year":"2021","imdbID":"tt1160419","Type":"movie","Poster":"N/A"}],"totalResults":"1","Response":"True"}`))
	})
	defer server.Close()

	resp, err := client.search(context.Background(), "Dune", 1)
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if len(resp.Search) != 1 || resp.Search[0].IMDBID != "tt1160419" {
		t.Fatalf("unexpected search payload: %+v", resp.Search)
	}
}

func TestOMDBSearchBusinessErrorPreservesUpstreamMessage(t *testing.T) {
	client, server := newTestOMDBClient(func(w http.ResponseWriter, r *http.Request) {
		// OMDb signals "no results" inside a 200 response.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	})
	defer server.Close()

	_, err := client.search(context.Background(), "Dune", 1)
	if err == nil {
		t.Fatalf("expected business error")
	}

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *UpstreamError, got %T: %v", err, err)
	}
	if upstream.Message != "Movie not found!" {
		t.Fatalf("upstream message must be preserved verbatim, got %q", upstream.Message)
	}
}

func TestOMDBTransportErrorIsNotBusinessError(t *testing.T) {
	client, server := newTestOMDBClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	_, err := client.search(context.Background(), "Dune", 1)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		t.Fatalf("transport failure must not be an UpstreamError")
	}
}

func TestOMDBDetailFullPlot(t *testing.T) {
	client, server := newTestOMDBClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("i"); got != "tt1160419" {
			t.Errorf("expected imdb id lookup, got %q", got)
		}
		if got := r.URL.Query().Get("plot"); got != "full" {
			t.Errorf("expected plot=full, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Title":"Dune","Year":"2021","imdbID":"tt1160419","Type":"movie","Poster":"N/A","Plot":"A noble family...","Response":"True"}`))
	})
	defer server.Close()

	detail, err := client.detail(context.Background(), "tt1160419")
	if err != nil {
		t.Fatalf("detail returned error: %v", err)
	}
	if detail.Plot != "A noble family..." {
		t.Fatalf("unexpected plot: %q", detail.Plot)
	}
}
