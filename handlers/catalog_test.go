package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"cinedeck/models"
	catalogsvc "cinedeck/services/catalog"
)

type stubCatalogService struct {
	listItems    []models.CatalogItem
	listErr      error
	snapshot     catalogsvc.ListSnapshot
	loadMoreErr  error
	resetCalls   int
	searchItems  []models.CatalogItem
	legacyItems  []models.CatalogItem
	legacyTotal  int
	legacyErr    error
	details      *models.ItemDetails
	detailsErr   error
	trailerKey   string
	lastKind     models.MediaKind
	lastList     models.ListKind
	lastQuery    string
	lastPage     int
	lastDetailID string
}

func (s *stubCatalogService) List(ctx context.Context, kind models.MediaKind, list models.ListKind, page int) ([]models.CatalogItem, bool, error) {
	s.lastKind, s.lastList, s.lastPage = kind, list, page
	return s.listItems, true, s.listErr
}

func (s *stubCatalogService) LoadMore(ctx context.Context, kind models.MediaKind, list models.ListKind) (catalogsvc.ListSnapshot, error) {
	s.lastKind, s.lastList = kind, list
	return s.snapshot, s.loadMoreErr
}

func (s *stubCatalogService) ResetList(kind models.MediaKind, list models.ListKind) {
	s.resetCalls++
}

func (s *stubCatalogService) Search(ctx context.Context, query string, page int) ([]models.CatalogItem, bool, error) {
	s.lastQuery, s.lastPage = query, page
	return s.searchItems, false, nil
}

func (s *stubCatalogService) LegacySearch(ctx context.Context, query string, page int) ([]models.CatalogItem, int, error) {
	s.lastQuery, s.lastPage = query, page
	return s.legacyItems, s.legacyTotal, s.legacyErr
}

func (s *stubCatalogService) Details(ctx context.Context, kind models.MediaKind, id string) (*models.ItemDetails, error) {
	s.lastKind, s.lastDetailID = kind, id
	return s.details, s.detailsErr
}

func (s *stubCatalogService) Trailer(ctx context.Context, kind models.MediaKind, id string) (string, error) {
	s.lastKind, s.lastDetailID = kind, id
	return s.trailerKey, nil
}

type stubMembers struct {
	members map[string]bool
}

func (s *stubMembers) IsMember(userID, collection string, kind models.MediaKind, itemID string) (bool, error) {
	return s.members[string(kind)+":"+itemID], nil
}

func newCatalogRouter(stub *stubCatalogService, members membershipChecker) *mux.Router {
	r := mux.NewRouter()
	NewCatalogHandler(stub, members, "").Register(r)
	return r
}

func TestListEndpointValidatesKindAndList(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/movie/bestOf", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown list should be 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/book/popular", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind should be 400, got %d", rec.Code)
	}
}

func TestListEndpointReturnsItems(t *testing.T) {
	stub := &stubCatalogService{listItems: []models.CatalogItem{
		{ID: "1", Kind: models.KindMovie, Title: "Dune"},
	}}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/movie/popular?page=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.lastKind != models.KindMovie || stub.lastList != models.ListPopular || stub.lastPage != 3 {
		t.Fatalf("unexpected service call: kind=%s list=%s page=%d", stub.lastKind, stub.lastList, stub.lastPage)
	}

	var resp struct {
		Items   []models.CatalogItem `json:"items"`
		HasMore bool                 `json:"hasMore"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Dune" || !resp.HasMore {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestListEndpointAppliesFilters(t *testing.T) {
	stub := &stubCatalogService{listItems: []models.CatalogItem{
		{ID: "1", Kind: models.KindMovie, Title: "Old", ReleaseDate: "1999-01-01"},
		{ID: "2", Kind: models.KindMovie, Title: "New", ReleaseDate: "2022-01-01"},
	}}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/movie/popular?from=2020-01-01", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Items []models.CatalogItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "New" {
		t.Fatalf("expected only the 2022 release, got %+v", resp.Items)
	}
}

func TestListEndpointWatchFilterUsesMembership(t *testing.T) {
	stub := &stubCatalogService{listItems: []models.CatalogItem{
		{ID: "1", Kind: models.KindMovie, Title: "Seen"},
		{ID: "2", Kind: models.KindMovie, Title: "Unseen"},
	}}
	members := &stubMembers{members: map[string]bool{"movie:1": true}}
	router := newCatalogRouter(stub, members)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/catalog/movie/popular?watch=seen&userId=alice", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Items []models.CatalogItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Seen" {
		t.Fatalf("expected only the watched item, got %+v", resp.Items)
	}
}

func TestLoadMoreEndpoint(t *testing.T) {
	stub := &stubCatalogService{snapshot: catalogsvc.ListSnapshot{
		Items:   []models.CatalogItem{{ID: "1", Kind: models.KindTV, Title: "Dark"}},
		Page:    2,
		HasMore: true,
	}}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/catalog/tv/topRated/more", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Page    int  `json:"page"`
		HasMore bool `json:"hasMore"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Page != 2 || !resp.HasMore {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestResetEndpoint(t *testing.T) {
	stub := &stubCatalogService{}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/catalog/movie/popular/reset", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if stub.resetCalls != 1 {
		t.Fatalf("expected one reset call, got %d", stub.resetCalls)
	}
}

func TestSearchDoesNotReFilterResultsByQuery(t *testing.T) {
	// Upstream matches on more than the display title (translated titles,
	// person known-for); the query must not double as a free-text filter.
	stub := &stubCatalogService{searchItems: []models.CatalogItem{
		{ID: "194", Kind: models.KindMovie, Title: "Amélie"},
	}}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/search?q=fabuleux", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.lastQuery != "fabuleux" {
		t.Fatalf("expected upstream query %q, got %q", "fabuleux", stub.lastQuery)
	}

	var resp struct {
		Items []models.CatalogItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Amélie" {
		t.Fatalf("upstream hit must survive untouched, got %+v", resp.Items)
	}
}

func TestListEndpointFreeTextUsesTextParam(t *testing.T) {
	stub := &stubCatalogService{listItems: []models.CatalogItem{
		{ID: "1", Kind: models.KindMovie, Title: "Amélie"},
		{ID: "2", Kind: models.KindMovie, Title: "Dune"},
	}}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/movie/popular?text=amelie", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Items []models.CatalogItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Title != "Amélie" {
		t.Fatalf("expected only the matching title, got %+v", resp.Items)
	}
}

func TestListUnsupportedPairIsBadRequest(t *testing.T) {
	stub := &stubCatalogService{
		listErr: fmt.Errorf("fetch tv/upcoming page 1: %w", catalogsvc.ErrUnsupportedList),
	}
	router := newCatalogRouter(stub, nil)

	// tv/upcoming passes validation but has no upstream endpoint.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/tv/upcoming", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported pair should be 400, got %d", rec.Code)
	}

	stub.loadMoreErr = stub.listErr
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/catalog/tv/upcoming/more", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported pair on load-more should be 400, got %d", rec.Code)
	}
}

func TestSearchEndpointRequiresQuery(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/search", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing query should be 400, got %d", rec.Code)
	}
}

func TestLegacySearchSurfacesUpstreamMessage(t *testing.T) {
	stub := &stubCatalogService{
		legacyErr: &catalogsvc.UpstreamError{Message: "Movie not found!"},
	}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/legacy-search?q=zzz", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for upstream no-results, got %d", rec.Code)
	}

	var resp struct {
		Items []models.CatalogItem `json:"items"`
		Error string               `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "Movie not found!" {
		t.Fatalf("upstream message must pass through verbatim, got %q", resp.Error)
	}
	if resp.Items == nil || len(resp.Items) != 0 {
		t.Fatalf("expected an empty items array, got %v", resp.Items)
	}
}

func TestLegacySearchTransportFailureIsBadGateway(t *testing.T) {
	stub := &stubCatalogService{legacyErr: errors.New("connection refused")}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/legacy-search?q=dune", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for transport failure, got %d", rec.Code)
	}
}

func TestDetailsEndpoint(t *testing.T) {
	stub := &stubCatalogService{details: &models.ItemDetails{
		Item: models.CatalogItem{ID: "550", Kind: models.KindMovie, Title: "Fight Club"},
	}}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/movie/550/details", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.lastDetailID != "550" {
		t.Fatalf("expected detail lookup for 550, got %q", stub.lastDetailID)
	}
}

func TestDetailsEndpointFailureIsBadGateway(t *testing.T) {
	stub := &stubCatalogService{detailsErr: errors.New("aggregate failed")}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/movie/550/details", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestTrailerEndpoint(t *testing.T) {
	stub := &stubCatalogService{trailerKey: "dQw4w9WgXcQ"}
	router := newCatalogRouter(stub, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/movie/550/trailer", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["key"] != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected trailer key %q", resp["key"])
	}
}
