package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cinedeck/models"
	catalogsvc "cinedeck/services/catalog"
	"cinedeck/services/filtering"
)

type catalogService interface {
	List(ctx context.Context, kind models.MediaKind, list models.ListKind, page int) ([]models.CatalogItem, bool, error)
	LoadMore(ctx context.Context, kind models.MediaKind, list models.ListKind) (catalogsvc.ListSnapshot, error)
	ResetList(kind models.MediaKind, list models.ListKind)
	Search(ctx context.Context, query string, page int) ([]models.CatalogItem, bool, error)
	LegacySearch(ctx context.Context, query string, page int) ([]models.CatalogItem, int, error)
	Details(ctx context.Context, kind models.MediaKind, id string) (*models.ItemDetails, error)
	Trailer(ctx context.Context, kind models.MediaKind, id string) (string, error)
}

var _ catalogService = (*catalogsvc.Service)(nil)

// membershipChecker answers watch-status lookups for the filter engine.
type membershipChecker interface {
	IsMember(userID, collection string, kind models.MediaKind, itemID string) (bool, error)
}

// CatalogHandler serves list, search and detail endpoints over the catalog
// aggregation service, applying filter criteria from query parameters.
type CatalogHandler struct {
	Service catalogService
	// Members supplies the "watched" membership source; WatchedSource names
	// which collection counts as seen (favorites or watchlist, a deliberate
	// configuration choice).
	Members       membershipChecker
	WatchedSource string
}

func NewCatalogHandler(s catalogService, members membershipChecker, watchedSource string) *CatalogHandler {
	if watchedSource == "" {
		watchedSource = models.CollectionFavorites
	}
	return &CatalogHandler{Service: s, Members: members, WatchedSource: watchedSource}
}

// Register attaches the catalog routes to the router.
func (h *CatalogHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/catalog/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/legacy-search", h.LegacySearch).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/{kind}/{id:[0-9]+}/details", h.Details).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/{kind}/{id:[0-9]+}/trailer", h.Trailer).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/{kind}/{list}", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/catalog/{kind}/{list}/more", h.LoadMore).Methods(http.MethodPost)
	r.HandleFunc("/api/catalog/{kind}/{list}/reset", h.Reset).Methods(http.MethodPost)
}

// listResponse is the shared payload for list and search endpoints.
type listResponse struct {
	Items   []models.CatalogItem `json:"items"`
	Page    int                  `json:"page"`
	HasMore bool                 `json:"hasMore"`
	Total   int                  `json:"total,omitempty"`
}

// List serves one page of an upstream list, optionally filtered.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, list, ok := listVars(w, r)
	if !ok {
		return
	}

	page := 1
	if parsed, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && parsed > 0 {
		page = parsed
	}

	items, hasMore, err := h.Service.List(r.Context(), kind, list, page)
	if err != nil {
		writeError(w, catalogStatus(err), err)
		return
	}

	items = h.applyFilters(r, items)
	writeJSON(w, listResponse{Items: items, Page: page, HasMore: hasMore})
}

// LoadMore appends the next page to the accumulated list and returns the
// merged, optionally filtered view.
func (h *CatalogHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	kind, list, ok := listVars(w, r)
	if !ok {
		return
	}

	snap, err := h.Service.LoadMore(r.Context(), kind, list)
	if err != nil {
		writeError(w, catalogStatus(err), err)
		return
	}

	items := h.applyFilters(r, snap.Items)
	writeJSON(w, listResponse{Items: items, Page: snap.Page, HasMore: snap.HasMore})
}

// Reset clears the accumulated state of a list.
func (h *CatalogHandler) Reset(w http.ResponseWriter, r *http.Request) {
	kind, list, ok := listVars(w, r)
	if !ok {
		return
	}
	h.Service.ResetList(kind, list)
	w.WriteHeader(http.StatusNoContent)
}

// Search serves multi-type search from the modern catalog API.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeErrorMessage(w, http.StatusBadRequest, "missing query")
		return
	}
	page := 1
	if parsed, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && parsed > 0 {
		page = parsed
	}

	items, hasMore, err := h.Service.Search(r.Context(), query, page)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	items = h.applyFilters(r, items)
	writeJSON(w, listResponse{Items: items, Page: page, HasMore: hasMore})
}

// LegacySearch serves the legacy plot-text API. A business-level "no results"
// answer surfaces the upstream message verbatim with an empty list.
func (h *CatalogHandler) LegacySearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeErrorMessage(w, http.StatusBadRequest, "missing query")
		return
	}
	page := 1
	if parsed, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && parsed > 0 {
		page = parsed
	}

	items, total, err := h.Service.LegacySearch(r.Context(), query, page)
	if err != nil {
		var upstream *catalogsvc.UpstreamError
		if errors.As(err, &upstream) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{
				"items": []models.CatalogItem{},
				"error": upstream.Message,
			})
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, listResponse{Items: items, Page: page, HasMore: page*10 < total, Total: total})
}

// Details serves the all-or-nothing aggregate detail page.
func (h *CatalogHandler) Details(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := itemVars(w, r)
	if !ok {
		return
	}

	details, err := h.Service.Details(r.Context(), kind, id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, details)
}

// Trailer serves the selected YouTube trailer key for a title.
func (h *CatalogHandler) Trailer(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := itemVars(w, r)
	if !ok {
		return
	}

	key, err := h.Service.Trailer(r.Context(), kind, id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, map[string]string{"key": key})
}

// applyFilters builds filter criteria from query parameters and applies them.
// Free text comes from the dedicated "text" parameter, never from the search
// query "q": search results already matched upstream and must not be
// re-filtered by their display title. The watch-status predicate consults the
// configured watched collection for the user named in the request; without a
// user it falls back to treating everything as unseen.
func (h *CatalogHandler) applyFilters(r *http.Request, items []models.CatalogItem) []models.CatalogItem {
	q := r.URL.Query()
	criteria := models.FilterCriteria{
		WatchStatus: models.WatchStatus(q.Get("watch")),
		ReleaseFrom: q.Get("from"),
		ReleaseTo:   q.Get("to"),
		FreeText:    q.Get("text"),
	}
	if raw := q.Get("genres"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				criteria.GenreIDs = append(criteria.GenreIDs, id)
			}
		}
	}
	if criteria.IsZero() {
		return items
	}

	var membership filtering.Membership
	userID := strings.TrimSpace(q.Get("userId"))
	if userID != "" && h.Members != nil {
		membership = func(key string) bool {
			kind, itemID, found := strings.Cut(key, ":")
			if !found {
				return false
			}
			member, err := h.Members.IsMember(userID, h.WatchedSource, models.MediaKind(kind), itemID)
			if err != nil {
				log.Printf("[catalog-handler] membership lookup failed for %s: %v", key, err)
				return false
			}
			return member
		}
	}

	return filtering.Apply(items, criteria, membership)
}

// catalogStatus distinguishes client errors from upstream failures. A valid
// but unsupported (kind, list) pair is the caller's mistake, not a gateway
// problem.
func catalogStatus(err error) int {
	if errors.Is(err, catalogsvc.ErrUnsupportedList) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func listVars(w http.ResponseWriter, r *http.Request) (models.MediaKind, models.ListKind, bool) {
	vars := mux.Vars(r)
	kind := models.MediaKind(vars["kind"])
	list := models.ListKind(vars["list"])
	if !kind.Valid() || !list.Valid() {
		writeErrorMessage(w, http.StatusBadRequest, "unknown kind or list")
		return "", "", false
	}
	return kind, list, true
}

func itemVars(w http.ResponseWriter, r *http.Request) (models.MediaKind, string, bool) {
	vars := mux.Vars(r)
	kind := models.MediaKind(vars["kind"])
	if !kind.Valid() {
		writeErrorMessage(w, http.StatusBadRequest, "unknown kind")
		return "", "", false
	}
	return kind, vars["id"], true
}
