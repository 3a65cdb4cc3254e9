package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cinedeck/models"
	collectionssvc "cinedeck/services/collections"
)

type collectionsService interface {
	IsMember(userID, collection string, kind models.MediaKind, itemID string) (bool, error)
	List(userID, collection string) ([]models.CollectionEntry, error)
	Toggle(userID, collection string, item models.CatalogItem) (bool, error)
	Activity(userID string, limit int) ([]models.ActivityRecord, error)
	AddReview(userID string, review models.Review) (models.Review, error)
	Reviews(userID string) ([]models.Review, error)
	DeleteReview(userID string, kind models.MediaKind, itemID string) error
}

var _ collectionsService = (*collectionssvc.Service)(nil)

// CollectionsHandler serves per-user collections, the activity feed and
// reviews.
type CollectionsHandler struct {
	Service collectionsService
}

func NewCollectionsHandler(s collectionsService) *CollectionsHandler {
	return &CollectionsHandler{Service: s}
}

// Register attaches the user-scoped routes to the router.
func (h *CollectionsHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/users/{userID}/collections/{name}", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userID}/collections/{name}/toggle", h.Toggle).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{userID}/collections/{name}/{kind}/{itemID}", h.Membership).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userID}/activity", h.Activity).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userID}/reviews", h.AddReview).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{userID}/reviews", h.Reviews).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userID}/reviews/{kind}/{itemID}", h.DeleteReview).Methods(http.MethodDelete)
}

// List returns every entry of one named collection.
func (h *CollectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entries, err := h.Service.List(vars["userID"], vars["name"])
	if err != nil {
		writeError(w, collectionStatus(err), err)
		return
	}
	if entries == nil {
		entries = []models.CollectionEntry{}
	}
	writeJSON(w, map[string][]models.CollectionEntry{"items": entries})
}

// Toggle flips membership of the posted item and reports the new state.
func (h *CollectionsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var request struct {
		Item models.CatalogItem `json:"item"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if request.Item.ID == "" || !request.Item.Kind.Valid() {
		writeErrorMessage(w, http.StatusBadRequest, "item id and kind are required")
		return
	}

	member, err := h.Service.Toggle(vars["userID"], vars["name"], request.Item)
	if err != nil {
		writeError(w, collectionStatus(err), err)
		return
	}
	writeJSON(w, map[string]bool{"member": member})
}

// Membership reports whether one composite (kind, itemID) is saved.
func (h *CollectionsHandler) Membership(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := models.MediaKind(vars["kind"])
	if !kind.Valid() {
		writeErrorMessage(w, http.StatusBadRequest, "unknown kind")
		return
	}

	member, err := h.Service.IsMember(vars["userID"], vars["name"], kind, vars["itemID"])
	if err != nil {
		writeError(w, collectionStatus(err), err)
		return
	}
	writeJSON(w, map[string]bool{"member": member})
}

// Activity returns the user's recent activity feed.
func (h *CollectionsHandler) Activity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit := 0
	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 {
		limit = parsed
	}

	records, err := h.Service.Activity(vars["userID"], limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []models.ActivityRecord{}
	}
	writeJSON(w, map[string][]models.ActivityRecord{"activity": records})
}

// AddReview saves the posted review for the user.
func (h *CollectionsHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var review models.Review
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&review); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if review.ItemID == "" || !review.Kind.Valid() || review.Body == "" {
		writeErrorMessage(w, http.StatusBadRequest, "itemId, kind and body are required")
		return
	}

	saved, err := h.Service.AddReview(vars["userID"], review)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saved)
}

// Reviews returns all of the user's reviews.
func (h *CollectionsHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reviews, err := h.Service.Reviews(vars["userID"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	writeJSON(w, map[string][]models.Review{"reviews": reviews})
}

// DeleteReview removes the user's review of one item.
func (h *CollectionsHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := models.MediaKind(vars["kind"])
	if !kind.Valid() {
		writeErrorMessage(w, http.StatusBadRequest, "unknown kind")
		return
	}

	if err := h.Service.DeleteReview(vars["userID"], kind, vars["itemID"]); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func collectionStatus(err error) int {
	if errors.Is(err, collectionssvc.ErrUnknownCollection) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
