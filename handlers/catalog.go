package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cineview/models"
	"cineview/services/catalog"
)

// catalogService is the query surface the HTTP layer consumes.
type catalogService interface {
	List(ctx context.Context, limit int) []models.Entry
	RandomSample(ctx context.Context, n int) []models.Entry
	GetByID(ctx context.Context, id int) (models.Entry, error)
	Search(ctx context.Context, query string, limit int) []models.Entry
}

var _ catalogService = (*catalog.Service)(nil)

// CatalogHandler serves the movie catalog API.
type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(s catalogService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

// Register attaches the catalog routes to the API subrouter. The random
// route keeps its own path segment so it never collides with the numeric id
// route.
func (h *CatalogHandler) Register(r *mux.Router) {
	r.HandleFunc("/movies", h.Featured).Methods(http.MethodGet)
	r.HandleFunc("/movies/random/{count}", h.Random).Methods(http.MethodGet)
	r.HandleFunc("/movies/{id:[0-9]+}", h.GetByID).Methods(http.MethodGet)
	r.HandleFunc("/search", h.Search).Methods(http.MethodGet)
}

// Featured returns the first default-cap entries, enriched.
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	items := h.Service.List(r.Context(), 0)
	writeJSON(w, http.StatusOK, items)
}

// Random returns a random slice of the catalog. A count that is not a
// positive integer falls back to the service's default cap.
func (h *CatalogHandler) Random(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(mux.Vars(r)["count"])
	if err != nil {
		count = 0
	}
	items := h.Service.RandomSample(r.Context(), count)
	writeJSON(w, http.StatusOK, items)
}

// GetByID returns one entry, enriched, or a 404 envelope.
func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "movie not found"})
		return
	}
	entry, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "movie not found"})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Search returns capped substring matches. An empty query is an empty list.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	items := h.Service.Search(r.Context(), q, 0)
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
