package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/filter"
	"github.com/dom/squad-roster/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

type CharacterResponse struct {
	*domain.CharacterRecord
	ImageURL string `json:"imageUrl"`
}

type CharactersResponse struct {
	Characters []CharacterResponse `json:"characters"`
	Total      int                 `json:"total"`
}

type FilterRequest struct {
	Criteria domain.FilterCriteria `json:"criteria"`
	Sort     string                `json:"sort"`
}

type FacetsResponse struct {
	Facets []service.FacetGroup `json:"facets"`
}

func toCharacterResponses(records []*domain.CharacterRecord) []CharacterResponse {
	out := make([]CharacterResponse, len(records))
	for i, rec := range records {
		out[i] = CharacterResponse{CharacterRecord: rec, ImageURL: "/images/" + rec.File}
	}
	return out
}

// GetAll lists the catalog. Query parameters mirror the filter panel: one
// parameter per facet (repeated or comma separated), q for the name search,
// burst for the quick filter and sort ("number", "-name", ...).
func (h *CatalogHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	criteria := domain.FilterCriteria{
		Facets: make(map[domain.Facet][]string),
		Search: query.Get("q"),
		Burst:  query.Get("burst"),
	}
	for _, f := range domain.AllFacets {
		for _, raw := range query[string(f)] {
			for _, v := range strings.Split(raw, ",") {
				if v = strings.TrimSpace(v); v != "" {
					criteria.Facets[f] = append(criteria.Facets[f], v)
				}
			}
		}
	}

	h.respondFiltered(w, criteria, query.Get("sort"))
}

func (h *CatalogHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.respondFiltered(w, req.Criteria, req.Sort)
}

func (h *CatalogHandler) respondFiltered(w http.ResponseWriter, criteria domain.FilterCriteria, sortParam string) {
	by := filter.DefaultSort
	if sortParam != "" {
		parsed, err := filter.ParseSortBy(sortParam)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		by = parsed
	}

	records := h.catalogService.Filter(criteria, by)
	writeJSON(w, http.StatusOK, CharactersResponse{
		Characters: toCharacterResponses(records),
		Total:      len(h.catalogService.GetAll()),
	})
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.catalogService.Get(id)
	if err != nil {
		fail(w, "catalog.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, CharacterResponse{CharacterRecord: rec, ImageURL: "/images/" + rec.File})
}

func (h *CatalogHandler) Facets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FacetsResponse{Facets: h.catalogService.Facets()})
}
