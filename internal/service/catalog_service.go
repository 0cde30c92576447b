package service

import (
	"github.com/dom/squad-roster/internal/catalog"
	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/filter"
)

type CatalogService struct {
	index *catalog.Index
	vocab map[domain.Facet][]string
}

func NewCatalogService(index *catalog.Index) *CatalogService {
	return &CatalogService{index: index, vocab: index.Vocabulary()}
}

// FacetGroup is one section of the filter panel.
type FacetGroup struct {
	Facet  domain.Facet `json:"facet"`
	Label  string       `json:"label"`
	Values []string     `json:"values"`
}

func (s *CatalogService) GetAll() []*domain.CharacterRecord {
	return s.index.All()
}

func (s *CatalogService) Get(id string) (*domain.CharacterRecord, error) {
	return s.index.Get(id)
}

// ByID satisfies CharacterLookup for the other services.
func (s *CatalogService) ByID(id string) (*domain.CharacterRecord, bool) {
	return s.index.ByID(id)
}

// Filter returns the matching records in the requested order.
func (s *CatalogService) Filter(criteria domain.FilterCriteria, by filter.SortBy) []*domain.CharacterRecord {
	normalized := filter.Normalize(criteria, s.vocab)
	return filter.Sort(filter.Select(normalized, s.index.All()), by)
}

// Matching returns the ids matching the criteria.
func (s *CatalogService) Matching(criteria domain.FilterCriteria) map[string]struct{} {
	return filter.Apply(filter.Normalize(criteria, s.vocab), s.index.All())
}

// Facets lists every facet with known values, in panel order.
func (s *CatalogService) Facets() []FacetGroup {
	groups := make([]FacetGroup, 0, len(domain.AllFacets))
	for _, f := range domain.AllFacets {
		values, ok := s.vocab[f]
		if !ok {
			continue
		}
		groups = append(groups, FacetGroup{Facet: f, Label: f.DisplayName(), Values: values})
	}
	return groups
}

// Scorer returns the default squad scorer over this catalog.
func (s *CatalogService) Scorer() domain.Scorer {
	return catalog.NewBurstGenScorer(s.index)
}
