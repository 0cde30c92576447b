// Package filter selects and orders catalog records for the gallery.
//
// Criteria are combined with AND across facet categories and OR within one
// category. A category with no selected values places no constraint.
package filter

import (
	"sort"
	"strings"

	"github.com/dom/squad-roster/internal/domain"
)

// Matches reports whether a single record satisfies the criteria.
func Matches(c domain.FilterCriteria, rec *domain.CharacterRecord) bool {
	for facet, selected := range c.Facets {
		if len(selected) == 0 {
			continue
		}
		value := rec.FacetValue(facet)
		if value == "" || !contains(selected, value) {
			return false
		}
	}
	if c.Burst != "" && !strings.EqualFold(rec.Burst, c.Burst) {
		return false
	}
	if c.Search != "" && !strings.Contains(strings.ToLower(rec.Name), strings.ToLower(c.Search)) {
		return false
	}
	return true
}

// Apply returns the ids of every record matching the criteria.
func Apply(c domain.FilterCriteria, records []*domain.CharacterRecord) map[string]struct{} {
	out := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if Matches(c, rec) {
			out[rec.ID] = struct{}{}
		}
	}
	return out
}

// Select is Apply that keeps the input order.
func Select(c domain.FilterCriteria, records []*domain.CharacterRecord) []*domain.CharacterRecord {
	out := make([]*domain.CharacterRecord, 0, len(records))
	for _, rec := range records {
		if Matches(c, rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Normalize lower-cases and de-duplicates selections, drops unknown facets
// and treats a category whose selection covers the whole vocabulary as
// unconstrained. The input is not modified.
func Normalize(c domain.FilterCriteria, vocabulary map[domain.Facet][]string) domain.FilterCriteria {
	out := domain.FilterCriteria{
		Facets: make(map[domain.Facet][]string, len(c.Facets)),
		Search: strings.TrimSpace(c.Search),
		Burst:  strings.ToLower(strings.TrimSpace(c.Burst)),
	}
	for facet, selected := range c.Facets {
		if !facet.IsValid() {
			continue
		}
		values := dedupeLower(selected)
		if len(values) == 0 {
			continue
		}
		if known := vocabulary[facet]; len(known) > 0 && coversAll(values, known) {
			continue
		}
		out.Facets[facet] = values
	}
	return out
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func dedupeLower(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func coversAll(selected, known []string) bool {
	for _, k := range known {
		if !contains(selected, k) {
			return false
		}
	}
	return true
}
