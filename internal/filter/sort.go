package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dom/squad-roster/internal/domain"
)

// Sort keys
const (
	SortByNumber = "number"
	SortByName   = "name"
)

// SortBy controls gallery ordering. The zero value keeps load order.
type SortBy struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc"`
}

// DefaultSort is the gallery's initial order: highest burst gen first.
var DefaultSort = SortBy{Key: SortByNumber, Desc: true}

// ParseSortBy parses "number", "-number", "name" or "-name".
func ParseSortBy(s string) (SortBy, error) {
	if s == "" {
		return SortBy{}, nil
	}
	desc := strings.HasPrefix(s, "-")
	key := strings.TrimPrefix(s, "-")
	switch key {
	case SortByNumber, SortByName:
		return SortBy{Key: key, Desc: desc}, nil
	}
	return SortBy{}, fmt.Errorf("unknown sort key %q", key)
}

// Sort returns a sorted copy. Ties keep their input order.
func Sort(records []*domain.CharacterRecord, by SortBy) []*domain.CharacterRecord {
	out := append([]*domain.CharacterRecord(nil), records...)

	var less func(a, b *domain.CharacterRecord) bool
	switch by.Key {
	case SortByNumber:
		less = func(a, b *domain.CharacterRecord) bool { return a.Number < b.Number }
	case SortByName:
		less = func(a, b *domain.CharacterRecord) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if by.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
