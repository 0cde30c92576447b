package domain

// Facet is one filterable character attribute category.
type Facet string

const (
	FacetElement Facet = "element"
	FacetFaction Facet = "faction"
	FacetRarity  Facet = "rarity"
	FacetRole    Facet = "role"
	FacetWeapon  Facet = "weapon"
	FacetBurst   Facet = "burst"
)

// AllFacets contains all facets in panel order
var AllFacets = []Facet{FacetBurst, FacetRole, FacetFaction, FacetRarity, FacetWeapon, FacetElement}

// IsValid checks if a facet is known
func (f Facet) IsValid() bool {
	switch f {
	case FacetElement, FacetFaction, FacetRarity, FacetRole, FacetWeapon, FacetBurst:
		return true
	}
	return false
}

// String returns the string representation of the facet
func (f Facet) String() string {
	return string(f)
}

// DisplayName returns the label shown on the filter panel
func (f Facet) DisplayName() string {
	switch f {
	case FacetElement:
		return "Element"
	case FacetFaction:
		return "Industry"
	case FacetRarity:
		return "Rarity"
	case FacetRole:
		return "Class"
	case FacetWeapon:
		return "Weapon"
	case FacetBurst:
		return "Burst"
	}
	return string(f)
}

// FilterCriteria is the transient filter panel state. An empty selection for a
// facet places no constraint on it. Burst is the quick filter ("" = none).
type FilterCriteria struct {
	Facets map[Facet][]string `json:"facets"`
	Search string             `json:"search"`
	Burst  string             `json:"burst"`
}

// IsEmpty reports whether the criteria match every record.
func (c FilterCriteria) IsEmpty() bool {
	for _, values := range c.Facets {
		if len(values) > 0 {
			return false
		}
	}
	return c.Search == "" && c.Burst == ""
}
