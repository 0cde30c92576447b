package catalog

import "fmt"

// Layout describes the field order of a structured entry name.
type Layout struct {
	Name string
	// HasElement is true when an element field follows the number field.
	HasElement bool
}

var (
	// LegacyLayout is id_number_faction_rarity_burst_role_weapon_name.
	LegacyLayout = Layout{Name: "legacy"}
	// ExtendedLayout is id_number_element_faction_rarity_burst_role_weapon_name.
	ExtendedLayout = Layout{Name: "extended", HasElement: true}
)

// MinFields is the number of delimited fields a valid entry must have.
func (l Layout) MinFields() int {
	if l.HasElement {
		return 9
	}
	return 8
}

// LayoutByName resolves a configured layout name.
func LayoutByName(name string) (Layout, error) {
	switch name {
	case LegacyLayout.Name, "":
		return LegacyLayout, nil
	case ExtendedLayout.Name:
		return ExtendedLayout, nil
	}
	return Layout{}, fmt.Errorf("unknown catalog layout %q", name)
}
