package domain

// CharacterRecord is one catalog entry. Records are built once by the catalog
// index and shared by reference; nothing mutates them after load.
type CharacterRecord struct {
	ID      string `json:"id"`     // e.g., "65"
	Number  int    `json:"number"` // burst gen value encoded in the entry name
	Name    string `json:"name"`   // display name, e.g., "Neon Blue Ocean"
	Element string `json:"element,omitempty"`
	Faction string `json:"faction"` // elysion, missilis, tetra, pilgrim, abnormal
	Rarity  string `json:"rarity"`  // ssr, sr, r
	Role    string `json:"role"`    // atk, def, sp
	Weapon  string `json:"weapon"`  // ar, smg, snr, rl, sg, mg
	Burst   string `json:"burst"`   // b1, b2, b3, a
	File    string `json:"file"`    // source entry, used as the portrait reference
}

// FacetValue returns the record's value for the given facet.
func (c *CharacterRecord) FacetValue(f Facet) string {
	switch f {
	case FacetElement:
		return c.Element
	case FacetFaction:
		return c.Faction
	case FacetRarity:
		return c.Rarity
	case FacetRole:
		return c.Role
	case FacetWeapon:
		return c.Weapon
	case FacetBurst:
		return c.Burst
	}
	return ""
}
