package catalog

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/dom/squad-roster/internal/domain"
)

const fieldSep = "_"

var roleAliases = map[string]string{
	"defender":  "def",
	"defense":   "def",
	"supporter": "sp",
	"support":   "sp",
	"attacker":  "atk",
	"attack":    "atk",
}

var (
	knownRoles   = map[string]bool{"def": true, "sp": true, "atk": true}
	knownWeapons = map[string]bool{"smg": true, "ar": true, "snr": true, "rl": true, "sg": true, "mg": true}
)

// ParseEntry turns one structured entry name into a record. Errors wrap
// domain.ErrMalformedEntry.
func ParseEntry(entry string, layout Layout) (*domain.CharacterRecord, error) {
	base := strings.TrimSuffix(entry, path.Ext(entry))
	fields := strings.Split(base, fieldSep)
	if len(fields) < layout.MinFields() {
		return nil, fmt.Errorf("%w: %q has %d fields, want at least %d",
			domain.ErrMalformedEntry, entry, len(fields), layout.MinFields())
	}

	number, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q number field %q is not an integer",
			domain.ErrMalformedEntry, entry, fields[1])
	}

	rec := &domain.CharacterRecord{
		ID:     strings.TrimSpace(fields[0]),
		Number: number,
		File:   entry,
	}

	rest := fields[2:]
	if layout.HasElement {
		rec.Element = normalizeValue(rest[0])
		rest = rest[1:]
	}
	rec.Faction = normalizeValue(rest[0])
	rec.Rarity = normalizeValue(rest[1])
	rec.Burst = normalizeValue(rest[2])
	rec.Role = normalizeRole(rest[3])
	rec.Weapon = normalizeValue(rest[4])
	rec.Name = strings.TrimSpace(strings.Join(rest[5:], " "))

	// Some published names carry weapon and role in each other's position.
	if knownWeapons[rec.Role] && knownRoles[normalizeRole(rec.Weapon)] {
		rec.Role, rec.Weapon = normalizeRole(rec.Weapon), rec.Role
	}

	if rec.ID == "" || rec.Name == "" {
		return nil, fmt.Errorf("%w: %q has an empty id or name", domain.ErrMalformedEntry, entry)
	}
	for _, f := range domain.AllFacets {
		if f == domain.FacetElement && !layout.HasElement {
			continue
		}
		if rec.FacetValue(f) == "" {
			return nil, fmt.Errorf("%w: %q has an empty %s", domain.ErrMalformedEntry, entry, f)
		}
	}
	return rec, nil
}

func normalizeValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func normalizeRole(v string) string {
	v = normalizeValue(v)
	if alias, ok := roleAliases[v]; ok {
		return alias
	}
	return v
}
