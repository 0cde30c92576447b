package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/domain"
)

// ImageExtensions are the file types LoadDir treats as catalog entries.
var ImageExtensions = map[string]bool{".webp": true, ".png": true, ".jpg": true, ".jpeg": true}

// Index is the immutable, ordered collection of character records built at
// startup. It is safe for concurrent reads.
type Index struct {
	records []*domain.CharacterRecord
	byID    map[string]*domain.CharacterRecord
}

// Load parses every entry name. Malformed entries are logged and skipped; the
// returned errors describe each skipped entry. Load itself never fails.
func Load(entries []string, layout Layout, log logrus.FieldLogger) (*Index, []error) {
	if log == nil {
		log = logrus.New()
	}
	idx := &Index{
		records: make([]*domain.CharacterRecord, 0, len(entries)),
		byID:    make(map[string]*domain.CharacterRecord, len(entries)),
	}

	var skipped []error
	for _, entry := range entries {
		rec, err := ParseEntry(entry, layout)
		if err == nil {
			if _, dup := idx.byID[rec.ID]; dup {
				err = fmt.Errorf("%w: %q duplicates id %s", domain.ErrMalformedEntry, entry, rec.ID)
			}
		}
		if err != nil {
			log.WithField("entry", entry).Warnf("skipping catalog entry: %v", err)
			skipped = append(skipped, err)
			continue
		}
		idx.records = append(idx.records, rec)
		idx.byID[rec.ID] = rec
	}

	log.WithFields(logrus.Fields{
		"loaded":  len(idx.records),
		"skipped": len(skipped),
		"layout":  layout.Name,
	}).Info("catalog loaded")
	return idx, skipped
}

// LoadDir loads every image file at the root of fsys, in name order.
func LoadDir(fsys fs.FS, layout Layout, log logrus.FieldLogger) (*Index, []error, error) {
	dirEntries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list catalog directory: %w", err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		if e.IsDir() || !ImageExtensions[strings.ToLower(path.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}

	idx, skipped := Load(names, layout, log)
	return idx, skipped, nil
}

// All returns every record in load order. The slice must not be modified.
func (i *Index) All() []*domain.CharacterRecord {
	return i.records
}

// Len returns the number of loaded records.
func (i *Index) Len() int {
	return len(i.records)
}

func (i *Index) ByID(id string) (*domain.CharacterRecord, bool) {
	rec, ok := i.byID[id]
	return rec, ok
}

// Get is ByID with a sentinel error for callers that propagate errors.
func (i *Index) Get(id string) (*domain.CharacterRecord, error) {
	rec, ok := i.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCharacterNotFound, id)
	}
	return rec, nil
}

// FacetValues returns the sorted distinct non-empty values of a facet.
func (i *Index) FacetValues(f domain.Facet) []string {
	seen := make(map[string]struct{})
	for _, rec := range i.records {
		if v := rec.FacetValue(f); v != "" {
			seen[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Vocabulary returns FacetValues for every facet that has at least one value.
func (i *Index) Vocabulary() map[domain.Facet][]string {
	vocab := make(map[domain.Facet][]string, len(domain.AllFacets))
	for _, f := range domain.AllFacets {
		if values := i.FacetValues(f); len(values) > 0 {
			vocab[f] = values
		}
	}
	return vocab
}

// IsMalformed reports whether err came from a skipped entry.
func IsMalformed(err error) bool {
	return errors.Is(err, domain.ErrMalformedEntry)
}
