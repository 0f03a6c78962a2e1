package catalog

import (
	"crossref/internal"
	"crossref/internal/util"
	"crossref/internal/xlsxio"
)

// Index maps a normalized OE number to every YV cross-reference code the
// catalog associates with it. Read-only after construction.
type Index struct {
	byOE map[string][]string
}

// BuildIndex aggregates row-per-pair catalog rows. Rows missing either
// column are skipped. Distinct raw OE values that normalize to the same
// key union their YV sets; a duplicate pair is inserted once.
func BuildIndex(rows []xlsxio.Row, oeColumn, yvColumn string) *Index {
	idx := &Index{byOE: map[string][]string{}}
	for _, row := range rows {
		oe := util.Normalize(row[oeColumn])
		yv := row[yvColumn]
		if oe == "" || yv == "" {
			continue
		}
		idx.add(oe, yv)
	}
	return idx
}

// FromEntries builds an Index from pre-aggregated catalog entries, the
// form the sqlite store and `catalog:import` produce.
func FromEntries(entries []internal.CatalogEntry) *Index {
	idx := &Index{byOE: map[string][]string{}}
	for _, e := range entries {
		oe := util.Normalize(e.OE)
		if oe == "" {
			continue
		}
		for _, yv := range e.YV {
			if yv == "" {
				continue
			}
			idx.add(oe, yv)
		}
	}
	return idx
}

func (i *Index) add(oe, yv string) {
	for _, existing := range i.byOE[oe] {
		if existing == yv {
			return
		}
	}
	i.byOE[oe] = append(i.byOE[oe], yv)
}

// Lookup returns the YV codes for a normalized OE number, or nil.
func (i *Index) Lookup(oe string) []string {
	return i.byOE[oe]
}

func (i *Index) Size() int {
	return len(i.byOE)
}

// Entries flattens the index back into aggregated records, for persisting
// into the store. No ordering guarantee across entries.
func (i *Index) Entries() []internal.CatalogEntry {
	out := make([]internal.CatalogEntry, 0, len(i.byOE))
	for oe, yv := range i.byOE {
		out = append(out, internal.CatalogEntry{OE: oe, YV: append([]string(nil), yv...)})
	}
	return out
}
