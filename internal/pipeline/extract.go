package pipeline

import (
	"log"

	"crossref/internal/util"
	"crossref/internal/xlsxio"
)

// BuildQuerySet collects the normalized values of the resolved columns
// into a set. Duplicates collapse, empty and whitespace-only cells are
// dropped, and a table with no rows yields an empty set, not an error.
func BuildQuerySet(table xlsxio.Table, resolvedHeaders []string) map[string]struct{} {
	queries := map[string]struct{}{}
	if len(table.Rows) == 0 {
		log.Printf("uploaded table has no data rows")
		return queries
	}

	for _, row := range table.Rows {
		for _, header := range resolvedHeaders {
			normalized := util.Normalize(row[header])
			if normalized == "" {
				continue
			}
			queries[normalized] = struct{}{}
		}
	}
	return queries
}
