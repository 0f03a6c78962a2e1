package pipeline

import "crossref/internal/catalog"

// Match restricts the reference index to the query set. Every key of the
// result is both a catalog key and a query member. Re-unioning the same
// key is idempotent, so duplicated resolved columns upstream cost nothing.
func Match(index *catalog.Index, queries map[string]struct{}) map[string][]string {
	found := map[string][]string{}
	for query := range queries {
		yv := index.Lookup(query)
		if len(yv) == 0 {
			continue
		}
		for _, code := range yv {
			found[query] = appendUnique(found[query], code)
		}
	}
	return found
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
