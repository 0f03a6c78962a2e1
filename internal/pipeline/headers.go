package pipeline

import (
	"fmt"
	"strings"
)

// ResolveHeaders picks the identifier-bearing columns of an uploaded
// table: every header containing any keyword as a case-insensitive
// substring, in keyword order then header order. A header matching two
// keywords appears twice; downstream set insertion makes that harmless.
func ResolveHeaders(headers []string, keywords []string) ([]string, error) {
	out := make([]string, 0, len(headers))
	for _, kw := range keywords {
		needle := strings.ToLower(kw)
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h), needle) {
				out = append(out, h)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingColumn, strings.Join(keywords, ", "))
	}
	return out, nil
}
