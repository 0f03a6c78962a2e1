package pipeline

import (
	"testing"

	"crossref/internal/catalog"
	"crossref/internal/xlsxio"
)

func TestMatchRestrictsIndexToQueries(t *testing.T) {
	index := catalog.BuildIndex([]xlsxio.Row{
		{"OE": "X1", "YV": "Y1"},
		{"OE": "A7", "YV": "Y3"},
	}, "OE", "YV")

	found := Match(index, map[string]struct{}{"X1": {}, "Z9": {}})
	if len(found) != 1 {
		t.Fatalf("found=%v", found)
	}
	if yv := found["X1"]; len(yv) != 1 || yv[0] != "Y1" {
		t.Fatalf("found=%v", found)
	}
	if _, ok := found["Z9"]; ok {
		t.Fatal("unmatched query leaked into result")
	}
}

func TestBuildQuerySet(t *testing.T) {
	table := xlsxio.Table{
		Headers: []string{"OEM", "Desc"},
		Rows: []xlsxio.Row{
			{"OEM": "ab-1", "Desc": "left part"},
			{"OEM": "AB1"}, // duplicate after normalization
			{"Desc": "no identifier"},
		},
	}

	queries := BuildQuerySet(table, []string{"OEM"})
	if len(queries) != 1 {
		t.Fatalf("queries=%v", queries)
	}
	if _, ok := queries["AB1"]; !ok {
		t.Fatalf("queries=%v", queries)
	}
}

func TestBuildQuerySetEmptyTable(t *testing.T) {
	queries := BuildQuerySet(xlsxio.Table{Headers: []string{"OEM"}}, []string{"OEM"})
	if len(queries) != 0 {
		t.Fatalf("queries=%v", queries)
	}
}
