package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"crossref/internal/util"
	"crossref/internal/xlsxio"
)

const (
	standaloneSheetName = "Found OE Numbers"
	annotatedSheetName  = "Updated Data"
)

// StandaloneTable renders one row per matched identifier: column OE plus
// YV_1..YV_n. Rows are sparse; the header covers the widest match set.
func StandaloneTable(found map[string][]string) xlsxio.Table {
	oeKeys := make([]string, 0, len(found))
	maxYV := 0
	for oe, yv := range found {
		oeKeys = append(oeKeys, oe)
		if len(yv) > maxYV {
			maxYV = len(yv)
		}
	}
	sort.Strings(oeKeys)

	headers := []string{"OE"}
	for i := 1; i <= maxYV; i++ {
		headers = append(headers, fmt.Sprintf("YV_%d", i))
	}

	table := xlsxio.Table{Headers: headers}
	for _, oe := range oeKeys {
		row := xlsxio.Row{"OE": oe}
		for i, yv := range found[oe] {
			row[fmt.Sprintf("YV_%d", i+1)] = yv
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// AnnotatedTable re-emits every uploaded row as a fresh copy; rows whose
// resolved cells hit the catalog gain annotateColumn with the matched YV
// codes joined by ", ". The input table is never mutated.
func AnnotatedTable(table xlsxio.Table, resolvedHeaders []string, found map[string][]string, annotateColumn string) xlsxio.Table {
	headers := append([]string(nil), table.Headers...)
	if !containsHeader(headers, annotateColumn) {
		headers = append(headers, annotateColumn)
	}

	out := xlsxio.Table{Headers: headers, Rows: make([]xlsxio.Row, 0, len(table.Rows))}
	for _, row := range table.Rows {
		augmented := xlsxio.Row{}
		for k, v := range row {
			augmented[k] = v
		}
		for _, header := range resolvedHeaders {
			yv, ok := found[util.Normalize(row[header])]
			if !ok {
				continue
			}
			augmented[annotateColumn] = strings.Join(yv, ", ")
			break
		}
		out.Rows = append(out.Rows, augmented)
	}
	return out
}

// WriteStandalone and WriteAnnotated persist the serialized result as a
// one-sheet workbook at outputPath.
func WriteStandalone(found map[string][]string, outputPath string) error {
	return xlsxio.WriteFile(StandaloneTable(found), standaloneSheetName, outputPath)
}

func WriteAnnotated(table xlsxio.Table, resolvedHeaders []string, found map[string][]string, annotateColumn, outputPath string) error {
	annotated := AnnotatedTable(table, resolvedHeaders, found, annotateColumn)
	return xlsxio.WriteFile(annotated, annotatedSheetName, outputPath)
}

func containsHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
