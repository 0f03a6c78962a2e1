package xlsxio

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a required sheet is absent and the
// caller did not permit falling back to the first sheet.
var ErrSheetNotFound = errors.New("sheet not found")

// Row maps column name to the textual cell value. Empty cells are omitted,
// so the key set varies row to row in untrusted uploads.
type Row map[string]string

type Table struct {
	Headers []string
	Rows    []Row
}

var reSpaces = regexp.MustCompile(`\s+`)

// ReadFile loads one sheet of a workbook into a Table. The first row is
// the header row; every cell comes back as its displayed text, so numbers
// and dates are already stringified. With allowFallback the first sheet
// stands in for a missing named sheet; without it the load fails, since a
// wrong sheet silently read as the catalog would corrupt every match.
func ReadFile(path, sheet string, allowFallback bool) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	return readSheet(f, sheet, allowFallback)
}

func readSheet(f *excelize.File, sheet string, allowFallback bool) (Table, error) {
	target := sheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if !allowFallback {
			return Table{}, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
		}
		list := f.GetSheetList()
		if len(list) == 0 {
			return Table{}, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
		}
		target = list[0]
	}

	raw, err := f.GetRows(target)
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %s: %w", target, err)
	}
	if len(raw) == 0 {
		return Table{}, nil
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = normalizeSpaces(h)
	}

	table := Table{Headers: headerList(headers)}
	for _, cells := range raw[1:] {
		row := Row{}
		for i, cell := range cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			value := normalizeSpaces(cell)
			if value == "" {
				continue
			}
			row[headers[i]] = value
		}
		if len(row) == 0 {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func headerList(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}
