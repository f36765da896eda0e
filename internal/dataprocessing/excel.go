package dataprocessing

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// grid is the raw cell text of the first worksheet, without any header
// interpretation. Rows may be ragged.
type grid [][]string

// loadGrid reads the first sheet of a workbook. Cells are returned as their
// stored values, so dates arrive as serial numbers. Legacy BIFF workbooks
// are read by loadLegacyGrid.
func loadGrid(data []byte) (grid, error) {
	if isLegacyWorkbook(data) {
		return loadLegacyGrid(data)
	}
	opts := excelize.Options{RawCellValue: true}
	f, err := excelize.OpenReader(bytes.NewReader(data), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return grid(rows), nil
}

// cell returns the trimmed text at column idx, or "" when the row is short.
func (g grid) cell(row, idx int) string {
	if row < 0 || row >= len(g) || idx < 0 || idx >= len(g[row]) {
		return ""
	}
	return strings.TrimSpace(g[row][idx])
}

func (g grid) blank(row int) bool {
	for _, c := range g[row] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var headerReplacer = strings.NewReplacer(" ", "", ".", "")

// normalizeHeader lowercases a header and strips spaces and periods, so
// "Bill No." and "billno" compare equal.
func normalizeHeader(s string) string {
	return headerReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// normalizedSet returns the normalized non-empty cells of a row.
func normalizedSet(row []string) map[string]struct{} {
	set := make(map[string]struct{}, len(row))
	for _, c := range row {
		if n := normalizeHeader(c); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func containsAll(set map[string]struct{}, want []string) bool {
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

// headerIndex maps normalized header text to its column. Later duplicates
// overwrite earlier ones.
func headerIndex(row []string) map[string]int {
	idx := make(map[string]int, len(row))
	for i, c := range row {
		if n := normalizeHeader(c); n != "" {
			idx[n] = i
		}
	}
	return idx
}

// excelDate turns a raw date cell into a Value. Serial numbers become
// times; anything else stays text for the normalizer to parse.
func excelDate(raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Value{}
	}
	if n, ok := parseNumber(raw); ok {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return Time(t)
		}
	}
	return String(raw)
}

// numberOrZero parses a numeric cell, treating blanks and junk as zero.
func numberOrZero(raw string) float64 {
	f, _ := parseNumber(raw)
	return f
}
