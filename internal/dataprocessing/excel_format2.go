package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
)

var format2Required = []string{"date", "invoice no.", "product", "value"}

// format2Aliases maps lowercased headers to raw field names.
var format2Aliases = map[string]string{
	"name of party": FieldCustomer,
	"invoice no.":   FieldBillNo,
	"date":          FieldDate,
	"product":       FieldItem,
	"batch":         FieldBatch,
	"batch no.":     FieldBatch,
	"expiry":        FieldExpiry,
	"exp.":          FieldExpiry,
	"rate":          FieldPTR,
	"ptr":           FieldPTR,
	"qty":           FieldQuantity,
	"quantity":      FieldQuantity,
	"free":          FieldFree,
	"free qty":      FieldFree,
	"value":         FieldValue,
	"mrp":           FieldMRP,
	"pack":          FieldPackSize,
	"packing":       FieldPackSize,
	"area":          FieldArea,
	"route":         FieldArea,
	"company":       FieldManufacturer,
	"manufacturer":  FieldManufacturer,
}

// numericFields are zero-filled when a spreadsheet cell does not convert.
var numericFields = map[string]bool{
	FieldPTR:      true,
	FieldQuantity: true,
	FieldFree:     true,
	FieldValue:    true,
	FieldMRP:      true,
}

// ExcelFormat2Extractor reads flat invoice tables with the header in row one.
type ExcelFormat2Extractor struct {
	logger *slog.Logger
}

// NewExcelFormat2Extractor creates the extractor.
func NewExcelFormat2Extractor(logger *slog.Logger) *ExcelFormat2Extractor {
	return &ExcelFormat2Extractor{logger: logger}
}

// Format implements Extractor
func (e *ExcelFormat2Extractor) Format() Format { return FormatExcel2 }

// Extract implements Extractor
func (e *ExcelFormat2Extractor) Extract(ctx context.Context, data []byte) ([]RawRecord, error) {
	g, err := loadGrid(data)
	if err != nil {
		return nil, err
	}
	if len(g) == 0 {
		return nil, ErrFormatMismatch
	}

	present := make(map[string]struct{})
	for _, h := range g[0] {
		present[lowerTrim(h)] = struct{}{}
	}
	if !containsAll(present, format2Required) {
		return nil, ErrFormatMismatch
	}
	columns := mapColumns(g[0], lowerTrim, format2Aliases)

	records, dropped := tabularRows(g, 1, columns, nil, FieldDate, FieldBillNo, FieldItem)
	e.logger.DebugContext(ctx, "invoice table read",
		slog.Int("records", len(records)),
		slog.Int("incomplete_rows", dropped))
	return records, nil
}

func lowerTrim(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// column binds a sheet column to the raw field its header aliases.
type column struct {
	index int
	field string
}

// mapColumns returns the aliased columns of header in sheet order.
func mapColumns(header []string, normalize func(string) string, aliases map[string]string) []column {
	var columns []column
	for i, h := range header {
		if field, ok := aliases[normalize(h)]; ok {
			columns = append(columns, column{index: i, field: field})
		}
	}
	return columns
}

// tabularRows converts the rows after a header into records, dropping rows
// where any required field is blank. Unconvertible numbers become zero.
// When several headers alias one field, the leftmost non-blank cell wins.
func tabularRows(g grid, from int, columns []column, defaults RawRecord, required ...string) ([]RawRecord, int) {
	var records []RawRecord
	dropped := 0
	for r := from; r < len(g); r++ {
		if g.blank(r) {
			continue
		}
		rec := make(RawRecord, len(columns)+len(defaults))
		for k, v := range defaults {
			rec[k] = v
		}
		filled := make(map[string]bool, len(columns))
		for _, col := range columns {
			field := col.field
			raw := g.cell(r, col.index)
			if raw == "" || filled[field] {
				continue
			}
			filled[field] = true
			switch {
			case field == FieldQuantity || field == FieldFree:
				rec[field] = Int(int64(numberOrZero(raw)))
			case numericFields[field]:
				rec[field] = Float(numberOrZero(raw))
			case field == FieldDate:
				rec[field] = excelDate(raw)
			default:
				rec[field] = String(raw)
			}
		}
		if !hasText(rec, required...) {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

func hasText(rec RawRecord, fields ...string) bool {
	for _, field := range fields {
		v, ok := rec[field]
		if !ok || strings.TrimSpace(v.AsString()) == "" {
			return false
		}
	}
	return true
}
