package dataprocessing

import (
	"context"
	"log/slog"
)

var format3HeaderCells = []string{"slno", "date", "customer", "route", "productname"}

// format3Aliases maps normalized headers to raw field names.
var format3Aliases = map[string]string{
	"customer":    FieldCustomer,
	"date":        FieldDate,
	"route":       FieldArea,
	"productname": FieldItem,
	"batch":       FieldBatch,
	"batchno":     FieldBatch,
	"expiry":      FieldExpiry,
	"expdate":     FieldExpiry,
	"rate":        FieldPTR,
	"ptr":         FieldPTR,
	"sqty":        FieldQuantity,
	"fqty":        FieldFree,
	"free":        FieldFree,
	"amount":      FieldValue,
	"value":       FieldValue,
	"netamount":   FieldValue,
	"mrp":         FieldMRP,
	"pack":        FieldPackSize,
	"packing":     FieldPackSize,
}

// ExcelFormat3Extractor reads route-wise sales sheets whose header sits
// below a variable number of banner rows. These sheets carry no bill number.
type ExcelFormat3Extractor struct {
	logger *slog.Logger
}

// NewExcelFormat3Extractor creates the extractor.
func NewExcelFormat3Extractor(logger *slog.Logger) *ExcelFormat3Extractor {
	return &ExcelFormat3Extractor{logger: logger}
}

// Format implements Extractor
func (e *ExcelFormat3Extractor) Format() Format { return FormatExcel3 }

// Extract implements Extractor
func (e *ExcelFormat3Extractor) Extract(ctx context.Context, data []byte) ([]RawRecord, error) {
	g, err := loadGrid(data)
	if err != nil {
		return nil, err
	}

	headerRow := -1
	for r := range g {
		if containsAll(normalizedSet(g[r]), format3HeaderCells) {
			headerRow = r
			break
		}
	}
	if headerRow < 0 {
		return nil, ErrFormatMismatch
	}

	columns := mapColumns(g[headerRow], normalizeHeader, format3Aliases)

	defaults := RawRecord{FieldBillNo: String(notAvailable)}
	records, dropped := tabularRows(g, headerRow+1, columns, defaults, FieldItem)
	e.logger.DebugContext(ctx, "route sheet read",
		slog.Int("header_row", headerRow+1),
		slog.Int("records", len(records)),
		slog.Int("rows_without_item", dropped))
	return records, nil
}
