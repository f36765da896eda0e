package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// csvAliases renames known export headers to raw field names. Other
// headers pass through unchanged.
var csvAliases = map[string]string{
	"Customer":        FieldCustomer,
	"Bill":            FieldBillNo,
	"TransactionDate": FieldDate,
	"Product":         FieldItem,
	"Batch":           FieldBatch,
	"ExpiryDate":      FieldExpiry,
	"Rate":            FieldPTR,
	"SaleQty":         FieldQuantity,
	"FreeQty":         FieldFree,
	"Amount":          FieldValue,
	"Territory":       FieldRegion,
}

var _ Extractor = (*CSVExtractor)(nil)

// CSVExtractor reads header-driven CSV exports. Rows are not validated here;
// bad values surface when the records are normalized.
type CSVExtractor struct {
	logger *slog.Logger
}

// NewCSVExtractor creates a CSV extractor.
func NewCSVExtractor(logger *slog.Logger) *CSVExtractor {
	return &CSVExtractor{logger: logger}
}

// Format implements Extractor
func (e *CSVExtractor) Format() Format { return FormatCSV }

// Extract implements Extractor
func (e *CSVExtractor) Extract(ctx context.Context, data []byte) ([]RawRecord, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	fields := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if alias, ok := csvAliases[h]; ok {
			h = alias
		}
		fields[i] = h
	}

	var records []RawRecord
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}
		if len(records)%1000 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		rec := make(RawRecord, len(fields))
		for i, val := range row {
			if i >= len(fields) {
				break
			}
			if fields[i] == "" {
				continue
			}
			if val = strings.TrimSpace(val); val != "" {
				rec[fields[i]] = String(val)
			}
		}
		records = append(records, rec)
	}

	e.logger.DebugContext(ctx, "csv export read",
		slog.Int("columns", len(fields)),
		slog.Int("records", len(records)))
	return records, nil
}
