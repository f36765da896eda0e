// Package exporter writes canonical transactions out as CSV (UTF-8 with a
// BOM for Excel) and as an xlsx workbook with a per-area summary sheet.
//
// Columns always follow domain.CanonicalFields.
package exporter
