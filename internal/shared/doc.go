// Package shared holds helpers used by more than one layer of SalesPulse.
//
// The testutil subpackage provides a capturing slog handler for asserting on
// log output and small fixtures: transactions, dates and in-memory workbooks
// built with excelize. Nothing here is imported by production code.
package shared
