package exporter

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salespulse/pkg/contracts/domain"
)

// Sheet names of the workbook export.
const (
	TransactionsSheet = "Transactions"
	SummarySheet      = "Summary"
)

// WriteTransactionsXLSX writes a workbook with every transaction on one sheet
// and per-area totals on another.
func WriteTransactionsXLSX(out io.Writer, txs []domain.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TransactionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeTransactionsSheet(f, txs); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, txs); err != nil {
		return err
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTransactionsSheet(f *excelize.File, txs []domain.Transaction) error {
	sw, err := f.NewStreamWriter(TransactionsSheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]any, 0, len(domain.CanonicalFields))
	for _, h := range domain.CanonicalFields {
		header = append(header, h)
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(tx)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return sw.Flush()
}

type areaTotal struct {
	records int
	qty     int64
	value   decimal.Decimal
}

func writeSummarySheet(f *excelize.File, txs []domain.Transaction) error {
	byArea := make(map[string]*areaTotal)
	total := &areaTotal{}
	for _, tx := range txs {
		area := tx.Area
		if area == "" {
			area = "Unknown"
		}
		a := byArea[area]
		if a == nil {
			a = &areaTotal{}
			byArea[area] = a
		}
		v := decimal.NewFromFloat(tx.Value)
		a.records++
		a.qty += tx.Quantity
		a.value = a.value.Add(v)
		total.records++
		total.qty += tx.Quantity
		total.value = total.value.Add(v)
	}

	areas := make([]string, 0, len(byArea))
	for a := range byArea {
		areas = append(areas, a)
	}
	sort.Strings(areas)

	rows := [][]any{{"area", "records", "quantity", "value"}}
	for _, a := range areas {
		t := byArea[a]
		rows = append(rows, []any{a, t.records, t.qty, t.value.Round(2).InexactFloat64()})
	}
	rows = append(rows, []any{"Total", total.records, total.qty, total.value.Round(2).InexactFloat64()})

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i, err)
		}
	}
	return nil
}
