package testutil

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"salespulse/pkg/contracts/domain"
)

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Sale builds a transaction with the fields aggregations look at.
func Sale(customer, item, area, bill string, date time.Time, qty int64, value float64) domain.Transaction {
	return domain.Transaction{
		CustomerName: customer,
		ItemName:     item,
		Area:         area,
		BillNo:       bill,
		Date:         date,
		Quantity:     qty,
		Value:        value,
	}
}

// Workbook renders rows into the first sheet of an in-memory xlsx file.
func Workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}
