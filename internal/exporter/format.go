package exporter

import (
	"strconv"

	"salespulse/pkg/contracts/domain"
)

// formatFloat writes the shortest representation that round-trips, so 13.4
// stays 13.4 and 120 stays 120.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// Header returns the canonical export columns.
func Header() []string {
	return append([]string(nil), domain.CanonicalFields...)
}

// Record renders a transaction in Header order.
func Record(t domain.Transaction) []string {
	return []string{
		t.CustomerName,
		t.ItemName,
		t.Date.Format(domain.DateLayout),
		t.BillNo,
		formatInt(t.Quantity),
		formatInt(t.FreeQuantity),
		formatFloat(t.PTR),
		formatFloat(t.Value),
		t.BatchNo,
		t.Expiry,
		t.Area,
		t.Distributor,
		t.Manufacturer,
		t.PackSize,
		formatFloat(t.MRP),
		formatFloat(t.ProductDiscountPercent),
		formatFloat(t.DiscountAmount),
		formatFloat(t.CustomerDiscountPercent),
	}
}

// cells is Record with numbers kept numeric for spreadsheet output.
func cells(t domain.Transaction) []any {
	return []any{
		t.CustomerName,
		t.ItemName,
		t.Date.Format(domain.DateLayout),
		t.BillNo,
		t.Quantity,
		t.FreeQuantity,
		t.PTR,
		t.Value,
		t.BatchNo,
		t.Expiry,
		t.Area,
		t.Distributor,
		t.Manufacturer,
		t.PackSize,
		t.MRP,
		t.ProductDiscountPercent,
		t.DiscountAmount,
		t.CustomerDiscountPercent,
	}
}
