package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"salespulse/pkg/contracts/domain"
)

// columnNames is the insert column order: the canonical fields then the
// owning file.
var columnNames = append(append([]string{}, domain.CanonicalFields...), "source_file_id")

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// rowValues must follow domain.CanonicalFields.
func rowValues(t *domain.Transaction) []any {
	return []any{
		t.CustomerName, t.ItemName, t.Date.Format(domain.DateLayout), t.BillNo,
		t.Quantity, t.FreeQuantity, t.PTR, t.Value,
		t.BatchNo, t.Expiry, t.Area, t.Distributor, t.Manufacturer, t.PackSize, t.MRP,
		t.ProductDiscountPercent, t.DiscountAmount, t.CustomerDiscountPercent,
	}
}

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var (
		t    domain.Transaction
		date string
	)
	err := rows.Scan(
		&t.CustomerName, &t.ItemName, &date, &t.BillNo,
		&t.Quantity, &t.FreeQuantity, &t.PTR, &t.Value,
		&t.BatchNo, &t.Expiry, &t.Area, &t.Distributor, &t.Manufacturer, &t.PackSize, &t.MRP,
		&t.ProductDiscountPercent, &t.DiscountAmount, &t.CustomerDiscountPercent,
	)
	if err != nil {
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	if t.Date, err = time.Parse(domain.DateLayout, date); err != nil {
		return t, fmt.Errorf("stored date %q: %w", date, err)
	}
	return t, nil
}
