package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS source_files (
	id          TEXT PRIMARY KEY,
	file_name   TEXT NOT NULL,
	file_hash   TEXT NOT NULL UNIQUE,
	size        INTEGER NOT NULL DEFAULT 0,
	stored_path TEXT NOT NULL DEFAULT '',
	uploaded_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sales_transactions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_name TEXT NOT NULL DEFAULT '',
	item_name     TEXT NOT NULL,
	date          TEXT NOT NULL,
	bill_no       TEXT NOT NULL DEFAULT '',
	quantity      INTEGER NOT NULL DEFAULT 0,
	free_quantity INTEGER NOT NULL DEFAULT 0,
	ptr           REAL NOT NULL DEFAULT 0,
	value         REAL NOT NULL DEFAULT 0,
	batch_no      TEXT NOT NULL DEFAULT '',
	expiry        TEXT NOT NULL DEFAULT '',
	area          TEXT NOT NULL DEFAULT '',
	UNIQUE(bill_no, date, item_name)
);

CREATE INDEX IF NOT EXISTS idx_sales_transactions_date_area ON sales_transactions(date, area);
`

// addedColumns are columns introduced after the first schema. Databases
// created before them are migrated in place.
var addedColumns = []struct {
	name string
	ddl  string
}{
	{"distributor", "TEXT NOT NULL DEFAULT ''"},
	{"manufacturer", "TEXT NOT NULL DEFAULT ''"},
	{"pack_size", "TEXT NOT NULL DEFAULT ''"},
	{"mrp", "REAL NOT NULL DEFAULT 0"},
	{"product_discount_percent", "REAL NOT NULL DEFAULT 0"},
	{"discount_amount", "REAL NOT NULL DEFAULT 0"},
	{"customer_discount_percent", "REAL NOT NULL DEFAULT 0"},
	{"source_file_id", "TEXT NOT NULL DEFAULT ''"},
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	existing, err := columns(ctx, s.db, "sales_transactions")
	if err != nil {
		return err
	}
	for _, col := range addedColumns {
		if existing[col.name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE sales_transactions ADD COLUMN %s %s", col.name, col.ddl)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
		s.logger.Info("migrated sales_transactions", "column", col.name)
	}
	return nil
}

func columns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		out[name] = true
	}
	return out, rows.Err()
}
