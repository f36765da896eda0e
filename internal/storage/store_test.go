package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "sales.db"), config.StorageConfig{
		BusyTimeout:  time.Second,
		JournalMode:  "WAL",
		MaxOpenConns: 1,
	}, testutil.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveFile(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	f := &domain.SourceFile{FileName: "march.txt", FileHash: "abc", Size: 10}
	require.NoError(t, s.SaveFile(ctx, f))
	assert.NotEmpty(t, f.ID)
	assert.False(t, f.UploadedAt.IsZero())

	exists, err := s.FileExists(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.FileExists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.SaveFile(ctx, &domain.SourceFile{FileName: "copy.txt", FileHash: "abc"})
	assert.ErrorIs(t, err, ErrDuplicateFile)

	files, err := s.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "march.txt", files[0].FileName)
	assert.Equal(t, int64(10), files[0].Size)
}

func TestInsertTransactionsIgnoresKnownKeys(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	day := testutil.Date(2024, time.March, 4)
	first := []domain.Transaction{
		testutil.Sale("C1", "Paracetamol", "North", "B1", day, 2, 20),
		testutil.Sale("C1", "Ibuprofen", "North", "B1", day, 1, 15),
	}
	n, err := s.InsertTransactions(ctx, "f1", first)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Same key with different values is ignored; the stored row wins.
	changed := testutil.Sale("C9", "Paracetamol", "South", "B1", day, 9, 99)
	fresh := testutil.Sale("C2", "Paracetamol", "North", "B2", day, 1, 10)
	n, err = s.InsertTransactions(ctx, "f2", []domain.Transaction{changed, fresh})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := s.ListTransactions(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C1", all[0].CustomerName)
	assert.Equal(t, 20.0, all[0].Value)
	assert.Equal(t, day, all[0].Date)

	n, err = s.InsertTransactions(ctx, "f3", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListTransactionsRoundTripsEveryField(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	tx := domain.Transaction{
		CustomerName: "Apollo", ItemName: "Dolo 650", Date: testutil.Date(2025, time.January, 9),
		BillNo: "P25-001", Quantity: 10, FreeQuantity: 2, PTR: 12.5, Value: 125,
		BatchNo: "B77", Expiry: "12/26", Area: "Madurai", Distributor: "Dist", Manufacturer: "Mfr",
		PackSize: "10x10", MRP: 20, ProductDiscountPercent: 5, DiscountAmount: 6.25,
		CustomerDiscountPercent: 2,
	}
	_, err := s.InsertTransactions(ctx, "f1", []domain.Transaction{tx})
	require.NoError(t, err)

	got, err := s.ListTransactions(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tx, got[0])
}

func TestListTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.InsertTransactions(ctx, "f1", []domain.Transaction{
		testutil.Sale("C1", "A", "North", "B1", testutil.Date(2024, time.January, 1), 1, 1),
		testutil.Sale("C1", "A", "South", "B2", testutil.Date(2024, time.January, 5), 1, 2),
		testutil.Sale("C1", "A", "North", "B3", testutil.Date(2024, time.January, 9), 1, 3),
	})
	require.NoError(t, err)

	got, err := s.ListTransactions(ctx, Filter{Area: "North"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListTransactions(ctx, Filter{
		From: testutil.Date(2024, time.January, 2),
		To:   testutil.Date(2024, time.January, 9),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B2", got[0].BillNo)

	got, err = s.ListTransactions(ctx, Filter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B3", got[0].BillNo)

	n, err := s.CountTransactions(ctx, Filter{Area: "South"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStatsAndClear(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Transactions)
	assert.True(t, st.FirstDate.IsZero())

	require.NoError(t, s.SaveFile(ctx, &domain.SourceFile{FileName: "a.csv", FileHash: "h1", StoredPath: "/tmp/a"}))
	_, err = s.InsertTransactions(ctx, "f1", []domain.Transaction{
		testutil.Sale("C1", "A", "North", "B1", testutil.Date(2024, time.February, 1), 1, 1),
		testutil.Sale("C1", "A", "North", "B2", testutil.Date(2024, time.February, 20), 1, 1),
	})
	require.NoError(t, err)

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Transactions)
	assert.Equal(t, 1, st.Files)
	assert.Equal(t, testutil.Date(2024, time.February, 1), st.FirstDate)
	assert.Equal(t, testutil.Date(2024, time.February, 20), st.LastDate)

	res, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Transactions)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "/tmp/a", res.Files[0].StoredPath)

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Transactions)
	assert.Zero(t, st.Files)

	exists, err := s.FileExists(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOpenMigratesOldSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE sales_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_name TEXT NOT NULL DEFAULT '',
		item_name TEXT NOT NULL,
		date TEXT NOT NULL,
		bill_no TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL DEFAULT 0,
		free_quantity INTEGER NOT NULL DEFAULT 0,
		ptr REAL NOT NULL DEFAULT 0,
		value REAL NOT NULL DEFAULT 0,
		batch_no TEXT NOT NULL DEFAULT '',
		expiry TEXT NOT NULL DEFAULT '',
		area TEXT NOT NULL DEFAULT '',
		UNIQUE(bill_no, date, item_name)
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO sales_transactions (item_name, date, bill_no, value) VALUES ('A', '2024-01-01', 'B1', 5)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(ctx, path, config.StorageConfig{}, testutil.DiscardLogger())
	require.NoError(t, err)
	defer s.Close()

	cols, err := columns(ctx, s.db, "sales_transactions")
	require.NoError(t, err)
	for _, c := range addedColumns {
		assert.True(t, cols[c.name], c.name)
	}

	got, err := s.ListTransactions(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 5.0, got[0].Value)
	assert.Empty(t, got[0].Manufacturer)
}
