package dataprocessing

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

func TestNormalizer_TXT(t *testing.T) {
	n := NewNormalizer(testutil.DiscardLogger())
	records := []RawRecord{
		{
			FieldCustomer: String("MEDICAL STORES"), FieldBillNo: String("101"), FieldDate: String("05-01-2024"),
			FieldItem: String("DOLO"), FieldBatch: String("B1"), FieldExpiry: String("Jan-25"),
			FieldPTR: Float(12.5), FieldNFree: Int(10), FieldFree: Int(2), FieldValue: Float(125),
			FieldRegion: String("Thrissur"),
		},
		{FieldBillNo: String("102"), FieldDate: String("31-02-2024"), FieldItem: String("X")},
		{FieldBillNo: String("103"), FieldDate: String("2024-01-05"), FieldItem: String("Y")},
	}

	txs, stats := n.Normalize(context.Background(), FormatTXT, records)
	require.Len(t, txs, 1)
	assert.Equal(t, NormalizeStats{Input: 3, Output: 1, DroppedDate: 2}, stats)

	tx := txs[0]
	assert.Equal(t, testutil.Date(2024, 1, 5), tx.Date)
	assert.Equal(t, int64(10), tx.Quantity, "NFREE is the sold quantity")
	assert.Equal(t, int64(2), tx.FreeQuantity)
	assert.Equal(t, "Thrissur", tx.Area)
	assert.Equal(t, "Jan-25", tx.Expiry)
	assert.Equal(t, 0.0, tx.MRP)
	assert.Empty(t, tx.Distributor)
}

func TestNormalizer_AliasesAreFormatAware(t *testing.T) {
	n := NewNormalizer(testutil.DiscardLogger())
	rec := RawRecord{
		FieldBillNo: String("1"), FieldDate: String("05-01-2024"), FieldItem: String("X"),
		FieldNFree: Int(7), FieldQuantity: Int(3),
	}

	txt, _ := n.Normalize(context.Background(), FormatTXT, []RawRecord{rec})
	csv, _ := n.Normalize(context.Background(), FormatCSV, []RawRecord{rec})
	require.Len(t, txt, 1)
	require.Len(t, csv, 1)
	assert.Equal(t, int64(7), txt[0].Quantity)
	assert.Equal(t, int64(3), csv[0].Quantity)
}

func TestNormalizer_CanonicalShape(t *testing.T) {
	n := NewNormalizer(testutil.DiscardLogger())
	rec := RawRecord{FieldDate: Time(testutil.Date(2024, 5, 1)), FieldItem: String("X"), "Junk": String("?")}

	for _, format := range []Format{FormatCSV, FormatExcel1, FormatExcel2, FormatExcel3} {
		txs, _ := n.Normalize(context.Background(), format, []RawRecord{rec})
		require.Len(t, txs, 1, format)

		raw, err := json.Marshal(txs[0])
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, json.Unmarshal(raw, &fields))

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		want := append([]string{}, domain.CanonicalFields...)
		sort.Strings(want)
		assert.Equal(t, want, keys, format)
	}
}

func TestNormalizer_DropsInvalid(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	n := NewNormalizer(logger)
	records := []RawRecord{
		{FieldDate: String("05/01/2024"), FieldItem: String("")},
		{FieldDate: String("05/01/2024"), FieldItem: String("X"), FieldQuantity: Int(-4)},
		{FieldDate: String("05/01/2024"), FieldItem: String("Y"), FieldQuantity: String("1,200")},
	}

	txs, stats := n.Normalize(context.Background(), FormatCSV, records)
	require.Len(t, txs, 1)
	assert.Equal(t, 2, stats.DroppedInvalid)
	assert.Equal(t, 0, stats.DroppedDate)
	assert.Equal(t, int64(1200), txs[0].Quantity)
	testutil.AssertLogged(t, logs, slog.LevelWarn, "records normalized")
}

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"05/01/24", testutil.Date(2024, 1, 5), true},
		{"05/01/30", testutil.Date(2030, 1, 5), true},
		{"05/01/31", testutil.Date(1931, 1, 5), true},
		{"05/01/2024", testutil.Date(2024, 1, 5), true},
		{"32/01/24", time.Time{}, false},
		{"05-01-24", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parsePDFDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFlexibleDate(t *testing.T) {
	tests := []struct {
		name   string
		v      Value
		serial bool
		want   time.Time
		ok     bool
	}{
		{"time value", Time(time.Date(2024, 3, 9, 15, 4, 0, 0, time.UTC)), false, testutil.Date(2024, 3, 9), true},
		{"excel serial", Float(45296), true, testutil.Date(2024, 1, 5), true},
		{"serial text", String("45296"), true, testutil.Date(2024, 1, 5), true},
		{"number outside spreadsheets", Float(45296), false, time.Time{}, false},
		{"iso text", String("2024-01-05"), false, testutil.Date(2024, 1, 5), true},
		{"day first text", String("05/01/2024"), false, testutil.Date(2024, 1, 5), true},
		{"dashed day first", String("15-03-2024"), false, testutil.Date(2024, 3, 15), true},
		{"dashed padded", String("05-03-2024"), false, testutil.Date(2024, 3, 5), true},
		{"dashed two digit year", String("15-03-24"), false, testutil.Date(2024, 3, 15), true},
		{"dotted", String("15.03.2024"), false, testutil.Date(2024, 3, 15), true},
		{"unpadded slashes", String("5/3/2024"), false, testutil.Date(2024, 3, 5), true},
		{"dashed with time", String("15-03-2024 10:30"), false, testutil.Date(2024, 3, 15), true},
		{"dashed impossible day", String("32-03-2024"), false, time.Time{}, false},
		{"garbage", String("soon"), false, time.Time{}, false},
		{"null", Value{}, true, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := flexibleDate(tt.v, tt.serial)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
