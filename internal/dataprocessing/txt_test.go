package dataprocessing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/shared/testutil"
)

func newTXT(t *testing.T) *TXTExtractor {
	t.Helper()
	return NewTXTExtractor(config.DefaultIngest(), testutil.DiscardLogger())
}

func TestTXTExtractor_Extract(t *testing.T) {
	report := strings.Join([]string{
		"SHIRR PHARMA - SALES REGISTER",
		"BILL  DATE        ITEM                 PTR   QTY FREE  VALUE",
		"----------------------------------------------------------",
		"\x1bEMEDICAL STORES\x1bF",
		"  101 05-01-2024 PARACETAMOL 500 B123 Jan-25  12.50  10  2  125.00",
		"",
		"  102 06-01-2024 CROCIN  15.00 4  60.00",
		"\x1bCITY PHARMA\x1bF",
		"  103 07-01-2024 AZEE 250 AZ9  20.00 3 0 60.00",
		"TOTAL                                          245.00",
	}, "\r\n")

	records, err := newTXT(t).Extract(context.Background(), []byte(report))
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "MEDICAL STORES", first[FieldCustomer].AsString())
	assert.Equal(t, "101", first[FieldBillNo].AsString())
	assert.Equal(t, "05-01-2024", first[FieldDate].AsString())
	assert.Equal(t, "PARACETAMOL 500", first[FieldItem].AsString())
	assert.Equal(t, "B123", first[FieldBatch].AsString())
	assert.Equal(t, "Jan-25", first[FieldExpiry].AsString())
	ptr, _ := first[FieldPTR].AsFloat()
	assert.Equal(t, 12.5, ptr)
	qty, _ := first[FieldNFree].AsInt()
	assert.Equal(t, int64(10), qty)
	free, _ := first[FieldFree].AsInt()
	assert.Equal(t, int64(2), free)
	assert.Equal(t, "Thrissur", first[FieldRegion].AsString())

	second := records[1]
	assert.Equal(t, "MEDICAL STORES", second[FieldCustomer].AsString())
	assert.Equal(t, "CROCIN", second[FieldItem].AsString())
	assert.Equal(t, "N/A", second[FieldBatch].AsString())
	assert.Equal(t, "N/A", second[FieldExpiry].AsString())
	free, _ = second[FieldFree].AsInt()
	assert.Equal(t, int64(0), free, "empty free column")

	third := records[2]
	assert.Equal(t, "CITY PHARMA", third[FieldCustomer].AsString())
	assert.Equal(t, "AZEE 250", third[FieldItem].AsString())
	assert.Equal(t, "AZ9", third[FieldBatch].AsString())
}

func TestTXTExtractor_OneRecordPerMatchingLine(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		b.WriteString("  7 01-02-2024 ITEM BATCH Feb-26 1.00 1 1 1.00\n")
		b.WriteString("page footer\n")
	}
	records, err := newTXT(t).Extract(context.Background(), []byte(b.String()))
	require.NoError(t, err)
	assert.Len(t, records, 25)
	assert.Equal(t, "Unknown", records[0][FieldCustomer].AsString())
}

func TestTXTExtractor_InvalidNumberAbortsFile(t *testing.T) {
	report := "  101 05-01-2024 GOOD  1.00 1 1 1.00\n" +
		"  102 05-01-2024 BAD  1.2.3 1 1 5.00\n"

	records, err := newTXT(t).Extract(context.Background(), []byte(report))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Empty(t, records)
}

func TestTXTExtractor_DropsUndecodableBytes(t *testing.T) {
	report := "\xef\xbb\xbf\x1bEABC\xffD\x1bF\n  1 05-01-2024 X  1.00 1 0 1.00\n"

	records, err := newTXT(t).Extract(context.Background(), []byte(report))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ABCD", records[0][FieldCustomer].AsString())
}

func TestSplitItemSegment(t *testing.T) {
	tests := []struct {
		name                string
		in                  string
		item, batch, expiry string
	}{
		{"item batch expiry", "DOLO 650 DL12 Mar-26", "DOLO 650", "DL12", "Mar-26"},
		{"no expiry", "DOLO 650 DL12", "DOLO 650", "DL12", "N/A"},
		{"single token", "DOLO", "DOLO", "N/A", "N/A"},
		{"single token with expiry", "DOLO Mar-26", "DOLO", "N/A", "Mar-26"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, batch, expiry := splitItemSegment(tt.in)
			assert.Equal(t, tt.item, item)
			assert.Equal(t, tt.batch, batch)
			assert.Equal(t, tt.expiry, expiry)
		})
	}
}
