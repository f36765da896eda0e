package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salespulse/pkg/contracts/domain"
)

func TestWriteTransactionsXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsXLSX(&buf, sampleTransactions()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{TransactionsSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(TransactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.CanonicalFields, rows[0])
	assert.Equal(t, "Dolo 650", rows[1][1])
	assert.Equal(t, "2024-03-01", rows[1][2])
	assert.Equal(t, "250.5", rows[1][7])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"area", "records", "quantity", "value"},
		{"Madurai", "1", "10", "250.5"},
		{"Unknown", "1", "5", "100"},
		{"Total", "2", "15", "350.5"},
	}, summary)
}
