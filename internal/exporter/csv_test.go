package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

func sampleTransactions() []domain.Transaction {
	return []domain.Transaction{
		testutil.Sale("Apollo, Madurai", "Dolo 650", "Madurai", "B1", testutil.Date(2024, time.March, 1), 10, 250.5),
		testutil.Sale("Care \"Plus\"", "Crocin", "", "B2", testutil.Date(2024, time.March, 2), 5, 100),
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "missing BOM")
	rows, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTransactionsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, sampleTransactions()))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, domain.CanonicalFields, rows[0])
	assert.Equal(t, "Apollo, Madurai", rows[1][0])
	assert.Equal(t, `Care "Plus"`, rows[2][0])
	assert.Equal(t, "250.5", rows[1][7])
}

func TestWriteTransactionsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, nil))
	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, [][]string{domain.CanonicalFields}, rows)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteTransactionsCSV_WriteError(t *testing.T) {
	err := WriteTransactionsCSV(failingWriter{}, sampleTransactions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOM")
}

func TestCSVWriter_WriteTransactions(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(&config.Paths{ExportsDir: filepath.Join(dir, "exports")}, testutil.DiscardLogger())

	path, err := w.WriteTransactions("march.csv", sampleTransactions())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "march.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, readCSV(t, data), 3)

	abs := filepath.Join(dir, "elsewhere", "out.csv")
	path, err = w.WriteTransactions(abs, nil)
	require.NoError(t, err)
	assert.Equal(t, abs, path)
}
