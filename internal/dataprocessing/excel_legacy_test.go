package dataprocessing

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/shared/testutil"
)

// invoices.xls is a BIFF8 workbook with a Format 2 sheet: a text date in
// day-month-year order and a date stored as a serial number.
func legacyWorkbook(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "invoices.xls"))
	require.NoError(t, err)
	return data
}

func TestLoadGrid_LegacyWorkbook(t *testing.T) {
	g, err := loadGrid(legacyWorkbook(t))
	require.NoError(t, err)
	require.Len(t, g, 3)

	assert.Equal(t, "Name of Party", g.cell(0, 0))
	assert.Equal(t, "Area", g.cell(0, 9))
	assert.Equal(t, "15-03-2024", g.cell(1, 2))
	assert.Equal(t, "10", g.cell(1, 5))
	assert.Equal(t, "12.5", g.cell(1, 7))
	assert.Equal(t, "45366", g.cell(2, 2))
}

func TestDetector_LegacyWorkbook(t *testing.T) {
	got, err := Detect("invoices.xls", legacyWorkbook(t))
	require.NoError(t, err)
	assert.Equal(t, FormatExcel2, got)
}

func TestPipeline_LegacyWorkbook(t *testing.T) {
	res := newPipeline(t).Process(context.Background(), "invoices.xls", legacyWorkbook(t))
	require.Nil(t, res.Err)
	assert.Equal(t, FormatExcel2, res.Format)
	assert.Equal(t, StatusParsed, res.Status)
	require.Len(t, res.Transactions, 2)

	first, second := res.Transactions[0], res.Transactions[1]
	assert.Equal(t, "INV1", first.BillNo)
	assert.Equal(t, testutil.Date(2024, 3, 15), first.Date)
	assert.Equal(t, int64(10), first.Quantity)
	assert.Equal(t, 125.0, first.Value)
	assert.Equal(t, "KOCHI", first.Area)
	assert.Equal(t, testutil.Date(2024, 3, 15), second.Date)
	assert.Equal(t, "AZEE", second.ItemName)
}

func TestLoadLegacyGrid_RejectsCorruptContainers(t *testing.T) {
	const (
		fatOffset  = 512
		dirOffset  = 1024
		bookSector = 2
	)
	tests := []struct {
		name   string
		mutate func(b []byte) []byte
	}{
		{"truncated", func(b []byte) []byte { return b[:len(oleMagic)+8] }},
		{"chain leaves table", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[fatOffset+4*bookSector:], 4096)
			return b
		}},
		{"chain loops", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[fatOffset+4*bookSector:], bookSector)
			return b
		}},
		{"directory outside table", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[48:], 9999)
			return b
		}},
		{"no workbook stream", func(b []byte) []byte {
			// second directory entry name, "Workbook" in UTF-16
			b[dirOffset+128+2] = 'x'
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(legacyWorkbook(t))
			require.True(t, isLegacyWorkbook(data))

			_, err := loadGrid(data)
			assert.Error(t, err)
		})
	}
}

func TestWalkChain(t *testing.T) {
	table := []uint32{1, 3, oleEndOfChain, oleEndOfChain}

	chain, err := walkChain(table, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 3}, chain)

	_, err = walkChain([]uint32{1, 0}, 0)
	assert.Error(t, err)
}
