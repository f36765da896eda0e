package dataprocessing

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// DefaultHeaderScanRows is how many leading spreadsheet rows are searched
// for a known header.
const DefaultHeaderScanRows = 20

// excelSignature is the set of normalized header cells that identifies a
// spreadsheet layout.
type excelSignature struct {
	format      Format
	identifiers []string
}

// excelSignatures are tested in order; the first row matching any of them wins.
var excelSignatures = []excelSignature{
	{format: FormatExcel1, identifiers: []string{"billno", "productname"}},
	{format: FormatExcel2, identifiers: []string{"nameofparty", "invoiceno"}},
	{format: FormatExcel3, identifiers: []string{"route", "sqty"}},
}

// Detector selects the extractor for an uploaded file.
type Detector struct {
	scanRows int
	logger   *slog.Logger
}

// NewDetector creates a detector that searches scanRows rows of a workbook.
func NewDetector(scanRows int, logger *slog.Logger) *Detector {
	if scanRows <= 0 {
		scanRows = DefaultHeaderScanRows
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{scanRows: scanRows, logger: logger}
}

// Detect maps a file onto a Format using its extension and, for
// spreadsheets, its leading rows. Unknown layouts and unsupported extensions
// are reported through the Format, not as errors. The error is set only
// when a workbook cannot be opened; the format is then FormatUnknown.
func (d *Detector) Detect(filename string, data []byte) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return FormatTXT, nil
	case ".pdf":
		return FormatPDF, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		g, err := loadGrid(data)
		if err != nil {
			return FormatUnknown, fmt.Errorf("cannot inspect %s: %w", filename, err)
		}
		format := detectGrid(g, d.scanRows)
		d.logger.Debug("spreadsheet layout detected",
			slog.String("file", filename),
			slog.String("format", format.String()))
		return format, nil
	default:
		return FormatUnsupported, nil
	}
}

// Detect uses a detector with default settings.
func Detect(filename string, data []byte) (Format, error) {
	return NewDetector(DefaultHeaderScanRows, nil).Detect(filename, data)
}

func detectGrid(g grid, scanRows int) Format {
	for row := 0; row < len(g) && row < scanRows; row++ {
		set := normalizedSet(g[row])
		if len(set) == 0 {
			continue
		}
		for _, sig := range excelSignatures {
			if containsAll(set, sig.identifiers) {
				return sig.format
			}
		}
	}
	return FormatUnknown
}
