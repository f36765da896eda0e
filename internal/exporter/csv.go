package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"salespulse/internal/config"
	"salespulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes CSV exports into the exports directory.
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteTransactions writes txs to filePath (relative paths land in the
// exports directory) and returns the absolute path written.
func (w *CSVWriter) WriteTransactions(filePath string, txs []domain.Transaction) (string, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(txs)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteTransactionsCSV(file, txs); err != nil {
		file.Close()
		return "", err
	}
	return fullPath, file.Close()
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return w.paths.ExportPath(filePath)
}

// WriteTransactionsCSV writes a BOM, the canonical header and one row per
// transaction.
func WriteTransactionsCSV(out io.Writer, txs []domain.Transaction) error {
	stream, err := NewStreamWriter(out, Header())
	if err != nil {
		return err
	}
	for i := range txs {
		if err := stream.WriteRecord(Record(txs[i])); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return stream.Flush()
}

// StreamWriter writes CSV rows to an underlying writer as they come.
type StreamWriter struct {
	writer *csv.Writer
}

// NewStreamWriter writes the UTF-8 BOM (so Excel detects the encoding) and
// the headers, then returns a writer for the rows.
func NewStreamWriter(out io.Writer, headers []string) (*StreamWriter, error) {
	if _, err := out.Write(utf8BOM); err != nil {
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}
	writer := csv.NewWriter(out)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	return &StreamWriter{writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Flush writes buffered rows and reports any write error.
func (s *StreamWriter) Flush() error {
	s.writer.Flush()
	return s.writer.Error()
}
