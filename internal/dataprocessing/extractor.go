package dataprocessing

import (
	"context"
	"errors"
	"log/slog"

	"salespulse/internal/config"
)

// ErrFormatMismatch is returned by a spreadsheet extractor whose required
// header row or columns are absent. The pipeline then tries the next layout.
var ErrFormatMismatch = errors.New("layout does not match")

// Extractor turns the bytes of one report into raw records. An extractor
// never sees a file of another format, but it may reject a layout it does
// not recognize with ErrFormatMismatch.
type Extractor interface {
	Format() Format
	Extract(ctx context.Context, data []byte) ([]RawRecord, error)
}

// NewExtractors returns one extractor per parseable format.
func NewExtractors(cfg config.IngestConfig, logger *slog.Logger) map[Format]Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	extractors := []Extractor{
		NewTXTExtractor(cfg, logger),
		NewPDFExtractor(cfg, logger),
		NewCSVExtractor(logger),
		NewExcelFormat1Extractor(cfg, logger),
		NewExcelFormat2Extractor(logger),
		NewExcelFormat3Extractor(logger),
	}
	byFormat := make(map[Format]Extractor, len(extractors))
	for _, e := range extractors {
		byFormat[e.Format()] = e
	}
	return byFormat
}
