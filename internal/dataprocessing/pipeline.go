package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/config"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// Status summarizes how far a file got through the pipeline.
type Status string

const (
	StatusParsed       Status = "parsed"       // at least one transaction
	StatusEmpty        Status = "empty"        // extracted, but nothing survived normalization
	StatusUnrecognized Status = "unrecognized" // no known layout
	StatusUnsupported  Status = "unsupported"  // extension without an extractor
	StatusFailed       Status = "failed"       // structural parse failure
)

// Result is the outcome of processing one file. Extractor failures are
// carried in Diagnostic and Err, never returned.
type Result struct {
	Format       Format               `json:"format"`
	Status       Status               `json:"status"`
	RawCount     int                  `json:"raw_count"`
	Transactions []domain.Transaction `json:"-"`
	Stats        NormalizeStats       `json:"stats"`
	Diagnostic   string               `json:"diagnostic,omitempty"`
	Err          error                `json:"-"`
}

// HasData reports whether the file produced any transaction.
func (r *Result) HasData() bool { return len(r.Transactions) > 0 }

// Pipeline runs detect, extract and normalize for a single file.
type Pipeline struct {
	detector   *Detector
	extractors map[Format]Extractor
	normalizer *Normalizer
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// NewPipeline wires the detector, every extractor and the normalizer.
// metrics may be nil.
func NewPipeline(cfg config.IngestConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "dataprocessing")
	return &Pipeline{
		detector:   NewDetector(cfg.HeaderScanRows, logger),
		extractors: NewExtractors(cfg, logger),
		normalizer: NewNormalizer(logger),
		metrics:    metrics,
		logger:     logger,
	}
}

// Process parses one file. It never fails: problems are reported on the
// returned Result with zero transactions.
func (p *Pipeline) Process(ctx context.Context, filename string, data []byte) *Result {
	start := time.Now()
	ctx, span := infrastructure.Tracer("dataprocessing").Start(ctx, "pipeline.process",
		trace.WithAttributes(
			attribute.String("file.name", filename),
			attribute.Int("file.size", len(data)),
		))
	defer span.End()

	res := p.run(ctx, filename, data)
	if res.Transactions == nil {
		res.Transactions = []domain.Transaction{}
	}

	span.SetAttributes(
		attribute.String("format", res.Format.String()),
		attribute.String("status", string(res.Status)),
		attribute.Int("records.raw", res.RawCount),
		attribute.Int("records.output", len(res.Transactions)),
	)
	if res.Err != nil {
		infrastructure.RecordError(ctx, res.Err)
	}
	p.metrics.RecordIngest(ctx, res.Format.String(), len(res.Transactions),
		res.Stats.DroppedDate, res.Stats.DroppedInvalid, time.Since(start))

	p.logger.InfoContext(ctx, "file processed",
		slog.String("file", filename),
		slog.String("format", res.Format.String()),
		slog.String("status", string(res.Status)),
		slog.Int("raw_records", res.RawCount),
		slog.Int("transactions", len(res.Transactions)),
		slog.Int("dropped", res.Stats.Dropped()),
		slog.Duration("elapsed", time.Since(start)))
	return res
}

func (p *Pipeline) run(ctx context.Context, filename string, data []byte) *Result {
	format, err := p.detector.Detect(filename, data)
	if err != nil {
		return p.fail(ctx, filename, &Result{Format: FormatUnknown, Status: StatusUnrecognized}, err)
	}
	switch format {
	case FormatUnsupported:
		return &Result{Format: format, Status: StatusUnsupported,
			Diagnostic: "no parser available for this file type; stored only"}
	case FormatUnknown:
		return &Result{Format: format, Status: StatusUnrecognized,
			Diagnostic: "spreadsheet layout not recognized"}
	}

	for _, candidate := range candidates(format) {
		extractor, ok := p.extractors[candidate]
		if !ok {
			continue
		}
		raw, err := extractor.Extract(ctx, data)
		if errors.Is(err, ErrFormatMismatch) {
			p.logger.DebugContext(ctx, "layout rejected, trying next",
				slog.String("file", filename),
				slog.String("format", candidate.String()))
			continue
		}
		res := &Result{Format: candidate, RawCount: len(raw)}
		if err != nil {
			res.Status = StatusFailed
			return p.fail(ctx, filename, res, err)
		}

		res.Transactions, res.Stats = p.normalizer.Normalize(ctx, candidate, raw)
		res.Status = StatusParsed
		if len(res.Transactions) == 0 {
			res.Status = StatusEmpty
			res.Diagnostic = fmt.Sprintf("%d raw records, none had a valid date and item", res.RawCount)
		}
		return res
	}

	return &Result{Format: FormatUnknown, Status: StatusUnrecognized,
		Diagnostic: "header matched a known layout but required columns are missing"}
}

func (p *Pipeline) fail(ctx context.Context, filename string, res *Result, cause error) *Result {
	res.Err = apperrors.NewParsingError("failed to parse "+filename, cause).
		WithContext("format", res.Format.String())
	res.Diagnostic = cause.Error()
	p.logger.WarnContext(ctx, "file could not be parsed",
		slog.String("file", filename),
		slog.String("format", res.Format.String()),
		slog.String("error", cause.Error()))
	return res
}

// candidates lists the extractors to try. Spreadsheets fall back to the
// remaining layouts in detection order when the detected one mismatches.
func candidates(format Format) []Format {
	if !format.IsExcel() {
		return []Format{format}
	}
	out := []Format{format}
	for _, f := range excelFormats {
		if f != format {
			out = append(out, f)
		}
	}
	return out
}
