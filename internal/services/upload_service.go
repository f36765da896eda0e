package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/files"
	"salespulse/internal/infrastructure"
	"salespulse/internal/storage"
	"salespulse/internal/validation"
	"salespulse/internal/websocket"
	"salespulse/pkg/contracts/domain"
)

// UploadService ingests uploaded files: every file is hashed, stored once,
// parsed when possible and its transactions persisted.
type UploadService struct {
	store     TransactionStore
	files     FileStore
	ingester  Ingester
	validator *validation.FileValidator
	cache     Invalidator
	notifier  Notifier
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger

	// uploads run one at a time so the duplicate check and the file row
	// insert cannot interleave
	mu sync.Mutex
}

// UploadDeps groups the collaborators of UploadService. Cache, Notifier and
// Metrics are optional.
type UploadDeps struct {
	Store     TransactionStore
	Files     FileStore
	Ingester  Ingester
	Validator *validation.FileValidator
	Cache     Invalidator
	Notifier  Notifier
	Metrics   *infrastructure.BusinessMetrics
}

// NewUploadService creates an upload service.
func NewUploadService(deps UploadDeps, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		store:     deps.Store,
		files:     deps.Files,
		ingester:  deps.Ingester,
		validator: deps.Validator,
		cache:     deps.Cache,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    infrastructure.WithComponent(logger, "upload_service"),
	}
}

// Upload processes a batch sequentially. A failing file never aborts the
// batch; its outcome is reported with status error.
func (s *UploadService) Upload(ctx context.Context, batch []UploadedFile) (*domain.UploadSummary, error) {
	if len(batch) == 0 {
		return nil, ErrNoFilesUploaded
	}
	if err := s.validator.ValidateBatch(len(batch)); err != nil {
		return nil, validation.AsAppError("", err)
	}

	ctx, span := infrastructure.Tracer("services").Start(ctx, "upload.batch",
		trace.WithAttributes(attribute.Int("files", len(batch))))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	summary := domain.NewUploadSummary()
	stored := 0
	for _, f := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome := s.uploadOne(ctx, f)
		s.metrics.RecordFileOutcome(ctx, string(outcome.Status))
		stored += outcome.RecordsStored
		summary.Add(outcome)
	}
	summary.Message = uploadMessage(summary)

	if stored > 0 {
		s.metrics.RecordStored(ctx, stored)
		if s.cache != nil {
			s.cache.Invalidate()
		}
		if s.notifier != nil {
			s.notifier.Broadcast(ctx, websocket.TypeDataUpdate, map[string]any{
				"records_stored": stored,
				"files":          summary.ParsedFiles,
			})
		}
	}

	span.SetAttributes(
		attribute.Int("files.parsed", summary.ParsedFiles),
		attribute.Int("records.stored", stored))
	s.logger.InfoContext(ctx, "upload batch processed",
		slog.Int("files", len(batch)),
		slog.Int("parsed_files", summary.ParsedFiles),
		slog.Int("parsed_records", summary.ParsedRecords),
		slog.Int("stored_records", stored),
		slog.Int("duplicates", len(summary.DuplicateFiles)),
		slog.Int("stored_only", len(summary.StoredOnlyFiles)),
		slog.Int("errors", len(summary.ErrorFiles)),
		slog.Duration("elapsed", time.Since(start)))
	return summary, nil
}

func (s *UploadService) uploadOne(ctx context.Context, f UploadedFile) domain.FileOutcome {
	out := domain.FileOutcome{FileName: f.Name}
	if f.ReadErr != nil {
		return s.failed(ctx, out, "failed to read uploaded file", f.ReadErr)
	}

	if err := s.validator.ValidateUpload(f.Name, int64(len(f.Data))); err != nil {
		out.Status = domain.FileStatusError
		out.Message = err.Error()
		return out
	}

	out.FileHash = files.Hash(f.Data)
	exists, err := s.store.FileExists(ctx, out.FileHash)
	if err != nil {
		return s.failed(ctx, out, "duplicate check failed", err)
	}
	if exists {
		out.Status = domain.FileStatusDuplicate
		out.Message = "file has already been uploaded"
		s.logger.InfoContext(ctx, "duplicate file skipped",
			slog.String("file", f.Name),
			slog.String("hash", out.FileHash))
		return out
	}

	path, err := s.files.Save(out.FileHash, f.Name, f.Data)
	if err != nil {
		return s.failed(ctx, out, "failed to store file", err)
	}
	record := &domain.SourceFile{
		FileName:   f.Name,
		FileHash:   out.FileHash,
		Size:       int64(len(f.Data)),
		StoredPath: path,
	}
	if err := s.store.SaveFile(ctx, record); err != nil {
		if errors.Is(err, storage.ErrDuplicateFile) {
			out.Status = domain.FileStatusDuplicate
			out.Message = "file has already been uploaded"
			return out
		}
		if _, rmErr := s.files.DeleteAll([]string{path}); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to remove unrecorded file",
				slog.String("path", path),
				slog.String("error", rmErr.Error()))
		}
		return s.failed(ctx, out, "failed to record file", err)
	}

	res := s.ingester.Process(ctx, f.Name, f.Data)
	out.Format = res.Format.String()
	out.RecordsParsed = len(res.Transactions)
	out.RecordsDropped = res.Stats.Dropped()
	if !res.HasData() {
		out.Status = domain.FileStatusStoredOnly
		out.Message = storedOnlyReason(res)
		return out
	}

	inserted, err := s.store.InsertTransactions(ctx, record.ID, res.Transactions)
	if err != nil {
		return s.failed(ctx, out, "failed to save transactions", err)
	}
	out.Status = domain.FileStatusParsed
	out.RecordsStored = inserted
	if skipped := out.RecordsParsed - inserted; skipped > 0 {
		out.Message = fmt.Sprintf("%d record(s) were already stored", skipped)
	}
	return out
}

func (s *UploadService) failed(ctx context.Context, out domain.FileOutcome, msg string, err error) domain.FileOutcome {
	s.logger.ErrorContext(ctx, msg,
		slog.String("file", out.FileName),
		slog.String("error", err.Error()))
	infrastructure.RecordError(ctx, err)
	out.Status = domain.FileStatusError
	out.Message = msg
	return out
}

func storedOnlyReason(res *dataprocessing.Result) string {
	if res.Diagnostic != "" {
		return res.Diagnostic
	}
	switch res.Status {
	case dataprocessing.StatusEmpty:
		return "no valid records found"
	case dataprocessing.StatusUnsupported:
		return "no parser available for this file type"
	}
	return "file could not be parsed"
}

// uploadMessage builds the human readable summary of a batch.
func uploadMessage(s *domain.UploadSummary) string {
	var parts []string
	if s.ParsedRecords > 0 {
		parts = append(parts, fmt.Sprintf("Successfully processed %d records from %d new file(s).",
			s.ParsedRecords, s.ParsedFiles))
	}
	if n := len(s.DuplicateFiles); n > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) were skipped as duplicates: %s.",
			n, strings.Join(s.DuplicateFiles, ", ")))
	}
	if n := len(s.StoredOnlyFiles); n > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) were stored but not parsed: %s.",
			n, strings.Join(s.StoredOnlyFiles, ", ")))
	}
	if n := len(s.ErrorFiles); n > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) could not be processed: %s.",
			n, strings.Join(s.ErrorFiles, ", ")))
	}
	if len(parts) == 0 {
		return "Files were uploaded, but no new data was processed (they may have all been duplicates)."
	}
	return strings.Join(parts, " ")
}
