package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/storage"
	"salespulse/pkg/contracts/domain"
)

// ReportGenerator prints a dashboard as a PDF document.
type ReportGenerator interface {
	PDF(ctx context.Context, d domain.Dashboard) ([]byte, error)
}

// DashboardSource supplies the current dashboard.
type DashboardSource interface {
	Dashboard(ctx context.Context) (domain.Dashboard, error)
}

// ExportService writes stored transactions as CSV or XLSX and prints the
// dashboard report.
type ExportService struct {
	store      TransactionStore
	dashboards DashboardSource
	reports    ReportGenerator
	logger     *slog.Logger
}

// NewExportService creates an export service. reports may be nil when no
// browser is available; ReportPDF then fails with ErrReportUnavailable.
func NewExportService(store TransactionStore, dashboards DashboardSource, reports ReportGenerator, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		store:      store,
		dashboards: dashboards,
		reports:    reports,
		logger:     infrastructure.WithComponent(logger, "export_service"),
	}
}

// WriteCSV streams the transactions matching f as CSV and returns the row count.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, f storage.Filter) (int, error) {
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	if err := exporter.WriteTransactionsCSV(w, txs); err != nil {
		return 0, fmt.Errorf("failed to write csv: %w", err)
	}
	s.logger.InfoContext(ctx, "csv export written", slog.Int("records", len(txs)))
	return len(txs), nil
}

// WriteXLSX streams the transactions matching f as a workbook and returns
// the row count.
func (s *ExportService) WriteXLSX(ctx context.Context, w io.Writer, f storage.Filter) (int, error) {
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	if err := exporter.WriteTransactionsXLSX(w, txs); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.InfoContext(ctx, "xlsx export written", slog.Int("records", len(txs)))
	return len(txs), nil
}

// ReportPDF prints d, or the current stored dashboard when d is nil.
func (s *ExportService) ReportPDF(ctx context.Context, d *domain.Dashboard) ([]byte, error) {
	if s.reports == nil {
		return nil, ErrReportUnavailable
	}
	var dash domain.Dashboard
	if d != nil {
		dash = *d
	} else {
		current, err := s.dashboards.Dashboard(ctx)
		if err != nil {
			return nil, err
		}
		dash = current
	}
	if dash.TotalRecords == 0 {
		return nil, ErrNoData
	}
	return s.reports.PDF(ctx, dash)
}
