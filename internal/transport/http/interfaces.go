package http

import (
	"context"
	"io"

	"salespulse/internal/services"
	"salespulse/internal/storage"
	api "salespulse/pkg/contracts/api/v1"
	"salespulse/pkg/contracts/domain"
)

// UploadServiceInterface ingests uploaded files into the store.
type UploadServiceInterface interface {
	Upload(ctx context.Context, batch []services.UploadedFile) (*domain.UploadSummary, error)
}

// SalesServiceInterface defines the dashboard and data operations.
type SalesServiceInterface interface {
	Dashboard(ctx context.Context) (domain.Dashboard, error)
	AnalyzeSession(ctx context.Context, batch []services.UploadedFile) (domain.Dashboard, error)
	Clear(ctx context.Context) (*api.ClearResponse, error)
	Transactions(ctx context.Context, f storage.Filter) (*api.TransactionPage, error)
	Files(ctx context.Context) ([]domain.SourceFile, error)
	Stats(ctx context.Context) (storage.Stats, error)
}

// ExportServiceInterface defines the download operations.
type ExportServiceInterface interface {
	WriteCSV(ctx context.Context, w io.Writer, f storage.Filter) (int, error)
	WriteXLSX(ctx context.Context, w io.Writer, f storage.Filter) (int, error)
	ReportPDF(ctx context.Context, d *domain.Dashboard) ([]byte, error)
}
