package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apierrors "salespulse/internal/errors"
	appmiddleware "salespulse/internal/middleware"
	"salespulse/internal/report"
	api "salespulse/pkg/contracts/api/v1"
	"salespulse/pkg/contracts/domain"
)

const (
	csvFileName  = "sales_transactions.csv"
	xlsxFileName = "sales_transactions.xlsx"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"

	// dashboards posted for rendering are small; anything larger is not one
	maxReportBody = 8 << 20
)

// ExportHandler serves file downloads of the stored data.
type ExportHandler struct {
	service      ExportServiceInterface
	validator    *appmiddleware.ValidationMiddleware
	query        *appmiddleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ExportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		validator:    appmiddleware.NewValidationMiddleware(logger, errorHandler),
		query:        appmiddleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the download routes, mounted at /api/export
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/transactions.csv", h.ExportCSV)
	r.Get("/transactions.xlsx", h.ExportXLSX)
	return r
}

// ReportRoutes returns the report routes, mounted at /api/report
func (h *ExportHandler) ReportRoutes() chi.Router {
	r := chi.NewRouter()
	r.With(h.validator.ValidateRequest).Post("/pdf", h.ReportPDF)
	return r
}

// ExportCSV handles GET /api/export/transactions.csv
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(h.query, h.errorHandler, w, r, false)
	if !ok {
		return
	}

	var buf bytes.Buffer
	n, err := h.service.WriteCSV(r.Context(), &buf, filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("csv export", err))
		return
	}
	h.logExport(r, "csv", n, buf.Len())
	attachment(w, csvFileName, contentTypeCSV, buf.Bytes())
}

// ExportXLSX handles GET /api/export/transactions.xlsx
func (h *ExportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(h.query, h.errorHandler, w, r, false)
	if !ok {
		return
	}

	var buf bytes.Buffer
	n, err := h.service.WriteXLSX(r.Context(), &buf, filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("xlsx export", err))
		return
	}
	h.logExport(r, "xlsx", n, buf.Len())
	attachment(w, xlsxFileName, contentTypeXLSX, buf.Bytes())
}

// ReportPDF handles POST /api/report/pdf. The body is a dashboard as
// returned by sales-data; an empty body renders the stored dashboard.
func (h *ExportHandler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	req := api.ReportRequest{FileName: r.URL.Query().Get("file_name")}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	name := req.FileName
	if name == "" {
		name = report.FileName
	}

	dashboard, err := decodeDashboard(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	pdf, err := h.service.ReportPDF(r.Context(), dashboard)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("report", err))
		return
	}
	h.logExport(r, "pdf", -1, len(pdf))
	attachment(w, name, contentTypePDF, pdf)
}

func decodeDashboard(r *http.Request) (*domain.Dashboard, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxReportBody))
	if err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var d domain.Dashboard
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}
	return &d, nil
}

func (h *ExportHandler) logExport(r *http.Request, format string, records, size int) {
	attrs := []any{
		slog.String("format", format),
		slog.Int("bytes", size),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	}
	if records >= 0 {
		attrs = append(attrs, slog.Int("records", records))
	}
	h.logger.InfoContext(r.Context(), "export served", attrs...)
}

func attachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
