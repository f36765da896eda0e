package http

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "salespulse/internal/errors"
	appmiddleware "salespulse/internal/middleware"
	"salespulse/internal/storage"
	api "salespulse/pkg/contracts/api/v1"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// SalesHandler serves uploads, the dashboard and the stored data.
type SalesHandler struct {
	uploads        UploadServiceInterface
	sales          SalesServiceInterface
	maxUploadBytes int64
	query          *appmiddleware.QueryParamValidator
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewSalesHandler creates a new sales handler with RFC 7807 error handling
func NewSalesHandler(
	uploads UploadServiceInterface,
	sales SalesServiceInterface,
	maxUploadBytes int64,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *SalesHandler {
	return &SalesHandler{
		uploads:        uploads,
		sales:          sales,
		maxUploadBytes: maxUploadBytes,
		query:          appmiddleware.NewQueryParamValidator(logger, errorHandler),
		logger:         logger.With(slog.String("component", "sales_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the sales routes
func (h *SalesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/upload", h.Upload)
	r.Get("/sales-data", h.GetSalesData)
	r.Post("/analyze-session", h.AnalyzeSession)
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.AuditLog(h.logger))
		r.Get("/clear-data", h.ClearData)
		r.Post("/clear-data", h.ClearData)
	})
	r.Get("/transactions", h.GetTransactions)
	r.Get("/files", h.GetFiles)
	r.Get("/stats", h.GetStats)
	return r
}

// Upload handles POST /api/upload
func (h *SalesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	batch, err := readBatch(w, r, h.maxUploadBytes)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "upload received",
		slog.Int("files", len(batch)),
		slog.String("request_id", reqID),
	)

	summary, err := h.uploads.Upload(ctx, batch)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("upload", err))
		return
	}
	render.JSON(w, r, summary)
}

// GetSalesData handles GET /api/sales-data
func (h *SalesHandler) GetSalesData(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.sales.Dashboard(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("dashboard", err))
		return
	}
	render.JSON(w, r, dashboard)
}

// AnalyzeSession handles POST /api/analyze-session. Files are parsed and
// aggregated without being stored.
func (h *SalesHandler) AnalyzeSession(w http.ResponseWriter, r *http.Request) {
	batch, err := readBatch(w, r, h.maxUploadBytes)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dashboard, err := h.sales.AnalyzeSession(r.Context(), batch)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("analyze", err))
		return
	}
	render.JSON(w, r, dashboard)
}

// ClearData handles GET|POST /api/clear-data
func (h *SalesHandler) ClearData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.sales.Clear(ctx)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("clear", err))
		return
	}

	h.logger.WarnContext(ctx, "sales data cleared",
		slog.Int64("transactions", result.TransactionsDeleted),
		slog.Int("files", result.FilesDeleted),
		slog.String("request_id", middleware.GetReqID(ctx)),
	)
	render.JSON(w, r, result)
}

// GetTransactions handles GET /api/transactions
func (h *SalesHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(h.query, h.errorHandler, w, r, true)
	if !ok {
		return
	}

	page, err := h.sales.Transactions(r.Context(), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("list transactions", err))
		return
	}
	render.JSON(w, r, page)
}

// GetFiles handles GET /api/files
func (h *SalesHandler) GetFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.sales.Files(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("list files", err))
		return
	}
	render.JSON(w, r, api.FilesResponse{Files: files, Count: len(files)})
}

// GetStats handles GET /api/stats
func (h *SalesHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sales.Stats(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError("stats", err))
		return
	}
	render.JSON(w, r, stats)
}

// parseFilter reads from, to, area and, when paged, limit and offset. On
// failure the error response has already been written.
func parseFilter(q *appmiddleware.QueryParamValidator, eh *apierrors.ErrorHandler, w http.ResponseWriter, r *http.Request, paged bool) (storage.Filter, bool) {
	var f storage.Filter
	var ok bool

	if f.From, ok = q.ValidateDate(w, r, "from"); !ok {
		return f, false
	}
	if f.To, ok = q.ValidateDate(w, r, "to"); !ok {
		return f, false
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		eh.HandleError(w, r, apierrors.ErrValidation("to", "to must not be before from"))
		return f, false
	}
	f.Area = r.URL.Query().Get("area")

	if !paged {
		return f, true
	}
	if f.Limit, ok = q.ValidateInt(w, r, "limit", 1, maxPageSize, defaultPageSize); !ok {
		return f, false
	}
	if f.Offset, ok = q.ValidateInt(w, r, "offset", 0, math.MaxInt32, 0); !ok {
		return f, false
	}
	return f, true
}
