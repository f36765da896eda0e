package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/middleware"
	"salespulse/internal/services"
	"salespulse/internal/shared/testutil"
	"salespulse/internal/storage"
	"salespulse/pkg/contracts/domain"
)

// MockExportService is a mock implementation of ExportServiceInterface
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) WriteCSV(ctx context.Context, w io.Writer, f storage.Filter) (int, error) {
	args := m.Called(ctx, w, f)
	if s, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, s)
	}
	return args.Int(1), args.Error(2)
}

func (m *MockExportService) WriteXLSX(ctx context.Context, w io.Writer, f storage.Filter) (int, error) {
	args := m.Called(ctx, w, f)
	if s, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, s)
	}
	return args.Int(1), args.Error(2)
}

func (m *MockExportService) ReportPDF(ctx context.Context, d *domain.Dashboard) ([]byte, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newExportRouter(t *testing.T, svc *MockExportService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewExportHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/export", h.Routes())
	r.Mount("/api/report", h.ReportRoutes())
	return r
}

func TestExportHandler_CSV(t *testing.T) {
	svc := new(MockExportService)
	svc.On("WriteCSV", mock.Anything, mock.Anything, storage.Filter{Area: "Kochi"}).
		Return("\ufeffdate,bill_no\n2024-01-05,B1\n", 1, nil)
	router := newExportRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/transactions.csv?area=Kochi", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sales_transactions.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\ufeffdate,bill_no"))
	svc.AssertExpectations(t)
}

func TestExportHandler_XLSX(t *testing.T) {
	svc := new(MockExportService)
	svc.On("WriteXLSX", mock.Anything, mock.Anything, storage.Filter{From: testutil.Date(2024, 3, 1)}).
		Return("PK", 0, nil)
	router := newExportRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/transactions.xlsx?from=2024-03-01", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("Content-Length"))
}

func TestExportHandler_CSVFailure(t *testing.T) {
	svc := new(MockExportService)
	svc.On("WriteCSV", mock.Anything, mock.Anything, mock.Anything).Return(nil, 0, errors.New("disk I/O error"))
	router := newExportRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/transactions.csv", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "STORAGE_ERROR", decodeProblem(t, rec)["error_code"])
}

func TestExportHandler_ReportPDF(t *testing.T) {
	pdf := []byte("%PDF-1.4")

	t.Run("posted dashboard", func(t *testing.T) {
		svc := new(MockExportService)
		svc.On("ReportPDF", mock.Anything, mock.MatchedBy(func(d *domain.Dashboard) bool {
			return d != nil && d.TotalRecords == 3 && d.KPIMetrics.TotalSales == 1500
		})).Return(pdf, nil)
		router := newExportRouter(t, svc)

		req := httptest.NewRequest(http.MethodPost, "/api/report/pdf",
			strings.NewReader(`{"totalRecords":3,"kpiMetrics":{"totalSales":1500}}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, contentTypePDF, rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="sales_report.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, pdf, rec.Body.Bytes())
		svc.AssertExpectations(t)
	})

	t.Run("empty body uses stored dashboard", func(t *testing.T) {
		svc := new(MockExportService)
		svc.On("ReportPDF", mock.Anything, (*domain.Dashboard)(nil)).Return(pdf, nil)
		router := newExportRouter(t, svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/report/pdf?file_name=march.pdf", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename="march.pdf"`, rec.Header().Get("Content-Disposition"))
	})

	t.Run("no data", func(t *testing.T) {
		svc := new(MockExportService)
		svc.On("ReportPDF", mock.Anything, mock.Anything).Return(nil, services.ErrNoData)
		router := newExportRouter(t, svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/report/pdf", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NO_DATA", decodeProblem(t, rec)["error_code"])
	})

	t.Run("renderer failure", func(t *testing.T) {
		svc := new(MockExportService)
		svc.On("ReportPDF", mock.Anything, mock.Anything).Return(nil, errors.New("chrome not found"))
		router := newExportRouter(t, svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/report/pdf", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "REPORT_FAILED", decodeProblem(t, rec)["error_code"])
	})

	t.Run("invalid file name", func(t *testing.T) {
		svc := new(MockExportService)
		router := newExportRouter(t, svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/report/pdf?file_name=../x.pdf", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ReportPDF", mock.Anything, mock.Anything)
	})

	t.Run("malformed json", func(t *testing.T) {
		svc := new(MockExportService)
		router := newExportRouter(t, svc)

		req := httptest.NewRequest(http.MethodPost, "/api/report/pdf", strings.NewReader(`{"totalRecords":`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ReportPDF", mock.Anything, mock.Anything)
	})
}
