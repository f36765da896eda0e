// Package api contains API contract definitions for the SalesPulse service.
// Version v1 represents the current stable API version.
package api

import (
	"salespulse/pkg/contracts/domain"
)

// Report API Requests

// ReportRequest carries the query options of a PDF report. The request body,
// when present, is the dashboard to render; an empty body renders the
// current stored dashboard.
type ReportRequest struct {
	FileName string `json:"file_name" query:"file_name" validate:"omitempty,filename"`
}

// Data API Responses

// TransactionPage is one page of stored transactions.
type TransactionPage struct {
	Transactions []domain.Transaction `json:"transactions"`
	Total        int                  `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// ClearResponse reports what a clear-data call removed.
type ClearResponse struct {
	Message             string `json:"message"`
	TransactionsDeleted int64  `json:"transactions_deleted"`
	FilesDeleted        int    `json:"files_deleted"`
}

// FilesResponse lists the tracked uploads, newest first.
type FilesResponse struct {
	Files []domain.SourceFile `json:"files"`
	Count int                 `json:"count"`
}
