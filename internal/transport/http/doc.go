// Package http implements the HTTP handlers of the SalesPulse API. Handlers
// are thin: they parse the request, call a service and render the result.
// Every failure is rendered as RFC 7807 problem details by the shared
// ErrorHandler.
//
// # Routes
//
// Mounted under /api:
//
//	POST /upload                    store and ingest files (multipart field "file")
//	GET  /sales-data                dashboard over every stored transaction
//	POST /analyze-session           dashboard over uploaded files, nothing stored
//	GET|POST /clear-data            delete all transactions and uploads
//	GET  /transactions              paged listing (from, to, area, limit, offset)
//	GET  /files                     tracked uploads, newest first
//	GET  /stats                     row counts and stored date range
//	GET  /export/transactions.csv   CSV download (from, to, area)
//	GET  /export/transactions.xlsx  XLSX download (from, to, area)
//	POST /report/pdf                PDF report of a posted or the stored dashboard
//	GET  /health, /health/ready, /health/live, /version
//	POST /client-log                frontend log forwarding
//
// # Testing
//
// Handlers are tested with httptest against testify mocks of the service
// interfaces declared in interfaces.go.
package http
