// Package services implements the business logic between the HTTP handlers
// and the ingest, analytics and storage packages.
//
// # Available Services
//
//	- UploadService: hashes, deduplicates, stores and parses uploaded files
//	- AnalyticsService: cached dashboard, analyze without saving, clear, listings
//	- ExportService: CSV and XLSX exports, PDF report
//	- HealthService: liveness, readiness and version
//
// # Upload outcomes
//
// Every uploaded file ends in exactly one state:
//
//	parsed       at least one record was extracted
//	stored_only  the file was kept but nothing could be parsed
//	duplicate    the same bytes were uploaded before
//	error        validation or storage failed
//
// A failing file never aborts the rest of its batch.
//
// # Error Handling
//
// Services return the sentinels in errors.go or wrapped errors. Handlers map
// the sentinels to RFC 7807 problems; anything else becomes a 500.
//
// # Testing
//
// Collaborators are narrow interfaces (interfaces.go) mocked with testify:
//
//	store := new(MockTransactionStore)
//	store.On("FileExists", mock.Anything, hash).Return(false, nil)
package services
