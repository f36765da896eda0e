package services

import "errors"

// Service errors. Handlers map these to problem responses.
var (
	// Upload errors
	ErrNoFilesUploaded = errors.New("no files were uploaded")

	// Analysis errors
	ErrNothingParsed = errors.New("could not parse any data from the uploaded file(s)")
	ErrNoData        = errors.New("no sales data available")

	// Report errors
	ErrReportUnavailable = errors.New("report generation is not configured")
)
