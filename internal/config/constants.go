package config

import "salespulse/pkg/contracts"

// Application identity
const (
	AppName    = "SalesPulse"
	AppVersion = contracts.Version
)

// Upload form field names accepted by the upload and analyze endpoints.
const (
	UploadFieldFiles = "files"
	UploadFieldFile  = "file"
)

// SupportedExtensions lists the file extensions that have an extractor.
// Anything else is stored without parsing.
var SupportedExtensions = []string{".txt", ".pdf", ".csv", ".xlsx", ".xls"}
