package domain

// FileStatus is the terminal outcome of one uploaded file.
type FileStatus string

const (
	FileStatusParsed     FileStatus = "parsed"
	FileStatusStoredOnly FileStatus = "stored_only"
	FileStatusDuplicate  FileStatus = "duplicate"
	FileStatusError      FileStatus = "error"
)

// FileOutcome reports what happened to a single file in an upload batch.
type FileOutcome struct {
	FileName       string     `json:"file_name"`
	FileHash       string     `json:"file_hash,omitempty"`
	Status         FileStatus `json:"status"`
	Format         string     `json:"format,omitempty"`
	RecordsParsed  int        `json:"records_parsed"`
	RecordsStored  int        `json:"records_stored"`
	RecordsDropped int        `json:"records_dropped"`
	Message        string     `json:"message,omitempty"`
}

// UploadSummary aggregates per-file outcomes of an upload batch.
type UploadSummary struct {
	Message         string        `json:"message"`
	ParsedFiles     int           `json:"parsed_files"`
	ParsedRecords   int           `json:"parsed_records"`
	StoredOnlyFiles []string      `json:"stored_only_files"`
	DuplicateFiles  []string      `json:"duplicate_files"`
	ErrorFiles      []string      `json:"error_files"`
	Files           []FileOutcome `json:"files"`
}

// Add folds one outcome into the summary counters.
func (s *UploadSummary) Add(o FileOutcome) {
	s.Files = append(s.Files, o)
	switch o.Status {
	case FileStatusParsed:
		s.ParsedFiles++
		s.ParsedRecords += o.RecordsParsed
	case FileStatusStoredOnly:
		s.StoredOnlyFiles = append(s.StoredOnlyFiles, o.FileName)
	case FileStatusDuplicate:
		s.DuplicateFiles = append(s.DuplicateFiles, o.FileName)
	case FileStatusError:
		s.ErrorFiles = append(s.ErrorFiles, o.FileName)
	}
}

// NewUploadSummary returns a summary with non-nil slices.
func NewUploadSummary() *UploadSummary {
	return &UploadSummary{
		StoredOnlyFiles: []string{},
		DuplicateFiles:  []string{},
		ErrorFiles:      []string{},
		Files:           []FileOutcome{},
	}
}
