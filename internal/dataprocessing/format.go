package dataprocessing

// Format identifies the layout of an uploaded sales report.
type Format string

const (
	FormatTXT         Format = "txt"
	FormatPDF         Format = "pdf"
	FormatCSV         Format = "csv"
	FormatExcel1      Format = "excel_format_1"
	FormatExcel2      Format = "excel_format_2"
	FormatExcel3      Format = "excel_format_3"
	FormatUnknown     Format = "unknown"
	FormatUnsupported Format = "unsupported"
)

// IsExcel reports whether f is one of the spreadsheet layouts.
func (f Format) IsExcel() bool {
	return f == FormatExcel1 || f == FormatExcel2 || f == FormatExcel3
}

// Parseable reports whether an extractor exists for f.
func (f Format) Parseable() bool {
	switch f {
	case FormatTXT, FormatPDF, FormatCSV, FormatExcel1, FormatExcel2, FormatExcel3:
		return true
	}
	return false
}

func (f Format) String() string { return string(f) }

// excelFormats is the order in which spreadsheet layouts are tried.
var excelFormats = []Format{FormatExcel1, FormatExcel2, FormatExcel3}
