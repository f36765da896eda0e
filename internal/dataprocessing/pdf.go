package dataprocessing

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"salespulse/internal/config"
)

var (
	pdfDatePattern   = regexp.MustCompile(`^\d{2}/\d{2}/\d{2}$`)
	pdfAmountPattern = regexp.MustCompile(`^-?[\d,.]+$`)
	pdfPlainNumber   = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

const (
	pdfCustomerMarker = "Customer"
	pdfAreaMarker     = "Area"
	pdfTotalMarker    = "Cus. Total"
)

// PDFExtractor reads distributor statements. Text is flattened to lines, so
// records are recovered from marker lines, a date shape, the price-list
// sentinel that carries the bill number, and the manufacturer line that
// closes each block.
type PDFExtractor struct {
	billPrefix   string
	manufacturer string
	distributor  string
	logger       *slog.Logger
}

// NewPDFExtractor creates a PDF extractor using the layout constants in cfg.
func NewPDFExtractor(cfg config.IngestConfig, logger *slog.Logger) *PDFExtractor {
	return &PDFExtractor{
		billPrefix:   cfg.PDFBillPrefix,
		manufacturer: cfg.PDFManufacturer,
		distributor:  cfg.PDFDistributor,
		logger:       logger,
	}
}

// Format implements Extractor
func (e *PDFExtractor) Format() Format { return FormatPDF }

// Extract implements Extractor
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) ([]RawRecord, error) {
	text, err := pdfText(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	records := e.ExtractLines(lines)
	e.logger.DebugContext(ctx, "pdf statement scanned",
		slog.Int("lines", len(lines)),
		slog.Int("records", len(records)))
	return records, nil
}

// ExtractLines scans flattened statement lines. Malformed blocks are
// abandoned and scanning resumes on the following line.
func (e *PDFExtractor) ExtractLines(lines []string) []RawRecord {
	s := pdfState{customer: unknownName, area: unknownName}
	i := 0
	for i < len(lines) {
		line := lines[i]
		switch {
		case line == pdfCustomerMarker && i > 0:
			s.customer = lines[i-1]
			i++
			continue
		case line == pdfAreaMarker && i > 0:
			s.area = lines[i-1]
			i++
			continue
		case line == pdfTotalMarker:
			i += 2
			continue
		}

		if e.startsRecord(lines, i) {
			if rec, next, ok := e.block(lines, i, s); ok {
				s.records = append(s.records, rec)
				i = next
				continue
			}
		}
		i++
	}
	return s.records
}

// pdfState carries the running customer and area between blocks.
type pdfState struct {
	customer string
	area     string
	records  []RawRecord
}

func (e *PDFExtractor) startsRecord(lines []string, i int) bool {
	return i+1 < len(lines) &&
		pdfDatePattern.MatchString(lines[i+1]) &&
		!strings.Contains(lines[i], pdfCustomerMarker) &&
		!strings.Contains(lines[i], pdfAreaMarker)
}

// block parses one record starting at i and returns the index of the first
// line after it.
func (e *PDFExtractor) block(lines []string, i int, s pdfState) (RawRecord, int, bool) {
	if i+2 >= len(lines) {
		return nil, 0, false
	}
	item, date, pack := lines[i], lines[i+1], lines[i+2]

	billAt := i + 3
	for billAt < len(lines) && !strings.HasPrefix(lines[billAt], e.billPrefix) {
		billAt++
	}
	if billAt >= len(lines) {
		return nil, 0, false
	}

	nums := make([]float64, 0, 4)
	for _, tok := range lines[i+3 : billAt] {
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
		if err != nil {
			return nil, 0, false
		}
		nums = append(nums, f)
	}
	var qty, free, value, rate float64
	switch len(nums) {
	case 4:
		qty, free, value, rate = nums[0], nums[1], nums[2], nums[3]
	case 3:
		qty, value, rate = nums[0], nums[1], nums[2]
	default:
		return nil, 0, false
	}

	mfrAt := billAt + 1
	for mfrAt < len(lines) && !strings.Contains(lines[mfrAt], e.manufacturer) {
		mfrAt++
	}
	if mfrAt >= len(lines) {
		return nil, 0, false
	}

	var pool []float64
	for _, tok := range lines[billAt+1 : mfrAt] {
		if !pdfAmountPattern.MatchString(tok) {
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
		if err != nil {
			return nil, 0, false
		}
		pool = append(pool, f)
	}
	var mrp, discountPct, discountAmt float64
	if len(pool) > 0 {
		mrp = pool[0]
	}
	switch rest := pool[min(len(pool), 1):]; len(rest) {
	case 0:
	case 1:
		discountAmt = rest[0]
	default:
		discountPct, discountAmt = rest[0], rest[1]
	}

	next := mfrAt + 1
	var customerDiscount float64
	if next < len(lines) && pdfPlainNumber.MatchString(lines[next]) && !e.startsRecord(lines, next) {
		customerDiscount, _ = strconv.ParseFloat(lines[next], 64)
		next++
	}

	return RawRecord{
		FieldDistributor:      String(e.distributor),
		FieldArea:             String(s.area),
		FieldCustomer:         String(s.customer),
		FieldItem:             String(item),
		FieldManufacturer:     String(e.manufacturer),
		FieldDate:             String(date),
		FieldBillNo:           String(lines[billAt]),
		FieldPackSize:         String(pack),
		FieldQuantity:         Int(int64(qty)),
		FieldFree:             Int(int64(free)),
		FieldPTR:              Float(rate),
		FieldValue:            Float(value),
		FieldMRP:              Float(mrp),
		FieldProductDiscount:  Float(discountPct),
		FieldDiscountAmount:   Float(discountAmt),
		FieldCustomerDiscount: Float(customerDiscount),
	}, next, true
}

// pdfText concatenates the plain text of every page. The pdf reader panics
// on some malformed documents, which is reported as an error.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", n, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
