package dataprocessing

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"salespulse/internal/config"
)

var (
	txtCustomerPattern = regexp.MustCompile(`^\x1bE?(.+?)\x1bF$`)
	txtRecordPattern   = regexp.MustCompile(
		`^\s*(\d+)\s+` + // bill no
			`(\d{2}-\d{2}-\d{4})\s+` + // date
			`(.+?)\s+` + // item, batch and expiry
			`([\d.]+)\s+` + // ptr
			`([\d.]+)\s+` + // quantity
			`([\d.]*)\s+` + // free, may be empty
			`([\d.]+)$`) // value
	txtExpiryPattern = regexp.MustCompile(`([A-Za-z]{3}-\d{2})$`)
)

// TXTExtractor reads fixed-width dot-matrix exports. Customer headers are
// wrapped in printer escape codes and apply to every record that follows.
type TXTExtractor struct {
	area   string
	logger *slog.Logger
}

// NewTXTExtractor creates a TXT extractor stamping cfg.TXTArea on records.
func NewTXTExtractor(cfg config.IngestConfig, logger *slog.Logger) *TXTExtractor {
	return &TXTExtractor{area: cfg.TXTArea, logger: logger}
}

// Format implements Extractor
func (e *TXTExtractor) Format() Format { return FormatTXT }

// Extract implements Extractor. A numeric field that matches the grammar
// but does not convert fails the whole file.
func (e *TXTExtractor) Extract(ctx context.Context, data []byte) ([]RawRecord, error) {
	lines, err := decodeLines(data)
	if err != nil {
		return nil, err
	}

	state := txtState{customer: unknownName, area: e.area}
	for n, line := range lines {
		if n%1000 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if state, err = state.step(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
	}

	e.logger.DebugContext(ctx, "txt report scanned",
		slog.Int("lines", len(lines)),
		slog.Int("records", len(state.records)))
	return state.records, nil
}

// txtState is the accumulator folded over the lines of a TXT report.
type txtState struct {
	customer string
	area     string
	records  []RawRecord
}

func (s txtState) step(line string) (txtState, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return s, nil
	}
	if m := txtCustomerPattern.FindStringSubmatch(line); m != nil {
		s.customer = strings.TrimSpace(m[1])
		return s, nil
	}
	m := txtRecordPattern.FindStringSubmatch(line)
	if m == nil {
		return s, nil
	}

	rec, err := s.record(m)
	if err != nil {
		return s, err
	}
	s.records = append(s.records, rec)
	return s, nil
}

func (s txtState) record(m []string) (RawRecord, error) {
	billNo, date, middle := m[1], m[2], m[3]

	ptr, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ptr %q: %w", m[4], err)
	}
	qty, err := optionalCount(m[5])
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", m[5], err)
	}
	free, err := optionalCount(m[6])
	if err != nil {
		return nil, fmt.Errorf("invalid free quantity %q: %w", m[6], err)
	}
	value, err := strconv.ParseFloat(m[7], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", m[7], err)
	}

	item, batch, expiry := splitItemSegment(middle)
	return RawRecord{
		FieldCustomer: String(s.customer),
		FieldBillNo:   String(strings.TrimSpace(billNo)),
		FieldDate:     String(strings.TrimSpace(date)),
		FieldItem:     String(item),
		FieldBatch:    String(batch),
		FieldExpiry:   String(expiry),
		FieldPTR:      Float(ptr),
		FieldNFree:    Int(qty),
		FieldFree:     Int(free),
		FieldValue:    Float(value),
		FieldRegion:   String(s.area),
	}, nil
}

// splitItemSegment decomposes "ITEM NAME BATCH Mon-YY". The expiry is taken
// from the right; the batch is the last whitespace separated token before it.
func splitItemSegment(middle string) (item, batch, expiry string) {
	batch, expiry = notAvailable, notAvailable
	rest := middle
	if loc := txtExpiryPattern.FindStringSubmatchIndex(middle); loc != nil {
		expiry = middle[loc[2]:loc[3]]
		rest = strings.TrimSpace(middle[:loc[0]])
	}
	if !strings.Contains(rest, " ") {
		return strings.TrimSpace(rest), batch, expiry
	}
	cut := strings.LastIndexFunc(rest, unicode.IsSpace)
	item = strings.TrimSpace(rest[:cut])
	batch = strings.TrimSpace(rest[cut+1:])
	return item, batch, expiry
}

// optionalCount converts a possibly empty decimal token to a whole count.
func optionalCount(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// decodeLines decodes UTF-8 text, dropping bytes that do not decode, and
// splits it into lines.
func decodeLines(data []byte) ([]string, error) {
	decoder := transform.Chain(
		xunicode.UTF8BOM.NewDecoder(),
		runes.Remove(runes.Predicate(func(r rune) bool { return r == utf8.RuneError })),
	)
	scanner := bufio.NewScanner(transform.NewReader(bytes.NewReader(data), decoder))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}
	return lines, nil
}
