package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"salespulse/internal/config"
)

const (
	companyPrefix = "Company -"
	subTotalLabel = "sub total"
)

var (
	format1HeaderCells = []string{"bill no", "product name"}
	format1Required    = []string{"billno", "date", "productname", "selrate", "qty", "amount"}
	leadingSerial      = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ExcelFormat1Extractor reads the grouped invoice register. Customers and
// manufacturers are section rows; a sale and its free goods are separate
// rows that are summed back into one transaction.
type ExcelFormat1Extractor struct {
	area   string
	logger *slog.Logger
}

// NewExcelFormat1Extractor creates the extractor, stamping cfg.Excel1Area.
func NewExcelFormat1Extractor(cfg config.IngestConfig, logger *slog.Logger) *ExcelFormat1Extractor {
	return &ExcelFormat1Extractor{area: cfg.Excel1Area, logger: logger}
}

// Format implements Extractor
func (e *ExcelFormat1Extractor) Format() Format { return FormatExcel1 }

type format1Columns struct {
	bill, date, item, rate, qty, amount int
	free                                int // -1 when absent
}

// Extract implements Extractor
func (e *ExcelFormat1Extractor) Extract(ctx context.Context, data []byte) ([]RawRecord, error) {
	g, err := loadGrid(data)
	if err != nil {
		return nil, err
	}

	headerRow := -1
	for r := range g {
		if rowContainsLower(g[r], format1HeaderCells) {
			headerRow = r
			break
		}
	}
	if headerRow < 0 {
		return nil, ErrFormatMismatch
	}

	idx := headerIndex(g[headerRow])
	for _, col := range format1Required {
		if _, ok := idx[col]; !ok {
			e.logger.WarnContext(ctx, "register header is missing a required column",
				slog.String("column", col),
				slog.Int("header_row", headerRow+1))
			return nil, ErrFormatMismatch
		}
	}
	cols := format1Columns{
		bill: idx["billno"], date: idx["date"], item: idx["productname"],
		rate: idx["selrate"], qty: idx["qty"], amount: idx["amount"], free: -1,
	}
	if free, ok := idx["freeqty"]; ok {
		cols.free = free
	}

	customer, manufacturer := unknownName, unknownName
	var lines []format1Line
	for r := headerRow + 1; r < len(g); r++ {
		if g.blank(r) {
			continue
		}
		first := g.cell(r, 0)
		product := g.cell(r, cols.item)

		switch {
		case strings.HasPrefix(product, companyPrefix):
			manufacturer = strings.TrimSpace(strings.TrimPrefix(product, companyPrefix))
		case strings.EqualFold(first, subTotalLabel):
			continue
		case leadingSerial.MatchString(first):
			line, err := e.line(g, r, cols)
			if err != nil {
				e.logger.WarnContext(ctx, "skipping malformed register row",
					slog.Int("row", r+1),
					slog.String("error", err.Error()))
				continue
			}
			line.key.customer = customer
			line.key.manufacturer = manufacturer
			line.key.region = e.area
			lines = append(lines, line)
		default:
			customer = customerLabel(g[r])
		}
	}

	return aggregateFormat1(lines), nil
}

// format1Key is the grouping key that reunites sale and free-goods rows.
type format1Key struct {
	customer     string
	bill         string
	date         time.Time
	item         string
	rate         float64
	region       string
	manufacturer string
}

type format1Line struct {
	key   format1Key
	qty   int64
	free  int64
	value float64
}

func (e *ExcelFormat1Extractor) line(g grid, r int, cols format1Columns) (format1Line, error) {
	date, ok := flexibleDate(excelDate(g.cell(r, cols.date)), true)
	if !ok {
		return format1Line{}, fmt.Errorf("unparseable date %q", g.cell(r, cols.date))
	}
	rate, err := strconv.ParseFloat(g.cell(r, cols.rate), 64)
	if err != nil {
		return format1Line{}, fmt.Errorf("invalid rate %q", g.cell(r, cols.rate))
	}
	qty, err := strconv.ParseFloat(g.cell(r, cols.qty), 64)
	if err != nil {
		return format1Line{}, fmt.Errorf("invalid quantity %q", g.cell(r, cols.qty))
	}
	value, err := strconv.ParseFloat(g.cell(r, cols.amount), 64)
	if err != nil {
		return format1Line{}, fmt.Errorf("invalid amount %q", g.cell(r, cols.amount))
	}
	var free float64
	if cols.free >= 0 {
		free = numberOrZero(g.cell(r, cols.free))
	}
	return format1Line{
		key: format1Key{
			bill: g.cell(r, cols.bill),
			date: date,
			item: g.cell(r, cols.item),
			rate: rate,
		},
		qty:   int64(qty),
		free:  int64(free),
		value: value,
	}, nil
}

// aggregateFormat1 sums lines sharing a key, keeping first-appearance order.
func aggregateFormat1(lines []format1Line) []RawRecord {
	order := make([]format1Key, 0, len(lines))
	sums := make(map[format1Key]*format1Line, len(lines))
	for _, l := range lines {
		l := l // per-iteration copy; module targets go1.21 loop semantics
		if acc, ok := sums[l.key]; ok {
			acc.qty += l.qty
			acc.free += l.free
			acc.value += l.value
			continue
		}
		sums[l.key] = &l
		order = append(order, l.key)
	}

	records := make([]RawRecord, 0, len(order))
	for _, k := range order {
		l := sums[k]
		records = append(records, RawRecord{
			FieldCustomer:     String(k.customer),
			FieldManufacturer: String(k.manufacturer),
			FieldBillNo:       String(k.bill),
			FieldDate:         Time(k.date),
			FieldItem:         String(k.item),
			FieldPTR:          Float(k.rate),
			FieldQuantity:     Int(l.qty),
			FieldFree:         Int(l.free),
			FieldValue:        Float(l.value),
			FieldRegion:       String(k.region),
		})
	}
	return records
}

// customerLabel joins the non-empty cells of a section row and strips
// the hyphens used as decoration.
func customerLabel(row []string) string {
	var parts []string
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(strings.Join(parts, " "), "-", ""))
}

// rowContainsLower reports whether the lowercased trimmed cells of row
// include every entry of want.
func rowContainsLower(row []string, want []string) bool {
	set := make(map[string]struct{}, len(row))
	for _, c := range row {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			set[c] = struct{}{}
		}
	}
	return containsAll(set, want)
}
