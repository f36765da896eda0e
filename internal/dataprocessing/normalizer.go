package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"salespulse/pkg/contracts/domain"
)

// fieldAlias maps one raw field onto a canonical column. When several raw
// fields feed the same column the first present one wins.
type fieldAlias struct {
	raw       string
	canonical string
}

var commonAliases = []fieldAlias{
	{FieldCustomer, "customer_name"},
	{FieldBillNo, "bill_no"},
	{FieldItem, "item_name"},
	{FieldBatch, "batch_no"},
	{FieldExpiry, "expiry"},
	{FieldPTR, "ptr"},
	{FieldValue, "value"},
}

var tabularAliases = append(append([]fieldAlias{}, commonAliases...),
	fieldAlias{FieldQuantity, "quantity"},
	fieldAlias{FieldFree, "free_quantity"},
	fieldAlias{FieldArea, "area"},
	fieldAlias{FieldRegion, "area"},
	fieldAlias{FieldDistributor, "distributor"},
	fieldAlias{FieldManufacturer, "manufacturer"},
	fieldAlias{FieldPackSize, "pack_size"},
	fieldAlias{FieldMRP, "mrp"},
)

// aliasTables is keyed by format because the same canonical column comes
// from different raw fields: TXT reports call the sold quantity NFREE.
var aliasTables = map[Format][]fieldAlias{
	FormatTXT: append(append([]fieldAlias{}, commonAliases...),
		fieldAlias{FieldNFree, "quantity"},
		fieldAlias{FieldFree, "free_quantity"},
		fieldAlias{FieldRegion, "area"},
	),
	FormatPDF: append(append([]fieldAlias{}, tabularAliases...),
		fieldAlias{FieldProductDiscount, "product_discount_percent"},
		fieldAlias{FieldDiscountAmount, "discount_amount"},
		fieldAlias{FieldCustomerDiscount, "customer_discount_percent"},
	),
	FormatCSV:    tabularAliases,
	FormatExcel1: tabularAliases,
	FormatExcel2: tabularAliases,
	FormatExcel3: tabularAliases,
}

// NormalizeStats makes the rows lost during normalization observable.
type NormalizeStats struct {
	Input          int `json:"input"`
	Output         int `json:"output"`
	DroppedDate    int `json:"dropped_date"`
	DroppedInvalid int `json:"dropped_invalid"`
}

// Dropped is the total number of discarded rows.
func (s NormalizeStats) Dropped() int { return s.DroppedDate + s.DroppedInvalid }

// Normalizer maps raw records of any format onto domain.Transaction.
type Normalizer struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{validate: validator.New(), logger: logger}
}

// Normalize renames, coerces and projects records. Rows with an unparseable
// date or failing struct validation are dropped and counted.
func (n *Normalizer) Normalize(ctx context.Context, format Format, records []RawRecord) ([]domain.Transaction, NormalizeStats) {
	stats := NormalizeStats{Input: len(records)}
	aliases, ok := aliasTables[format]
	if !ok {
		return []domain.Transaction{}, stats
	}

	out := make([]domain.Transaction, 0, len(records))
	for _, rec := range records {
		cols := rename(rec, aliases)
		date, ok := parseDate(format, rec[FieldDate])
		if !ok {
			stats.DroppedDate++
			continue
		}
		tx := project(cols, date)
		if err := n.validate.Struct(tx); err != nil {
			stats.DroppedInvalid++
			n.logger.DebugContext(ctx, "dropping invalid record",
				slog.String("format", format.String()),
				slog.String("bill_no", tx.BillNo),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, tx)
	}
	stats.Output = len(out)

	level := slog.LevelDebug
	if stats.Dropped() > 0 {
		level = slog.LevelWarn
	}
	n.logger.Log(ctx, level, "records normalized",
		slog.String("format", format.String()),
		slog.Int("input", stats.Input),
		slog.Int("output", stats.Output),
		slog.Int("dropped_date", stats.DroppedDate),
		slog.Int("dropped_invalid", stats.DroppedInvalid))
	return out, stats
}

func rename(rec RawRecord, aliases []fieldAlias) map[string]Value {
	cols := make(map[string]Value, len(aliases))
	for _, a := range aliases {
		if _, done := cols[a.canonical]; done {
			continue
		}
		if v, ok := rec[a.raw]; ok && !v.IsNull() {
			cols[a.canonical] = v
		}
	}
	return cols
}

// project fills every canonical column, defaulting absent text to "" and
// absent or unconvertible numbers to 0.
func project(cols map[string]Value, date time.Time) domain.Transaction {
	text := func(name string) string { return strings.TrimSpace(cols[name].AsString()) }
	count := func(name string) int64 { i, _ := cols[name].AsInt(); return i }
	amount := func(name string) float64 { f, _ := cols[name].AsFloat(); return f }

	return domain.Transaction{
		CustomerName:            text("customer_name"),
		ItemName:                text("item_name"),
		Date:                    date,
		BillNo:                  text("bill_no"),
		Quantity:                count("quantity"),
		FreeQuantity:            count("free_quantity"),
		PTR:                     amount("ptr"),
		Value:                   amount("value"),
		BatchNo:                 text("batch_no"),
		Expiry:                  text("expiry"),
		Area:                    text("area"),
		Distributor:             text("distributor"),
		Manufacturer:            text("manufacturer"),
		PackSize:                text("pack_size"),
		MRP:                     amount("mrp"),
		ProductDiscountPercent:  amount("product_discount_percent"),
		DiscountAmount:          amount("discount_amount"),
		CustomerDiscountPercent: amount("customer_discount_percent"),
	}
}

// parseDate applies the date convention of the source format.
func parseDate(format Format, v Value) (time.Time, bool) {
	switch format {
	case FormatTXT:
		t, err := time.Parse("02-01-2006", strings.TrimSpace(v.AsString()))
		return t, err == nil
	case FormatPDF:
		return parsePDFDate(v.AsString())
	default:
		return flexibleDate(v, format.IsExcel())
	}
}

// parsePDFDate accepts DD/MM/YY and DD/MM/YYYY. Two digit years up to 30
// belong to this century.
func parsePDFDate(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	year := parts[2]
	if len(year) == 2 {
		yy, ok := parseNumber(year)
		if !ok {
			return time.Time{}, false
		}
		century := 1900
		if yy <= 30 {
			century = 2000
		}
		year = fmt.Sprintf("%d", century+int(yy))
	}
	t, err := time.Parse("02/01/2006", parts[0]+"/"+parts[1]+"/"+year)
	return t, err == nil
}

// flexibleDate parses a spreadsheet or CSV date. Numbers are Excel serials
// when serial is set; text is parsed day-first.
func flexibleDate(v Value, serial bool) (time.Time, bool) {
	if t, ok := v.AsTime(); ok {
		return calendarDate(t), true
	}
	if v.IsNull() {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.AsString())
	if s == "" {
		return time.Time{}, false
	}
	if n, ok := v.AsFloat(); ok && (v.IsNumeric() || serial) {
		if !serial {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(n, false)
		if err != nil {
			return time.Time{}, false
		}
		return calendarDate(t), true
	}
	if t, ok := parseDayFirst(s); ok {
		return t, true
	}
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return calendarDate(t), true
}

// dayFirstLayouts cover the day-month-year spellings dateparse rejects.
// Single-digit layout elements also accept zero-padded input.
var dayFirstLayouts = []string{
	"2-1-2006", "2-1-06",
	"2.1.2006", "2.1.06",
	"2/1/2006", "2/1/06",
}

// parseDayFirst tries dayFirstLayouts on s and on its leading date token,
// so a trailing time of day is ignored.
func parseDayFirst(s string) (time.Time, bool) {
	candidates := []string{s}
	if head, _, found := strings.Cut(s, " "); found {
		candidates = append(candidates, head)
	}
	for _, c := range candidates {
		for _, layout := range dayFirstLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return calendarDate(t), true
			}
		}
	}
	return time.Time{}, false
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
