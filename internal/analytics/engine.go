package analytics

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// Chart colors of the period summaries.
const (
	ColorWeekly  = "#3b82f6"
	ColorMonthly = "#10b981"
	ColorYearly  = "#8b5cf6"
)

// UnknownArea labels transactions without an area.
const UnknownArea = "Unknown"

// Config holds the ranking limits.
type Config struct {
	TopItemsPerArea int // items per area in topMedicinesByArea
	TopGrowing      int // items in growingMedicines
	TopCustomers    int // customers in prescriberAnalysis
	TopFreeItems    int // items in highFreeQuantity
	SummaryWeeks    int // weeks in the weekly sales summary
}

// DefaultConfig returns the limits used by the dashboard.
func DefaultConfig() Config {
	return Config{
		TopItemsPerArea: 10,
		TopGrowing:      10,
		TopCustomers:    15,
		TopFreeItems:    15,
		SummaryWeeks:    4,
	}
}

// Engine computes the dashboard from canonical transactions. It is
// stateless and safe for concurrent use.
type Engine struct {
	logger *slog.Logger
	cfg    Config
}

// NewEngine creates an engine. Zero limits fall back to DefaultConfig.
func NewEngine(logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.TopItemsPerArea <= 0 {
		cfg.TopItemsPerArea = def.TopItemsPerArea
	}
	if cfg.TopGrowing <= 0 {
		cfg.TopGrowing = def.TopGrowing
	}
	if cfg.TopCustomers <= 0 {
		cfg.TopCustomers = def.TopCustomers
	}
	if cfg.TopFreeItems <= 0 {
		cfg.TopFreeItems = def.TopFreeItems
	}
	if cfg.SummaryWeeks <= 0 {
		cfg.SummaryWeeks = def.SummaryWeeks
	}
	return &Engine{logger: logger, cfg: cfg}
}

// Compute builds every dashboard view. An empty input yields a dashboard
// whose collections are empty, never nil.
func (e *Engine) Compute(ctx context.Context, txs []domain.Transaction) domain.Dashboard {
	_, span := infrastructure.Tracer("analytics").Start(ctx, "engine.compute",
		trace.WithAttributes(attribute.Int("transactions", len(txs))))
	defer span.End()
	start := time.Now()

	weeks := weeklyTotals(txs)
	d := domain.Dashboard{
		TotalRecords:       len(txs),
		KPIMetrics:         e.kpis(txs, weeks),
		SalesReport:        e.salesReport(txs, weeks),
		RevenueByArea:      revenueByArea(txs),
		SalesTrendsByArea:  salesTrendsByArea(txs),
		TopMedicinesByArea: e.topItemsByArea(txs),
		GrowingMedicines:   e.growingItems(txs, weeks),
		PrescriberAnalysis: e.topCustomers(txs),
		HighFreeQuantity:   e.topFreeItems(txs),
		WeeklyGrowthTrends: weeklyGrowth(weeks),
		AreaPerformance:    areaPerformance(txs),
	}

	e.logger.DebugContext(ctx, "dashboard computed",
		slog.Int("transactions", len(txs)),
		slog.Int("weeks", weeks.len()),
		slog.Int("areas", len(d.RevenueByArea)),
		slog.Duration("elapsed", time.Since(start)))
	return d
}

func areaOf(tx domain.Transaction) string {
	if tx.Area == "" {
		return UnknownArea
	}
	return tx.Area
}

func value(tx domain.Transaction) decimal.Decimal { return decimal.NewFromFloat(tx.Value) }

func (e *Engine) kpis(txs []domain.Transaction, weeks weekly) domain.KPIMetrics {
	products := make(map[string]struct{})
	customers := make(map[string]struct{})
	bills := make(map[string]struct{})
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(value(tx))
		products[tx.ItemName] = struct{}{}
		if tx.CustomerName != "" {
			customers[tx.CustomerName] = struct{}{}
		}
		if tx.BillNo != "" {
			bills[tx.BillNo] = struct{}{}
		}
	}

	k := domain.KPIMetrics{
		TotalSales:     round2(total),
		TotalProducts:  len(products),
		TotalStockists: len(customers),
		TotalOrders:    len(bills),
	}
	if weeks.len() >= 2 {
		prev, last := weeks.at(-2), weeks.at(-1)
		switch {
		case prev.IsPositive():
			k.SalesChangePercentage = round(growth(prev, last), 1)
		case last.IsPositive():
			k.SalesChangePercentage = 100
		}
	}
	return k
}

func (e *Engine) salesReport(txs []domain.Transaction, weeks weekly) domain.SalesReport {
	report := domain.SalesReport{
		Weekly:  emptyPeriod(ColorWeekly),
		Monthly: emptyPeriod(ColorMonthly),
		Yearly:  emptyPeriod(ColorYearly),
	}
	if len(txs) == 0 {
		return report
	}

	from := max(0, weeks.len()-e.cfg.SummaryWeeks)
	weekSum := decimal.Zero
	for _, start := range weeks.starts[from:] {
		v := weeks.values[start]
		weekSum = weekSum.Add(v)
		report.Weekly.Labels = append(report.Weekly.Labels, start.Format("Jan 02"))
		report.Weekly.Data = append(report.Weekly.Data, round2(v))
	}
	report.Weekly.Title = FormatCurrency(round2(weekSum))

	latest := txs[0].Date
	for _, tx := range txs[1:] {
		if tx.Date.After(latest) {
			latest = tx.Date
		}
	}

	days := make(map[int]decimal.Decimal)
	months := make(map[time.Month]decimal.Decimal)
	for _, tx := range txs {
		if tx.Date.Year() != latest.Year() {
			continue
		}
		months[tx.Date.Month()] = months[tx.Date.Month()].Add(value(tx))
		if tx.Date.Month() == latest.Month() {
			days[tx.Date.Day()] = days[tx.Date.Day()].Add(value(tx))
		}
	}

	daySum := decimal.Zero
	for _, day := range sortedKeys(days) {
		daySum = daySum.Add(days[day])
		report.Monthly.Labels = append(report.Monthly.Labels, strconv.Itoa(day))
		report.Monthly.Data = append(report.Monthly.Data, round2(days[day]))
	}
	report.Monthly.Title = FormatCurrency(round2(daySum))

	monthSum := decimal.Zero
	for _, m := range sortedKeys(months) {
		monthSum = monthSum.Add(months[m])
		report.Yearly.Labels = append(report.Yearly.Labels, m.String()[:3])
		report.Yearly.Data = append(report.Yearly.Data, round2(months[m]))
	}
	report.Yearly.Title = FormatCurrency(round2(monthSum))
	return report
}

func emptyPeriod(color string) domain.PeriodSeries {
	return domain.PeriodSeries{
		Title:  FormatCurrency(0),
		Labels: []string{},
		Data:   []float64{},
		Color:  color,
	}
}

func sortedKeys[K ~int](m map[K]decimal.Decimal) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func weeklyGrowth(weeks weekly) domain.Series {
	s := domain.NewSeries()
	for i := 1; i < weeks.len(); i++ {
		s.Labels = append(s.Labels, "Week "+strconv.Itoa(i+1)+" vs "+strconv.Itoa(i))
		s.Data = append(s.Data, round2(growth(weeks.at(i-1), weeks.at(i))))
	}
	return s
}
