package report

import (
	"time"

	"salespulse/pkg/contracts/domain"
)

// OverallArea names the top items table when no area has sales.
const OverallArea = "Overall"

// Context is everything the report template renders.
type Context struct {
	GeneratedOn      time.Time
	ReportingPeriod  string
	KPI              domain.KPIMetrics
	TotalRecords     int
	TopArea          string
	AreaRows         []AreaRow
	TopItemRows      []ValueRow
	GrowingRows      []GrowthRow
	PrescriberRows   []ValueRow
	FreeQtyRows      []QuantityRow
	WeeklyGrowthRows []PercentRow
}

type AreaRow struct {
	Label      string
	TotalSales float64
	OrderCount int
}

type ValueRow struct {
	Name    string
	Revenue float64
}

type GrowthRow struct {
	Label  string
	Prev   float64
	Last   float64
	Growth float64
}

type QuantityRow struct {
	Product string
	Qty     int64
}

type PercentRow struct {
	Week    string
	Percent float64
}

// Builder turns a dashboard into a report Context.
type Builder struct {
	now func() time.Time
}

// NewBuilder returns a builder stamping reports with the current time.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// Build flattens the dashboard's parallel series into table rows. Series of
// unequal length are cut to the shortest.
func (b *Builder) Build(d domain.Dashboard) Context {
	now := b.now()
	c := Context{
		GeneratedOn:     now,
		ReportingPeriod: now.Format("January 2006"),
		KPI:             d.KPIMetrics,
		TotalRecords:    d.TotalRecords,
		TopArea:         OverallArea,
	}

	ap := d.AreaPerformance
	bestSales := 0.0
	for i := 0; i < min(len(ap.Name), len(ap.TotalSales), len(ap.OrderCount)); i++ {
		c.AreaRows = append(c.AreaRows, AreaRow{Label: ap.Name[i], TotalSales: ap.TotalSales[i], OrderCount: ap.OrderCount[i]})
		if c.TopArea == OverallArea || ap.TotalSales[i] > bestSales {
			c.TopArea, bestSales = ap.Name[i], ap.TotalSales[i]
		}
	}
	if top, ok := d.TopMedicinesByArea[c.TopArea]; ok {
		c.TopItemRows = valueRows(top)
	}

	g := d.GrowingMedicines
	for i := 0; i < min(len(g.Labels), len(g.PreviousWeekSales), len(g.LastWeekSales)); i++ {
		prev, last := g.PreviousWeekSales[i], g.LastWeekSales[i]
		c.GrowingRows = append(c.GrowingRows, GrowthRow{Label: g.Labels[i], Prev: prev, Last: last, Growth: last - prev})
	}

	c.PrescriberRows = valueRows(d.PrescriberAnalysis)

	fq := d.HighFreeQuantity
	for i := 0; i < min(len(fq.Labels), len(fq.Data)); i++ {
		c.FreeQtyRows = append(c.FreeQtyRows, QuantityRow{Product: fq.Labels[i], Qty: fq.Data[i]})
	}

	wg := d.WeeklyGrowthTrends
	for i := 0; i < min(len(wg.Labels), len(wg.Data)); i++ {
		c.WeeklyGrowthRows = append(c.WeeklyGrowthRows, PercentRow{Week: wg.Labels[i], Percent: wg.Data[i]})
	}
	return c
}

func valueRows(s domain.Series) []ValueRow {
	var rows []ValueRow
	for i := 0; i < min(len(s.Labels), len(s.Data)); i++ {
		rows = append(rows, ValueRow{Name: s.Labels[i], Revenue: s.Data[i]})
	}
	return rows
}
