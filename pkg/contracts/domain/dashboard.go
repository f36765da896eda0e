package domain

// Dashboard is the chart-ready analytics payload consumed by the frontend.
// Every field is always present; empty inputs produce empty series, never null.
type Dashboard struct {
	TotalRecords       int               `json:"totalRecords"`
	KPIMetrics         KPIMetrics        `json:"kpiMetrics"`
	SalesReport        SalesReport       `json:"salesReport"`
	RevenueByArea      []AreaRevenue     `json:"revenueByArea"`
	SalesTrendsByArea  map[string]Series `json:"salesTrendsByArea"`
	TopMedicinesByArea map[string]Series `json:"topMedicinesByArea"`
	GrowingMedicines   GrowingItems      `json:"growingMedicines"`
	PrescriberAnalysis Series            `json:"prescriberAnalysis"`
	HighFreeQuantity   QuantitySeries    `json:"highFreeQuantity"`
	WeeklyGrowthTrends Series            `json:"weeklyGrowthTrends"`
	AreaPerformance    AreaPerformance   `json:"areaPerformance"`
}

// KPIMetrics holds the headline numbers.
type KPIMetrics struct {
	TotalSales            float64 `json:"totalSales"`
	TotalProducts         int     `json:"totalProducts"`
	TotalStockists        int     `json:"totalStockists"`
	TotalOrders           int     `json:"totalOrders"`
	SalesChangePercentage float64 `json:"salesChangePercentage"`
}

// SalesReport holds the three period summaries.
type SalesReport struct {
	Weekly  PeriodSeries `json:"Weekly"`
	Monthly PeriodSeries `json:"Monthly"`
	Yearly  PeriodSeries `json:"Yearly"`
}

// PeriodSeries is a titled chart series.
type PeriodSeries struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
	Color  string    `json:"color"`
}

// Series is a labelled value series.
type Series struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// QuantitySeries is a labelled integer series.
type QuantitySeries struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// AreaRevenue is one row of revenue by area.
type AreaRevenue struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

// GrowingItems lists items whose latest week beat the prior week.
type GrowingItems struct {
	Labels            []string  `json:"labels"`
	PreviousWeekSales []float64 `json:"previous_week_sales"`
	LastWeekSales     []float64 `json:"last_week_sales"`
}

// AreaPerformance holds parallel columns per area.
type AreaPerformance struct {
	Name       []string  `json:"name"`
	TotalSales []float64 `json:"totalSales"`
	OrderCount []int     `json:"orderCount"`
}

// NewSeries returns a Series with non-nil slices.
func NewSeries() Series {
	return Series{Labels: []string{}, Data: []float64{}}
}
