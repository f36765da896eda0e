package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testutil.DiscardLogger(), Config{})
}

// Mondays of three consecutive ISO weeks in 2024.
var (
	week1 = testutil.Date(2024, time.January, 1)
	week2 = testutil.Date(2024, time.January, 8)
	week3 = testutil.Date(2024, time.January, 15)
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1_500_000, "₹1.5M"},
		{2_500, "₹2.5K"},
		{500, "₹500"},
		{0, "₹0"},
		{999.4, "₹999"},
		{1_000, "₹1.0K"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(tt.in))
		})
	}
}

func TestWeekStart(t *testing.T) {
	sunday := testutil.Date(2024, time.January, 7)
	assert.Equal(t, week1, weekStart(sunday))
	assert.Equal(t, week2, weekStart(week2))
	assert.Equal(t, "2024-W02", weekLabel(weekStart(testutil.Date(2024, time.January, 10))))
	// 2024-12-30 belongs to ISO week 1 of 2025.
	assert.Equal(t, "2025-W01", weekLabel(weekStart(testutil.Date(2025, time.January, 1))))
}

func TestComputeEmpty(t *testing.T) {
	d := newEngine(t).Compute(context.Background(), nil)

	assert.Zero(t, d.TotalRecords)
	assert.Zero(t, d.KPIMetrics.SalesChangePercentage)
	assert.NotNil(t, d.RevenueByArea)
	assert.NotNil(t, d.SalesTrendsByArea)
	assert.NotNil(t, d.TopMedicinesByArea)
	assert.NotNil(t, d.GrowingMedicines.Labels)
	assert.NotNil(t, d.PrescriberAnalysis.Data)
	assert.NotNil(t, d.HighFreeQuantity.Data)
	assert.NotNil(t, d.WeeklyGrowthTrends.Labels)
	assert.NotNil(t, d.AreaPerformance.Name)
	assert.Equal(t, "₹0", d.SalesReport.Weekly.Title)
	assert.Equal(t, ColorMonthly, d.SalesReport.Monthly.Color)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &keys))
	for _, k := range []string{
		"totalRecords", "kpiMetrics", "salesReport", "revenueByArea", "salesTrendsByArea",
		"topMedicinesByArea", "growingMedicines", "prescriberAnalysis", "highFreeQuantity",
		"weeklyGrowthTrends", "areaPerformance",
	} {
		require.Contains(t, keys, k)
		assert.NotEqual(t, "null", string(keys[k]), k)
	}
}

func TestKPISalesChange(t *testing.T) {
	tests := []struct {
		name string
		txs  []domain.Transaction
		want float64
	}{
		{
			name: "growth over previous week",
			txs: []domain.Transaction{
				testutil.Sale("C1", "A", "North", "B1", week1, 1, 100),
				testutil.Sale("C1", "A", "North", "B2", week2, 1, 150),
			},
			want: 50,
		},
		{
			name: "zero previous week",
			txs: []domain.Transaction{
				testutil.Sale("C1", "A", "North", "B1", week1, 1, 0),
				testutil.Sale("C1", "A", "North", "B2", week2, 1, 50),
			},
			want: 100,
		},
		{
			name: "single week",
			txs: []domain.Transaction{
				testutil.Sale("C1", "A", "North", "B1", week1, 1, 100),
			},
			want: 0,
		},
		{
			name: "decline rounds to one place",
			txs: []domain.Transaction{
				testutil.Sale("C1", "A", "North", "B1", week1, 1, 300),
				testutil.Sale("C1", "A", "North", "B2", week2, 1, 200),
			},
			want: -33.3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newEngine(t).Compute(context.Background(), tt.txs)
			assert.Equal(t, tt.want, d.KPIMetrics.SalesChangePercentage)
		})
	}
}

func TestKPICounts(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Sale("C1", "A", "North", "B1", week1, 1, 10.10),
		testutil.Sale("C1", "B", "North", "B1", week1, 1, 20.20),
		testutil.Sale("C2", "A", "South", "B2", week1, 1, 0.1),
		testutil.Sale("", "C", "South", "", week1, 1, 0.2),
	}
	k := newEngine(t).Compute(context.Background(), txs).KPIMetrics

	assert.Equal(t, 30.6, k.TotalSales)
	assert.Equal(t, 3, k.TotalProducts)
	assert.Equal(t, 2, k.TotalStockists)
	assert.Equal(t, 2, k.TotalOrders)
}

func TestGrowingItems(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Sale("C1", "A", "North", "B1", week1, 1, 10),
		testutil.Sale("C1", "B", "North", "B1", week1, 1, 20),
		testutil.Sale("C1", "A", "North", "B2", week2, 1, 20),
		testutil.Sale("C1", "B", "North", "B2", week2, 1, 10),
		testutil.Sale("C1", "N", "North", "B2", week2, 1, 5),
	}
	g := newEngine(t).Compute(context.Background(), txs).GrowingMedicines

	assert.Equal(t, []string{"A", "N"}, g.Labels)
	assert.Equal(t, []float64{10, 0}, g.PreviousWeekSales)
	assert.Equal(t, []float64{20, 5}, g.LastWeekSales)
}

func TestGrowingItemsNeedsTwoWeeks(t *testing.T) {
	txs := []domain.Transaction{testutil.Sale("C1", "A", "North", "B1", week1, 1, 10)}
	g := newEngine(t).Compute(context.Background(), txs).GrowingMedicines
	assert.Empty(t, g.Labels)
	assert.NotNil(t, g.LastWeekSales)
}

func TestSalesReport(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Sale("C1", "A", "North", "B0", testutil.Date(2023, time.December, 28), 1, 999),
		testutil.Sale("C1", "A", "North", "B1", week1, 1, 1000),
		testutil.Sale("C1", "A", "North", "B2", week2, 1, 500),
		testutil.Sale("C1", "A", "North", "B3", week3, 1, 1500),
		testutil.Sale("C1", "A", "North", "B4", week3, 1, 500),
	}
	r := newEngine(t).Compute(context.Background(), txs).SalesReport

	// Four most recent weeks, oldest first.
	assert.Equal(t, []string{"Dec 25", "Jan 01", "Jan 08", "Jan 15"}, r.Weekly.Labels)
	assert.Equal(t, []float64{999, 1000, 500, 2000}, r.Weekly.Data)
	assert.Equal(t, "₹4.5K", r.Weekly.Title)

	// Only days of the latest month.
	assert.Equal(t, []string{"1", "8", "15"}, r.Monthly.Labels)
	assert.Equal(t, []float64{1000, 500, 2000}, r.Monthly.Data)
	assert.Equal(t, "₹3.5K", r.Monthly.Title)

	assert.Equal(t, []string{"Jan"}, r.Yearly.Labels)
	assert.Equal(t, ColorYearly, r.Yearly.Color)
}

func TestAreaViews(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Sale("C1", "A", "North", "B1", week1, 1, 100),
		testutil.Sale("C2", "B", "North", "B2", week1, 1, 50),
		testutil.Sale("C2", "B", "North", "B2", week1, 1, 25),
		testutil.Sale("C3", "A", "South", "B3", week2, 1, 300),
		testutil.Sale("C3", "A", "", "B4", week2, 1, 1),
	}
	d := newEngine(t).Compute(context.Background(), txs)

	assert.Equal(t, []domain.AreaRevenue{
		{Name: "South", Revenue: 300},
		{Name: "North", Revenue: 175},
		{Name: UnknownArea, Revenue: 1},
	}, d.RevenueByArea)

	north := d.SalesTrendsByArea["North"]
	assert.Equal(t, []string{"2024-W01", "2024-W02"}, north.Labels)
	assert.Equal(t, []float64{175, 0}, north.Data)
	assert.Equal(t, []float64{0, 300}, d.SalesTrendsByArea["South"].Data)

	top := d.TopMedicinesByArea["North"]
	assert.Equal(t, []string{"A", "B"}, top.Labels)
	assert.Equal(t, []float64{100, 75}, top.Data)

	assert.Equal(t, []string{"North", "South", UnknownArea}, d.AreaPerformance.Name)
	assert.Equal(t, []float64{175, 300, 1}, d.AreaPerformance.TotalSales)
	assert.Equal(t, []int{2, 1, 1}, d.AreaPerformance.OrderCount)
}

func TestRankingLimits(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 20; i++ {
		name := string(rune('a' + i))
		tx := testutil.Sale("cust-"+name, "item-"+name, "North", "B"+name, week1, 1, float64(i+1))
		tx.FreeQuantity = int64(i)
		txs = append(txs, tx)
	}
	d := newEngine(t).Compute(context.Background(), txs)

	require.Len(t, d.PrescriberAnalysis.Labels, 15)
	assert.Equal(t, "cust-t", d.PrescriberAnalysis.Labels[0])
	assert.Equal(t, 20.0, d.PrescriberAnalysis.Data[0])

	require.Len(t, d.HighFreeQuantity.Labels, 15)
	assert.Equal(t, "item-t", d.HighFreeQuantity.Labels[0])
	assert.Equal(t, int64(19), d.HighFreeQuantity.Data[0])
	for _, q := range d.HighFreeQuantity.Data {
		assert.Positive(t, q)
	}

	assert.Len(t, d.TopMedicinesByArea["North"].Labels, 10)
}

func TestWeeklyGrowthTrends(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Sale("C1", "A", "North", "B1", week1, 1, 100),
		testutil.Sale("C1", "A", "North", "B2", week2, 1, 150),
		testutil.Sale("C1", "A", "North", "B3", week3, 1, 75),
	}
	s := newEngine(t).Compute(context.Background(), txs).WeeklyGrowthTrends

	assert.Equal(t, []string{"Week 2 vs 1", "Week 3 vs 2"}, s.Labels)
	assert.Equal(t, []float64{50, -50}, s.Data)
}
