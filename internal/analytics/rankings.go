package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

func revenueByArea(txs []domain.Transaction) []domain.AreaRevenue {
	byArea := make(totals)
	for _, tx := range txs {
		byArea.add(areaOf(tx), value(tx))
	}
	out := make([]domain.AreaRevenue, 0, len(byArea))
	for _, e := range byArea.ranked(0) {
		out = append(out, domain.AreaRevenue{Name: e.label, Revenue: round2(e.value)})
	}
	return out
}

// salesTrendsByArea puts every area on the same week axis, zero filling
// weeks in which an area sold nothing.
func salesTrendsByArea(txs []domain.Transaction) map[string]domain.Series {
	type cell struct {
		area  string
		start string
	}
	sums := make(map[cell]decimal.Decimal)
	areas := make(map[string]struct{})
	for _, tx := range txs {
		area := areaOf(tx)
		areas[area] = struct{}{}
		c := cell{area: area, start: weekLabel(weekStart(tx.Date))}
		sums[c] = sums[c].Add(value(tx))
	}

	labels := weeklyTotals(txs).labels()
	out := make(map[string]domain.Series, len(areas))
	for area := range areas {
		s := domain.Series{Labels: labels, Data: make([]float64, len(labels))}
		for i, label := range labels {
			s.Data[i] = round2(sums[cell{area: area, start: label}])
		}
		out[area] = s
	}
	return out
}

func (w weekly) labels() []string {
	out := make([]string, len(w.starts))
	for i, start := range w.starts {
		out[i] = weekLabel(start)
	}
	return out
}

func (e *Engine) topItemsByArea(txs []domain.Transaction) map[string]domain.Series {
	byArea := make(map[string]totals)
	for _, tx := range txs {
		area := areaOf(tx)
		if byArea[area] == nil {
			byArea[area] = make(totals)
		}
		byArea[area].add(tx.ItemName, value(tx))
	}

	out := make(map[string]domain.Series, len(byArea))
	for area, items := range byArea {
		out[area] = series(items.ranked(e.cfg.TopItemsPerArea))
	}
	return out
}

// growingItems lists items whose latest week beat the week before, by
// latest week value.
func (e *Engine) growingItems(txs []domain.Transaction, weeks weekly) domain.GrowingItems {
	g := domain.GrowingItems{
		Labels:            []string{},
		PreviousWeekSales: []float64{},
		LastWeekSales:     []float64{},
	}
	if weeks.len() < 2 {
		return g
	}

	prevWeek, lastWeek := weeks.starts[weeks.len()-2], weeks.starts[weeks.len()-1]
	prev, last := make(totals), make(totals)
	for _, tx := range txs {
		switch weekStart(tx.Date) {
		case prevWeek:
			prev.add(tx.ItemName, value(tx))
		case lastWeek:
			last.add(tx.ItemName, value(tx))
		}
	}

	growing := make(totals)
	for item, v := range last {
		if v.GreaterThan(prev[item]) {
			growing[item] = v
		}
	}
	for _, it := range growing.ranked(e.cfg.TopGrowing) {
		g.Labels = append(g.Labels, it.label)
		g.PreviousWeekSales = append(g.PreviousWeekSales, round2(prev[it.label]))
		g.LastWeekSales = append(g.LastWeekSales, round2(it.value))
	}
	return g
}

func (e *Engine) topCustomers(txs []domain.Transaction) domain.Series {
	customers := make(totals)
	for _, tx := range txs {
		customers.add(tx.CustomerName, value(tx))
	}
	return series(customers.ranked(e.cfg.TopCustomers))
}

func (e *Engine) topFreeItems(txs []domain.Transaction) domain.QuantitySeries {
	free := make(map[string]int64)
	for _, tx := range txs {
		free[tx.ItemName] += tx.FreeQuantity
	}

	type item struct {
		name string
		qty  int64
	}
	items := make([]item, 0, len(free))
	for name, qty := range free {
		if qty > 0 {
			items = append(items, item{name: name, qty: qty})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].qty != items[j].qty {
			return items[i].qty > items[j].qty
		}
		return items[i].name < items[j].name
	})
	if len(items) > e.cfg.TopFreeItems {
		items = items[:e.cfg.TopFreeItems]
	}

	out := domain.QuantitySeries{Labels: []string{}, Data: []int64{}}
	for _, it := range items {
		out.Labels = append(out.Labels, it.name)
		out.Data = append(out.Data, it.qty)
	}
	return out
}

// areaPerformance lists areas alphabetically with value and distinct bills.
func areaPerformance(txs []domain.Transaction) domain.AreaPerformance {
	sales := make(totals)
	bills := make(map[string]map[string]struct{})
	for _, tx := range txs {
		area := areaOf(tx)
		sales.add(area, value(tx))
		if bills[area] == nil {
			bills[area] = make(map[string]struct{})
		}
		if tx.BillNo != "" {
			bills[area][tx.BillNo] = struct{}{}
		}
	}

	names := make([]string, 0, len(sales))
	for area := range sales {
		names = append(names, area)
	}
	sort.Strings(names)

	p := domain.AreaPerformance{
		Name:       names,
		TotalSales: make([]float64, len(names)),
		OrderCount: make([]int, len(names)),
	}
	for i, area := range names {
		p.TotalSales[i] = round2(sales[area])
		p.OrderCount[i] = len(bills[area])
	}
	return p
}

func series(entries []entry) domain.Series {
	s := domain.NewSeries()
	for _, it := range entries {
		s.Labels = append(s.Labels, it.label)
		s.Data = append(s.Data, round2(it.value))
	}
	return s
}
