package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders a rupee amount as a short chart title.
func FormatCurrency(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("₹%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("₹%.1fK", v/1_000)
	default:
		return fmt.Sprintf("₹%.0f", v)
	}
}

func round(d decimal.Decimal, places int32) float64 {
	f, _ := d.Round(places).Float64()
	return f
}

func round2(d decimal.Decimal) float64 { return round(d, 2) }

// totals accumulates decimal sums per label.
type totals map[string]decimal.Decimal

func (t totals) add(label string, v decimal.Decimal) {
	t[label] = t[label].Add(v)
}

type entry struct {
	label string
	value decimal.Decimal
}

// ranked returns up to limit entries by descending value, ties broken by
// label. limit <= 0 returns everything.
func (t totals) ranked(limit int) []entry {
	out := make([]entry, 0, len(t))
	for label, v := range t {
		out = append(out, entry{label: label, value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].value.Cmp(out[j].value); c != 0 {
			return c > 0
		}
		return out[i].label < out[j].label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// growth is the percentage change from prev to cur. A zero base reports
// 100 when anything was sold afterwards.
func growth(prev, cur decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		if cur.IsPositive() {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
}
