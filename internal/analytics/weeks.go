package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

// weekStart returns the Monday of t's ISO week.
func weekStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// weekLabel formats an ISO week as "2024-W05".
func weekLabel(monday time.Time) string {
	year, week := monday.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// weekly holds value sums per ISO week in chronological order.
type weekly struct {
	starts []time.Time
	values map[time.Time]decimal.Decimal
}

func weeklyTotals(txs []domain.Transaction) weekly {
	w := weekly{values: make(map[time.Time]decimal.Decimal)}
	for _, tx := range txs {
		start := weekStart(tx.Date)
		if _, ok := w.values[start]; !ok {
			w.starts = append(w.starts, start)
		}
		w.values[start] = w.values[start].Add(decimal.NewFromFloat(tx.Value))
	}
	sort.Slice(w.starts, func(i, j int) bool { return w.starts[i].Before(w.starts[j]) })
	return w
}

func (w weekly) len() int { return len(w.starts) }

// at returns the total of the i-th week; negative indexes count from the end.
func (w weekly) at(i int) decimal.Decimal {
	if i < 0 {
		i += len(w.starts)
	}
	return w.values[w.starts[i]]
}
