// Package analytics turns canonical transactions into the dashboard
// payload: KPIs, period summaries, per-area breakdowns and rankings.
//
// Money is summed with shopspring/decimal and rounded only when a value
// leaves the package, so totals do not drift with the number of rows.
// Weeks are ISO weeks starting on Monday.
package analytics
