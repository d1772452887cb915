package stats

import (
	"sort"
	"strings"
)

// DefaultLeaderboardSize is the number of rows shown on a leaderboard.
const DefaultLeaderboardSize = 10

// Metric selects the summary field used as the sort key.
type Metric string

// Ranking metrics.
const (
	MetricProfit Metric = "profit"
	MetricEV     Metric = "ev"
)

// Order is the sort direction of a ranking.
type Order string

// Ranking orders.
const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// ParseMetric converts a query value into a Metric.
func ParseMetric(s string) (Metric, bool) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricProfit, MetricEV:
		return m, true
	}
	return "", false
}

// ParseOrder converts a query value into an Order.
func ParseOrder(s string) (Order, bool) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderDesc, OrderAsc:
		return o, true
	}
	return "", false
}

func (m Metric) value(s Summary) float64 {
	if m == MetricEV {
		return s.ReturnOnStake
	}
	return s.Profit
}

// Ranked is one row of a ranking.
type Ranked struct {
	Position int     `json:"position"`
	User     string  `json:"user"`
	Summary  Summary `json:"summary"`
}

// Rank orders per-user summaries by metric. Equal metric values are
// ordered by user id ascending in both directions, so the output is the
// same on every call for the same input.
func Rank(perUser map[string]Summary, metric Metric, order Order) []Ranked {
	ranked := make([]Ranked, 0, len(perUser))
	for user, s := range perUser {
		ranked = append(ranked, Ranked{User: user, Summary: s})
	}

	sort.Slice(ranked, func(i, j int) bool {
		vi, vj := metric.value(ranked[i].Summary), metric.value(ranked[j].Summary)
		if vi != vj {
			if order == OrderAsc {
				return vi < vj
			}
			return vi > vj
		}
		return ranked[i].User < ranked[j].User
	})

	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}

// Top truncates a ranking to its first n rows. n <= 0 keeps every row.
func Top(ranked []Ranked, n int) []Ranked {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
