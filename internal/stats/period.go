// Package stats implements the betting statistics engine: window
// resolution, per-user aggregation and leaderboard ranking.
//
// Every function in this package is a pure transform over a snapshot of
// picks. Nothing here touches the record store.
package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPeriod is returned for an unrecognized period key.
var ErrInvalidPeriod = errors.New("invalid period")

// Period selects a lookback window.
type Period string

// Supported periods.
const (
	PeriodDaily    Period = "daily"
	PeriodWeekly   Period = "weekly"
	PeriodMonthly  Period = "monthly"
	PeriodLifetime Period = "lifetime"
)

// AllPeriods returns every period in display order.
func AllPeriods() []Period {
	return []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodLifetime}
}

// ParsePeriod converts a user-supplied key into a Period.
// Unknown keys are rejected; there is no fallback period.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// Valid reports whether p is a supported period.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodLifetime:
		return true
	}
	return false
}

// Label returns the human label used in chat output.
func (p Period) Label() string {
	switch p {
	case PeriodDaily:
		return "Today"
	case PeriodWeekly:
		return "This Week"
	case PeriodMonthly:
		return "This Month"
	case PeriodLifetime:
		return "Lifetime"
	}
	return string(p)
}

// WindowStart returns the inclusive lower bound of the window ending at now.
//
// Boundaries are always computed in UTC:
//   - daily:    midnight of the current UTC day
//   - weekly:   now minus exactly seven days
//   - monthly:  the first day of the current UTC month
//   - lifetime: the zero time, i.e. no lower bound
func WindowStart(now time.Time, p Period) (time.Time, error) {
	now = now.UTC()
	switch p {
	case PeriodDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	case PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour), nil
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case PeriodLifetime:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
}
