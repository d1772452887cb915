// Package model defines the data models for the bet tracker bot.
package model

import "time"

// Result is the outcome of a pick.
type Result string

// Pick results. A pick starts pending and is settled as a win or a loss.
const (
	ResultPending Result = "pending"
	ResultWin     Result = "win"
	ResultLoss    Result = "loss"
)

// IsFinished reports whether the result is a terminal outcome.
func (r Result) IsFinished() bool {
	return r == ResultWin || r == ResultLoss
}

// ParseResult converts user input into a terminal result.
// Only "win" and "loss" are accepted; pending cannot be set by hand.
func ParseResult(s string) (Result, bool) {
	switch Result(s) {
	case ResultWin, ResultLoss:
		return Result(s), true
	}
	return "", false
}

// Pick represents one tracked wager.
// ID is a UUID assigned at creation; ShortID is the two-digit handle
// admins type in chat while the pick is pending.
type Pick struct {
	ID        string    `db:"id" json:"id"`
	ShortID   string    `db:"short_id" json:"short_id"`
	User      string    `db:"username" json:"user"`
	Odds      float64   `db:"odds" json:"odds"`
	Stake     float64   `db:"stake" json:"stake"`
	Result    Result    `db:"result" json:"result"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
