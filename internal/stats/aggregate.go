package stats

import (
	"math"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"bet-tracker-bot/internal/model"
)

// precision is the number of decimals kept in a Summary.
const precision = 2

var hundred = decimal.NewFromInt(100)

// Summary is the derived performance record of a set of finished picks.
// It is never stored; every query recomputes it.
type Summary struct {
	Count         int     `json:"count"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	TotalStake    float64 `json:"total_stake"`
	Profit        float64 `json:"profit"`
	ReturnOnStake float64 `json:"return_on_stake"`
	HitRate       float64 `json:"hit_rate"`
	// Flagged counts picks whose stored stake or odds were unusable
	// and were accounted as zero.
	Flagged int `json:"flagged,omitempty"`
}

// accumulator collects totals in exact decimal arithmetic so the result
// does not depend on input order.
type accumulator struct {
	count   int
	wins    int
	losses  int
	flagged int
	stake   decimal.Decimal
	profit  decimal.Decimal
}

func (a *accumulator) summary() Summary {
	s := Summary{
		Count:      a.count,
		Wins:       a.wins,
		Losses:     a.losses,
		Flagged:    a.flagged,
		TotalStake: round(a.stake),
		Profit:     round(a.profit),
	}
	if a.count > 0 {
		rate := decimal.NewFromInt(int64(a.wins)).Mul(hundred).Div(decimal.NewFromInt(int64(a.count)))
		s.HitRate = round(rate)
	}
	if a.stake.IsPositive() {
		s.ReturnOnStake = round(a.profit.Div(a.stake).Mul(hundred))
	}
	return s
}

// Aggregate reduces picks to a Summary.
//
// The caller is responsible for filtering: picks are expected to be the
// finished picks of the target window. Aggregate does not filter by result
// or date; a pick with any result other than win or loss still counts
// towards Count and TotalStake but contributes no profit.
func Aggregate(picks []*model.Pick) Summary {
	var acc accumulator
	acc.addAll(picks)
	return acc.summary()
}

// Merge combines per-user pick sets into a group summary. Totals are
// summed exactly and rounded once, so the result equals Aggregate over
// the concatenated picks. ROI and hit rate come from the summed totals,
// never from averaged percentages.
func Merge(groups ...[]*model.Pick) Summary {
	var acc accumulator
	for _, picks := range groups {
		acc.addAll(picks)
	}
	return acc.summary()
}

func (a *accumulator) addAll(picks []*model.Pick) {
	for _, p := range picks {
		if p == nil {
			continue
		}
		a.count++

		stake, okStake := sanitize(p.Stake)
		odds, okOdds := sanitize(p.Odds)
		if !okStake || !okOdds {
			a.flagged++
			log.Warn().
				Str("pick_id", p.ID).
				Str("user", p.User).
				Float64("stake", p.Stake).
				Float64("odds", p.Odds).
				Msg("Pick has unusable stake or odds, accounting as zero")
		}

		a.stake = a.stake.Add(stake)
		switch p.Result {
		case model.ResultWin:
			a.profit = a.profit.Add(stake.Mul(odds.Sub(decimal.NewFromInt(1))))
			a.wins++
		case model.ResultLoss:
			a.profit = a.profit.Sub(stake)
			a.losses++
		}
	}
}

// AverageReturn is the unweighted mean of per-user ROI. It is reported as
// "average EV" and differs from the ROI of Merge.
func AverageReturn(summaries []Summary) float64 {
	if len(summaries) == 0 {
		return 0
	}
	total := decimal.Zero
	for _, s := range summaries {
		total = total.Add(fromFloat(s.ReturnOnStake))
	}
	return round(total.Div(decimal.NewFromInt(int64(len(summaries)))))
}

// sanitize converts a stored value into a decimal. Non-finite and
// non-positive values are replaced by zero and reported as not ok.
func sanitize(v float64) (decimal.Decimal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

func fromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func round(d decimal.Decimal) float64 {
	return d.Round(precision).InexactFloat64()
}
