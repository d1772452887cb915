package handler

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"bet-tracker-bot/internal/model"
	"bet-tracker-bot/internal/stats"
)

// Money renders a signed amount: whole values without decimals ($+10),
// anything else with one decimal ($-2.5).
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$?"
	}
	if v == math.Trunc(v) {
		return fmt.Sprintf("$%+d", int64(v))
	}
	return fmt.Sprintf("$%+.1f", v)
}

// WeekMeta returns the ISO week label and the Monday to Sunday range of
// the week containing now, e.g. ("WEEK 11", "Mar 11 – Mar 17").
func WeekMeta(now time.Time) (string, string) {
	offset := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 6)
	_, week := now.ISOWeek()
	return fmt.Sprintf("WEEK %d", week), fmt.Sprintf("%s – %s", monday.Format("Jan 02"), sunday.Format("Jan 02"))
}

// UpdatedStamp renders the footer timestamp in the display zone.
func UpdatedStamp(now time.Time, loc *time.Location) string {
	return "⌚ Updated: " + now.In(loc).Format("2006-01-02 – 03:04 PM")
}

// StreakText renders a streak as 🔥3W, ✔️1W or ❌2L, and a dash when there is none.
func StreakText(s stats.Streak) string {
	if s.None() {
		return "—"
	}
	switch {
	case s.Kind == model.ResultWin && s.Length > 1:
		return fmt.Sprintf("🔥%dW", s.Length)
	case s.Kind == model.ResultWin:
		return fmt.Sprintf("✔️%dW", s.Length)
	default:
		return fmt.Sprintf("❌%dL", s.Length)
	}
}

func picksWord(n int) string {
	if n == 1 {
		return "pick"
	}
	return "picks"
}

func profitIcon(profit float64) string {
	switch {
	case profit > 0:
		return "✅"
	case profit < 0:
		return "❌"
	}
	return "➖"
}

func trendIcon(profit float64) string {
	if profit > 0 {
		return "📈"
	}
	return "📉"
}

// dashLine is the one-line period view: ➤ Today: $+120 | 3 picks | 📈 +23.4%
func dashLine(label string, s stats.Summary) string {
	return fmt.Sprintf("➤ %s: %s | %d %s | 📈 %+.1f%%",
		label, Money(s.Profit), s.Count, picksWord(s.Count), s.ReturnOnStake)
}

// periodLine is one branch of the per-user breakdown tree.
func periodLine(label string, s stats.Summary) string {
	return fmt.Sprintf("├─ %s: %s | %d %s | %s %+.1f%%",
		label, Money(s.Profit), s.Count, picksWord(s.Count), profitIcon(s.Profit), s.ReturnOnStake)
}

// userSection renders one user's breakdown across all periods.
func userSection(user string, periods map[stats.Period]stats.Summary) string {
	life := periods[stats.PeriodLifetime]
	lines := []string{
		fmt.Sprintf("<b>%s</b> » %s %s (Lifetime)", esc(user), trendIcon(life.Profit), Money(life.Profit)),
		periodLine("Today", periods[stats.PeriodDaily]),
		periodLine("Week", periods[stats.PeriodWeekly]),
		periodLine("Month", periods[stats.PeriodMonthly]),
		fmt.Sprintf("└─ Lifetime: %s | %d %s | %.2f EV", Money(life.Profit), life.Count, picksWord(life.Count), life.ReturnOnStake),
	}
	return strings.Join(lines, "\n")
}

func esc(s string) string {
	return html.EscapeString(s)
}
