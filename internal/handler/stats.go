package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"bet-tracker-bot/internal/service"
	"bet-tracker-bot/internal/stats"
)

// Leaderboard button callbacks.
const (
	CallbackLeaderboardWeek  = "lb_week"
	CallbackLeaderboardMonth = "lb_month"
	CallbackLeaderboardLife  = "lb_life"
)

const (
	usageStats       = "⚠️ Usage: /stats <user|all> [daily|weekly|monthly|lifetime]"
	usageLeaderboard = "⚠️ Usage: /leaderboard [weekly|monthly|lifetime]"
	noFinishedPicks  = "📉 No finished picks yet."
	statsFailed      = "❌ Could not compute stats, please try again later"
	unknownButton    = "⚠️ Unknown button."
	noPermission     = "🚫 No permission."
)

var leaderboardCallbacks = map[string]stats.Period{
	CallbackLeaderboardWeek:  stats.PeriodWeekly,
	CallbackLeaderboardMonth: stats.PeriodMonthly,
	CallbackLeaderboardLife:  stats.PeriodLifetime,
}

// StatsHandler handles the reporting commands.
type StatsHandler struct {
	stats   *service.StatsService
	isAdmin func(int64) bool
	loc     *time.Location
	size    int
	now     func() time.Time
}

// NewStatsHandler creates a new StatsHandler. Labels and stamps are
// rendered in loc; leaderboards show at most size rows. Leaderboard
// buttons are honored only for senders isAdmin accepts.
func NewStatsHandler(statsService *service.StatsService, isAdmin func(int64) bool, loc *time.Location, size int) *StatsHandler {
	if loc == nil {
		loc = time.UTC
	}
	if size <= 0 {
		size = stats.DefaultLeaderboardSize
	}
	return &StatsHandler{
		stats:   statsService,
		isAdmin: isAdmin,
		loc:     loc,
		size:    size,
		now:     time.Now,
	}
}

// HandleStats handles the /stats command.
// Format: /stats <user|all> [daily|weekly|monthly|lifetime]
func (h *StatsHandler) HandleStats(c tele.Context) error {
	ctx := context.Background()

	args := c.Args()
	if len(args) == 0 {
		return c.Reply("📊 To get all your usage data at once, type: /stats all")
	}
	if len(args) > 2 {
		return c.Reply(usageStats)
	}

	target := args[0]
	all := strings.EqualFold(target, "all")

	if len(args) == 1 {
		if all {
			breakdowns, group, err := h.stats.ComputeBreakdown(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to compute breakdown")
				return c.Reply(statsFailed)
			}
			return c.Reply(FormatBreakdown(breakdowns, group, h.now(), h.loc), tele.ModeHTML)
		}
		return h.replyUserBreakdown(ctx, c, target)
	}

	period, err := stats.ParsePeriod(args[1])
	if err != nil {
		return c.Reply(usageStats)
	}

	if all {
		breakdowns, _, err := h.stats.ComputeBreakdown(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to compute breakdown")
			return c.Reply(statsFailed)
		}
		return c.Reply(FormatPeriodForAll(breakdowns, period), tele.ModeHTML)
	}

	summary, err := h.stats.ComputeSummary(ctx, target, period)
	if err != nil {
		log.Error().Err(err).Str("user", target).Msg("Failed to compute summary")
		return c.Reply(statsFailed)
	}
	return c.Reply(fmt.Sprintf("📊 Stats for <b>%s</b> (%s):\n%s",
		esc(target), period.Label(), dashLine(period.Label(), summary)), tele.ModeHTML)
}

func (h *StatsHandler) replyUserBreakdown(ctx context.Context, c tele.Context, user string) error {
	periods := make(map[stats.Period]stats.Summary, 4)
	for _, p := range stats.AllPeriods() {
		summary, err := h.stats.ComputeSummary(ctx, user, p)
		if err != nil {
			log.Error().Err(err).Str("user", user).Msg("Failed to compute summary")
			return c.Reply(statsFailed)
		}
		periods[p] = summary
	}
	if periods[stats.PeriodLifetime].Count == 0 {
		return c.Reply(fmt.Sprintf("📉 No finished picks for <b>%s</b> yet.", esc(user)), tele.ModeHTML)
	}
	return c.Reply(userSection(user, periods), tele.ModeHTML)
}

// HandleLeaderboard handles the /leaderboard command.
// Format: /leaderboard [weekly|monthly|lifetime]
func (h *StatsHandler) HandleLeaderboard(c tele.Context) error {
	period := stats.PeriodWeekly
	if args := c.Args(); len(args) > 0 {
		p, err := stats.ParsePeriod(args[0])
		if err != nil || p == stats.PeriodDaily {
			return c.Reply(usageLeaderboard)
		}
		period = p
	}

	text, markup, err := h.renderLeaderboard(context.Background(), period)
	if err != nil {
		return c.Reply(statsFailed)
	}
	if markup == nil {
		return c.Reply(text)
	}
	return c.Reply(text, markup, tele.ModeHTML)
}

// HandleLeaderboardCallback switches an existing leaderboard message to
// the period named by the button. The message is left untouched for
// non-admins and unknown buttons.
func (h *StatsHandler) HandleLeaderboardCallback(c tele.Context, unique string) error {
	sender := c.Sender()
	if sender == nil || !h.isAdmin(sender.ID) {
		return c.Respond(&tele.CallbackResponse{Text: noPermission, ShowAlert: true})
	}

	period, ok := leaderboardCallbacks[unique]
	if !ok {
		log.Warn().Str("unique", unique).Int64("user_id", sender.ID).Msg("Unknown leaderboard button")
		return c.Respond(&tele.CallbackResponse{Text: unknownButton, ShowAlert: true})
	}

	text, markup, err := h.renderLeaderboard(context.Background(), period)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: statsFailed})
	}
	if markup == nil {
		_ = c.Edit(text)
	} else {
		_ = c.Edit(text, markup, tele.ModeHTML)
	}
	return c.Respond()
}

func (h *StatsHandler) renderLeaderboard(ctx context.Context, period stats.Period) (string, *tele.ReplyMarkup, error) {
	entries, err := h.stats.ComputeLeaderboard(ctx, period, h.size)
	if err != nil {
		log.Error().Err(err).Str("period", string(period)).Msg("Failed to compute leaderboard")
		return "", nil, err
	}
	if len(entries) == 0 {
		return noFinishedPicks, nil, nil
	}
	return FormatLeaderboard(entries, period, h.now(), h.loc), leaderboardMarkup(period), nil
}

// HandleSummary handles the /summary command.
func (h *StatsHandler) HandleSummary(c tele.Context) error {
	ov, err := h.stats.ComputeOverview(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute overview")
		return c.Reply(statsFailed)
	}
	if len(ov.Members) == 0 {
		return c.Reply(noFinishedPicks)
	}
	return c.Reply(FormatOverview(ov, h.now(), h.loc), tele.ModeHTML)
}

// leaderboardMarkup offers the two periods not currently shown.
func leaderboardMarkup(current stats.Period) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	week := markup.Data("📅 Weekly", CallbackLeaderboardWeek)
	month := markup.Data("📆 Monthly", CallbackLeaderboardMonth)
	life := markup.Data("🏅 Lifetime", CallbackLeaderboardLife)

	switch current {
	case stats.PeriodWeekly:
		markup.Inline(markup.Row(month, life))
	case stats.PeriodMonthly:
		markup.Inline(markup.Row(week, life))
	default:
		markup.Inline(markup.Row(week, month))
	}
	return markup
}

// LeaderboardTitle returns the heading for a leaderboard period.
func LeaderboardTitle(period stats.Period, now time.Time, loc *time.Location) string {
	local := now.In(loc)
	switch period {
	case stats.PeriodWeekly:
		week, span := WeekMeta(local)
		return fmt.Sprintf("📊 LEADERBOARD - %s (%s)", week, span)
	case stats.PeriodMonthly:
		return "📊 LEADERBOARD - " + local.Format("January 2006")
	case stats.PeriodDaily:
		return "📊 LEADERBOARD - " + local.Format("Jan 02 2006")
	}
	return "📊 LEADERBOARD - LIFETIME"
}

// FormatLeaderboard renders the leaderboard table.
func FormatLeaderboard(entries []service.LeaderboardEntry, period stats.Period, now time.Time, loc *time.Location) string {
	medals := []string{"🥇", "🥈", "🥉"}

	var sb strings.Builder
	sb.WriteString(LeaderboardTitle(period, now, loc))
	sb.WriteString("\n")
	sb.WriteString(UpdatedStamp(now, loc))
	sb.WriteString("\n<pre>")
	sb.WriteString("Rank Bettor        P/L    ROI%  Pk  W-L   Streak\n")
	for _, e := range entries {
		medal := "  "
		if e.Position <= len(medals) {
			medal = medals[e.Position-1]
		}
		wl := fmt.Sprintf("%d-%d", e.Summary.Wins, e.Summary.Losses)
		sb.WriteString(fmt.Sprintf("%s %-10s %8s %+7.1f%%  %3d  %-5s %s\n",
			medal, esc(e.User), Money(e.Summary.Profit), e.Summary.ReturnOnStake,
			e.Summary.Count, wl, StreakText(e.Streak)))
	}
	sb.WriteString("</pre>")
	return sb.String()
}

// FormatPeriodForAll renders one period line per user.
func FormatPeriodForAll(breakdowns []service.UserBreakdown, period stats.Period) string {
	if len(breakdowns) == 0 {
		return noFinishedPicks
	}
	sections := make([]string, 0, len(breakdowns))
	for _, b := range breakdowns {
		sections = append(sections, fmt.Sprintf("👤 <b>%s</b>\n%s",
			esc(b.User), dashLine(period.Label(), b.Periods[period])))
	}
	return strings.Join(sections, "\n\n")
}

// FormatBreakdown renders the comprehensive per-user view with the group
// summary on top.
func FormatBreakdown(breakdowns []service.UserBreakdown, group stats.Summary, now time.Time, loc *time.Location) string {
	lines := []string{
		"🔋 <b>EV TRACKER - COMPREHENSIVE STATS</b>",
		"/stats all",
		"",
		"<b>🏆 GROUP SUMMARY</b>",
		fmt.Sprintf("✅ <b>Net Profit</b>: %s", Money(group.Profit)),
		fmt.Sprintf("📊 <b>Total Picks</b>: %d", group.Count),
		fmt.Sprintf("📈 <b>Win Rate</b>: %.0f%% (%dW-%dL)", group.HitRate, group.Wins, group.Losses),
		fmt.Sprintf("🕰️ <b>Avg ROI</b>: %+.1f%%", group.ReturnOnStake),
		"",
		"<b>🧾 INDIVIDUAL BREAKDOWN</b>",
		"",
	}
	if len(breakdowns) == 0 {
		lines = append(lines, noFinishedPicks, "")
	}
	for _, b := range breakdowns {
		lines = append(lines, userSection(b.User, b.Periods), "")
	}
	lines = append(lines, "<i>"+UpdatedStamp(now, loc)+"</i>")
	return strings.Join(lines, "\n")
}

// FormatOverview renders the group overview.
func FormatOverview(ov *service.Overview, now time.Time, loc *time.Location) string {
	g := ov.Group
	lines := []string{
		"🔋 <b>EV TRACKER - GROUP SUMMARY</b>",
		"",
		"<b>📊 CORE METRICS</b>",
		fmt.Sprintf("✅ <b>Net Profit</b>: %s", Money(g.Profit)),
		fmt.Sprintf("📈 <b>Win Rate</b>: %.0f%% (%dW-%dL)", g.HitRate, g.Wins, g.Losses),
		fmt.Sprintf("🧠 <b>Avg EV</b>: %.2f", ov.AverageEV),
		fmt.Sprintf("💰 <b>Avg ROI</b>: %+.1f%%", g.ReturnOnStake),
		fmt.Sprintf("🎯 <b>Total Picks</b>: %d", g.Count),
	}

	if ov.TopEarner != nil {
		lines = append(lines,
			"",
			"<b>🏅 PERFORMANCE HIGHLIGHTS</b>",
			fmt.Sprintf("🥇 <b>Top Earner</b>: %s (%s)", esc(ov.TopEarner.User), Money(ov.TopEarner.Summary.Profit)),
			fmt.Sprintf("📉 <b>Biggest Drawdown</b>: %s (%s)", esc(ov.BiggestDrawdown.User), Money(ov.BiggestDrawdown.Summary.Profit)),
			fmt.Sprintf("⚡ <b>Value King</b>: %s (%.2f EV)", esc(ov.ValueKing.User), ov.ValueKing.Summary.ReturnOnStake),
		)
	}

	lines = append(lines, "", "<b>👥 MEMBER PERFORMANCE (Lifetime)</b>")
	for _, m := range ov.Members {
		lines = append(lines, fmt.Sprintf("%s » %s %s | ⚖️%.2f EV",
			esc(m.User), trendIcon(m.Summary.Profit), Money(m.Summary.Profit), m.Summary.ReturnOnStake))
	}

	lines = append(lines, "", "<i>"+UpdatedStamp(now, loc)+" | /stats all for details</i>")
	return strings.Join(lines, "\n")
}
