package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"bet-tracker-bot/internal/model"
	"bet-tracker-bot/internal/pkg/metrics"
	"bet-tracker-bot/internal/stats"
)

// LeaderboardEntry is one leaderboard row.
type LeaderboardEntry struct {
	Position int           `json:"position"`
	User     string        `json:"user"`
	Summary  stats.Summary `json:"summary"`
	Streak   stats.Streak  `json:"streak"`
}

// UserBreakdown holds one user's summaries for every period.
type UserBreakdown struct {
	User    string                         `json:"user"`
	Periods map[stats.Period]stats.Summary `json:"periods"`
}

// Overview is the lifetime group view: totals, highlights and members.
// Highlights are nil when nobody has finished picks.
type Overview struct {
	Group           stats.Summary  `json:"group"`
	AverageEV       float64        `json:"average_ev"`
	TopEarner       *stats.Ranked  `json:"top_earner,omitempty"`
	BiggestDrawdown *stats.Ranked  `json:"biggest_drawdown,omitempty"`
	ValueKing       *stats.Ranked  `json:"value_king,omitempty"`
	Members         []stats.Ranked `json:"members"`
}

// StatsService computes summaries and rankings from the record store.
type StatsService struct {
	store   PickStore
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(store PickStore, m *metrics.Metrics) *StatsService {
	return &StatsService{
		store:   store,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the clock used to resolve windows.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// ComputeSummary aggregates one user's finished picks in the period.
func (s *StatsService) ComputeSummary(ctx context.Context, user string, period stats.Period) (stats.Summary, error) {
	since, err := stats.WindowStart(s.now(), period)
	if err != nil {
		return stats.Summary{}, err
	}

	picks, err := s.store.FindByUserAndWindow(ctx, user, since)
	if err != nil {
		return stats.Summary{}, fmt.Errorf("failed to load picks for %s: %w", user, err)
	}

	summary := stats.Aggregate(picks)
	s.metrics.Aggregated(string(period), summary.Flagged)
	return summary, nil
}

// ComputeGroupSummary merges every user's picks for the period into one
// summary.
func (s *StatsService) ComputeGroupSummary(ctx context.Context, period stats.Period) (stats.Summary, error) {
	window, err := s.loadWindow(ctx, period)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Merge(window.pickGroups()...), nil
}

// ComputeLeaderboard ranks users by profit for the period. Users without
// finished picks in the window are omitted. topN <= 0 returns every user.
func (s *StatsService) ComputeLeaderboard(ctx context.Context, period stats.Period, topN int) ([]LeaderboardEntry, error) {
	window, err := s.loadWindow(ctx, period)
	if err != nil {
		return nil, err
	}

	return window.entries(stats.MetricProfit, stats.OrderDesc, topN), nil
}

// ComputeRanking ranks users for the period by metric in the given order.
func (s *StatsService) ComputeRanking(ctx context.Context, period stats.Period, metric stats.Metric, order stats.Order, topN int) ([]LeaderboardEntry, error) {
	window, err := s.loadWindow(ctx, period)
	if err != nil {
		return nil, err
	}
	return window.entries(metric, order, topN), nil
}

func (w *window) entries(metric stats.Metric, order stats.Order, topN int) []LeaderboardEntry {
	ranked := stats.Top(stats.Rank(w.summaries, metric, order), topN)

	entries := make([]LeaderboardEntry, 0, len(ranked))
	for _, r := range ranked {
		entries = append(entries, LeaderboardEntry{
			Position: r.Position,
			User:     r.User,
			Summary:  r.Summary,
			Streak:   stats.ComputeStreak(w.picks[r.User]),
		})
	}
	return entries
}

// ComputeBreakdown returns every user's summaries across all periods
// together with the lifetime group summary.
func (s *StatsService) ComputeBreakdown(ctx context.Context) ([]UserBreakdown, stats.Summary, error) {
	lifetime, err := s.loadWindow(ctx, stats.PeriodLifetime)
	if err != nil {
		return nil, stats.Summary{}, err
	}

	breakdowns := make([]UserBreakdown, 0, len(lifetime.users))
	for _, user := range lifetime.users {
		b := UserBreakdown{User: user, Periods: make(map[stats.Period]stats.Summary, 4)}
		for _, p := range stats.AllPeriods() {
			if p == stats.PeriodLifetime {
				b.Periods[p] = lifetime.summaries[user]
				continue
			}
			summary, err := s.ComputeSummary(ctx, user, p)
			if err != nil {
				return nil, stats.Summary{}, err
			}
			b.Periods[p] = summary
		}
		breakdowns = append(breakdowns, b)
	}

	return breakdowns, stats.Merge(lifetime.pickGroups()...), nil
}

// ComputeOverview builds the lifetime group overview.
func (s *StatsService) ComputeOverview(ctx context.Context) (*Overview, error) {
	window, err := s.loadWindow(ctx, stats.PeriodLifetime)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		Group:     stats.Merge(window.pickGroups()...),
		AverageEV: stats.AverageReturn(window.summaryList()),
		Members:   stats.Rank(window.summaries, stats.MetricProfit, stats.OrderDesc),
	}
	if len(ov.Members) == 0 {
		return ov, nil
	}

	top := ov.Members[0]
	ov.TopEarner = &top
	drawdown := stats.Rank(window.summaries, stats.MetricProfit, stats.OrderAsc)[0]
	ov.BiggestDrawdown = &drawdown
	king := stats.Rank(window.summaries, stats.MetricEV, stats.OrderDesc)[0]
	ov.ValueKing = &king

	return ov, nil
}

// window is the per-user snapshot of one period.
type window struct {
	users     []string
	summaries map[string]stats.Summary
	picks     map[string][]*model.Pick
}

func (w *window) summaryList() []stats.Summary {
	list := make([]stats.Summary, 0, len(w.users))
	for _, u := range w.users {
		list = append(list, w.summaries[u])
	}
	return list
}

func (w *window) pickGroups() [][]*model.Pick {
	groups := make([][]*model.Pick, 0, len(w.users))
	for _, u := range w.users {
		groups = append(groups, w.picks[u])
	}
	return groups
}

func (s *StatsService) loadWindow(ctx context.Context, period stats.Period) (*window, error) {
	since, err := stats.WindowStart(s.now(), period)
	if err != nil {
		return nil, err
	}

	users, err := s.store.DistinctUsersWithFinishedRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	w := &window{
		summaries: make(map[string]stats.Summary, len(users)),
		picks:     make(map[string][]*model.Pick, len(users)),
	}
	flagged := 0
	for _, user := range users {
		picks, err := s.store.FindByUserAndWindow(ctx, user, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load picks for %s: %w", user, err)
		}
		if len(picks) == 0 {
			continue
		}
		summary := stats.Aggregate(picks)
		flagged += summary.Flagged

		w.users = append(w.users, user)
		w.summaries[user] = summary
		w.picks[user] = picks
	}

	s.metrics.Aggregated(string(period), flagged)
	log.Debug().
		Str("period", string(period)).
		Int("users", len(w.users)).
		Time("since", since).
		Msg("Window loaded")

	return w, nil
}
