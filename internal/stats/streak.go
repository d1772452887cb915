package stats

import (
	"sort"

	"bet-tracker-bot/internal/model"
)

// Streak is the most recent run of identical outcomes for a user.
// A zero Length means there is no streak.
type Streak struct {
	Length int          `json:"length"`
	Kind   model.Result `json:"kind,omitempty"`
}

// None reports whether the streak is the neutral marker.
func (s Streak) None() bool {
	return s.Length == 0
}

// ComputeStreak scans picks from newest to oldest while outcomes repeat.
// The scan stops at the first pending pick or the first differing outcome.
// Picks created at the same instant are ordered by id.
func ComputeStreak(picks []*model.Pick) Streak {
	sorted := make([]*model.Pick, 0, len(picks))
	for _, p := range picks {
		if p != nil {
			sorted = append(sorted, p)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var streak Streak
	for _, p := range sorted {
		if !p.Result.IsFinished() {
			break
		}
		if streak.Length == 0 {
			streak.Kind = p.Result
		} else if p.Result != streak.Kind {
			break
		}
		streak.Length++
	}
	if streak.Length == 0 {
		return Streak{}
	}
	return streak
}
