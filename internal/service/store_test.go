package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bet-tracker-bot/internal/model"
	"bet-tracker-bot/internal/pkg/shortid"
	"bet-tracker-bot/internal/repository"
)

// memStore is an in-memory PickStore with the same matching rules as the
// Postgres repository.
type memStore struct {
	mu    sync.Mutex
	picks []*model.Pick
}

func newMemStore(picks ...*model.Pick) *memStore {
	return &memStore{picks: picks}
}

func (m *memStore) Insert(_ context.Context, pick *model.Pick) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pick.Result == model.ResultPending {
		for _, p := range m.picks {
			if p.ShortID == pick.ShortID && p.Result == model.ResultPending {
				return "", repository.ErrShortIDTaken
			}
		}
	}
	cp := *pick
	m.picks = append(m.picks, &cp)
	return pick.ID, nil
}

func (m *memStore) FindPending(context.Context) ([]*model.Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Pick
	for _, p := range m.picks {
		if p.Result == model.ResultPending {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) FindByUserAndWindow(_ context.Context, user string, since time.Time) ([]*model.Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Pick
	for _, p := range m.picks {
		if p.User == user && p.Result != model.ResultPending && !p.CreatedAt.Before(since) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateResultByIdentifier(_ context.Context, identifier string, result model.Result) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, parseErr := uuid.Parse(identifier)
	byID := parseErr == nil

	var matched *model.Pick
	for _, p := range m.picks {
		if byID && p.ID == identifier && p.Result != result {
			matched = p
			break
		}
		if !byID && p.ShortID == identifier && p.Result == model.ResultPending {
			matched = p
			break
		}
	}
	if matched == nil {
		return false, nil
	}
	matched.Result = result
	return true, nil
}

func (m *memStore) DistinctUsersWithFinishedRecords(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]bool{}
	var users []string
	for _, p := range m.picks {
		if p.Result != model.ResultPending && !seen[p.User] {
			seen[p.User] = true
			users = append(users, p.User)
		}
	}
	sort.Strings(users)
	return users, nil
}

func (m *memStore) DeleteAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.picks))
	m.picks = nil
	return n, nil
}

func (m *memStore) ShortIDInUse(_ context.Context, shortID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.picks {
		if p.ShortID == shortID && p.Result == model.ResultPending {
			return true, nil
		}
	}
	return false, nil
}

type seqCounter struct {
	mu  sync.Mutex
	seq int64
}

func (c *seqCounter) Next(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq, nil
}

func newAllocator(store *memStore) *shortid.Allocator {
	return shortid.NewAllocator(&seqCounter{}, store)
}

func finished(user string, odds, stake float64, result model.Result, at time.Time) *model.Pick {
	return &model.Pick{
		ID:        uuid.NewString(),
		User:      user,
		Odds:      odds,
		Stake:     stake,
		Result:    result,
		CreatedAt: at,
	}
}
