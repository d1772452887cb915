package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bet-tracker-bot/internal/model"
	"bet-tracker-bot/internal/pkg/lock"
	"bet-tracker-bot/internal/pkg/metrics"
	"bet-tracker-bot/internal/repository"
)

// Common errors for pick operations.
var (
	ErrMalformedInput = errors.New("malformed pick input")
	ErrInvalidResult  = errors.New("result must be win or loss")
)

const (
	// lockTimeout bounds how long a mutation waits for its key.
	lockTimeout = 5 * time.Second
	// shortIDLockKey serializes allocation and insert of new picks.
	shortIDLockKey = "short_id"
	// insertAttempts covers races with other processes on the same short id.
	insertAttempts = 3
)

// pickInput is the validated form of an /addpick request.
type pickInput struct {
	User  string  `validate:"required,max=64"`
	Odds  float64 `validate:"gt=0"`
	Stake float64 `validate:"gt=0"`
}

// PickService records picks and settles them.
type PickService struct {
	store    PickStore
	ids      ShortIDAllocator
	locks    *lock.KeyLock
	metrics  *metrics.Metrics
	validate *validator.Validate
	now      func() time.Time
}

// NewPickService creates a new PickService instance.
func NewPickService(store PickStore, ids ShortIDAllocator, m *metrics.Metrics) *PickService {
	return &PickService{
		store:    store,
		ids:      ids,
		locks:    lock.NewKeyLock(),
		metrics:  m,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// WithClock replaces the clock used to stamp new picks.
func (s *PickService) WithClock(now func() time.Time) *PickService {
	s.now = now
	return s
}

// AddPick validates and records a new pending pick.
// Input that does not parse or validate fails with ErrMalformedInput and
// nothing is stored.
func (s *PickService) AddPick(ctx context.Context, user, oddsText, stakeText string) (*model.Pick, error) {
	in, err := s.parsePick(user, oddsText, stakeText)
	if err != nil {
		return nil, err
	}

	var pick *model.Pick
	err = s.locks.WithLockContext(ctx, shortIDLockKey, lockTimeout, func() error {
		for attempt := 1; attempt <= insertAttempts; attempt++ {
			shortID, err := s.ids.Allocate(ctx)
			if err != nil {
				return fmt.Errorf("failed to allocate short id: %w", err)
			}

			candidate := &model.Pick{
				ID:        uuid.NewString(),
				ShortID:   shortID,
				User:      in.User,
				Odds:      in.Odds,
				Stake:     in.Stake,
				Result:    model.ResultPending,
				CreatedAt: s.now().UTC(),
			}

			_, err = s.store.Insert(ctx, candidate)
			if errors.Is(err, repository.ErrShortIDTaken) {
				log.Warn().Str("short_id", shortID).Int("attempt", attempt).Msg("Short id taken concurrently, retrying")
				continue
			}
			if err != nil {
				return err
			}
			pick = candidate
			return nil
		}
		return fmt.Errorf("failed to insert pick after %d attempts: %w", insertAttempts, repository.ErrShortIDTaken)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PickCreated()
	log.Info().
		Str("pick_id", pick.ID).
		Str("short_id", pick.ShortID).
		Str("user", pick.User).
		Float64("odds", pick.Odds).
		Float64("stake", pick.Stake).
		Msg("Pick recorded")

	return pick, nil
}

func (s *PickService) parsePick(user, oddsText, stakeText string) (*pickInput, error) {
	odds, err := parseAmount(oddsText)
	if err != nil {
		return nil, fmt.Errorf("%w: odds %q", ErrMalformedInput, oddsText)
	}
	stake, err := parseAmount(stakeText)
	if err != nil {
		return nil, fmt.Errorf("%w: stake %q", ErrMalformedInput, stakeText)
	}

	in := &pickInput{User: strings.TrimSpace(user), Odds: odds, Stake: stake}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return in, nil
}

// parseAmount accepts finite decimal numbers only.
func parseAmount(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", text)
	}
	return v, nil
}

// SetResult settles the pick addressed by identifier, which is either a
// full pick id or the short id of a pending pick.
// Returns true iff exactly one pick matched and its result changed; an
// unknown identifier is (false, nil).
func (s *PickService) SetResult(ctx context.Context, identifier, resultText string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false, fmt.Errorf("%w: empty identifier", ErrMalformedInput)
	}
	result, ok := model.ParseResult(strings.ToLower(strings.TrimSpace(resultText)))
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrInvalidResult, resultText)
	}

	var changed bool
	err := s.locks.WithLockContext(ctx, identifier, lockTimeout, func() error {
		var err error
		changed, err = s.store.UpdateResultByIdentifier(ctx, identifier, result)
		return err
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.metrics.ResultSet(string(result))
		log.Info().Str("identifier", identifier).Str("result", string(result)).Msg("Pick result set")
	}
	return changed, nil
}

// Pending returns open picks, oldest first.
func (s *PickService) Pending(ctx context.Context) ([]*model.Pick, error) {
	return s.store.FindPending(ctx)
}

// Reset deletes every pick and returns how many were removed.
func (s *PickService) Reset(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.locks.WithLockContext(ctx, shortIDLockKey, lockTimeout, func() error {
		var err error
		deleted, err = s.store.DeleteAll(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reset picks: %w", err)
	}

	log.Info().Int64("deleted", deleted).Msg("All picks deleted")
	return deleted, nil
}
