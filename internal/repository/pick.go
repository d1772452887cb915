// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bet-tracker-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrPickNotFound = errors.New("pick not found")
	// ErrShortIDTaken is returned by Insert when another pending pick
	// already holds the short id.
	ErrShortIDTaken = errors.New("short id already in use")
)

const uniqueViolation = "23505"

const pickColumns = `id::text, short_id, username, odds, stake, result, created_at`

// PickRepository handles pick persistence in PostgreSQL.
type PickRepository struct {
	pool *pgxpool.Pool
}

// NewPickRepository creates a new PickRepository instance.
func NewPickRepository(pool *pgxpool.Pool) *PickRepository {
	return &PickRepository{pool: pool}
}

// Insert stores a new pick and returns its id.
func (r *PickRepository) Insert(ctx context.Context, pick *model.Pick) (string, error) {
	id, err := uuid.Parse(pick.ID)
	if err != nil {
		return "", fmt.Errorf("invalid pick id %q: %w", pick.ID, err)
	}

	const query = `
		INSERT INTO picks (id, short_id, username, odds, stake, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text
	`

	var inserted string
	err = r.pool.QueryRow(ctx, query,
		id, pick.ShortID, pick.User, pick.Odds, pick.Stake, string(pick.Result), pick.CreatedAt,
	).Scan(&inserted)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", ErrShortIDTaken
		}
		return "", fmt.Errorf("failed to insert pick: %w", err)
	}

	return inserted, nil
}

// GetByID retrieves a pick by its full id.
// Returns ErrPickNotFound if the pick does not exist.
func (r *PickRepository) GetByID(ctx context.Context, id string) (*model.Pick, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrPickNotFound
	}

	query := `SELECT ` + pickColumns + ` FROM picks WHERE id = $1`

	pick, err := scanPick(r.pool.QueryRow(ctx, query, parsed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPickNotFound
		}
		return nil, fmt.Errorf("failed to get pick: %w", err)
	}
	return pick, nil
}

// FindPending retrieves all open picks, oldest first.
func (r *PickRepository) FindPending(ctx context.Context) ([]*model.Pick, error) {
	query := `
		SELECT ` + pickColumns + `
		FROM picks
		WHERE result = 'pending'
		ORDER BY created_at ASC, short_id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending picks: %w", err)
	}
	return collectPicks(rows)
}

// FindByUserAndWindow retrieves a user's finished picks created at or
// after since, newest first. A zero since returns the whole history.
func (r *PickRepository) FindByUserAndWindow(ctx context.Context, user string, since time.Time) ([]*model.Pick, error) {
	query := `
		SELECT ` + pickColumns + `
		FROM picks
		WHERE username = $1
		  AND result <> 'pending'
		  AND created_at >= $2
		ORDER BY created_at DESC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, user, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get picks for user: %w", err)
	}
	return collectPicks(rows)
}

// UpdateResultByIdentifier settles a pick. The identifier is either a full
// pick id, which may also correct an already settled pick, or a short id,
// which only addresses the pending pick holding it.
// Returns true iff exactly one pick matched and its result changed.
func (r *PickRepository) UpdateResultByIdentifier(ctx context.Context, identifier string, result model.Result) (bool, error) {
	var (
		tag pgconn.CommandTag
		err error
	)

	if id, parseErr := uuid.Parse(identifier); parseErr == nil {
		const query = `
			UPDATE picks
			SET result = $2
			WHERE id = $1 AND result <> $2
		`
		tag, err = r.pool.Exec(ctx, query, id, string(result))
	} else {
		const query = `
			UPDATE picks
			SET result = $2
			WHERE short_id = $1 AND result = 'pending'
		`
		tag, err = r.pool.Exec(ctx, query, identifier, string(result))
	}
	if err != nil {
		return false, fmt.Errorf("failed to update pick result: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DistinctUsersWithFinishedRecords returns every user with at least one
// finished pick, sorted ascending.
func (r *PickRepository) DistinctUsersWithFinishedRecords(ctx context.Context) ([]string, error) {
	const query = `
		SELECT DISTINCT username
		FROM picks
		WHERE result <> 'pending'
		ORDER BY username
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// ShortIDInUse reports whether a pending pick holds the short id.
func (r *PickRepository) ShortIDInUse(ctx context.Context, shortID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM picks WHERE short_id = $1 AND result = 'pending')`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, shortID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check short id: %w", err)
	}
	return exists, nil
}

// DeleteAll removes every pick and returns how many were deleted.
func (r *PickRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM picks`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete picks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanPick(row pgx.Row) (*model.Pick, error) {
	var (
		pick   model.Pick
		result string
	)
	err := row.Scan(
		&pick.ID,
		&pick.ShortID,
		&pick.User,
		&pick.Odds,
		&pick.Stake,
		&result,
		&pick.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	pick.Result = model.Result(result)
	pick.CreatedAt = pick.CreatedAt.UTC()
	return &pick, nil
}

func collectPicks(rows pgx.Rows) ([]*model.Pick, error) {
	defer rows.Close()

	var picks []*model.Pick
	for rows.Next() {
		pick, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, pick)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating picks: %w", err)
	}

	return picks, nil
}
