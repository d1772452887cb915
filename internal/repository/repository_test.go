// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"bet-tracker-bot/internal/model"
	"bet-tracker-bot/internal/pkg/db"
	"bet-tracker-bot/internal/pkg/shortid"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container, applies the embedded
// migrations and returns a connection pool.
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.MigrateUp(connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func newPick(shortID, user string, odds, stake float64, result model.Result, at time.Time) *model.Pick {
	return &model.Pick{
		ID:        uuid.NewString(),
		ShortID:   shortID,
		User:      user,
		Odds:      odds,
		Stake:     stake,
		Result:    result,
		CreatedAt: at,
	}
}

func TestPickRepository_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPickRepository(pool)
	ctx := context.Background()

	at := time.Date(2024, 3, 12, 15, 4, 5, 0, time.UTC)
	pick := newPick("00", "alice", 2.5, 10, model.ResultPending, at)

	id, err := repo.Insert(ctx, pick)
	require.NoError(t, err)
	assert.Equal(t, pick.ID, id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "00", got.ShortID)
	assert.Equal(t, "alice", got.User)
	assert.Equal(t, 2.5, got.Odds)
	assert.Equal(t, 10.0, got.Stake)
	assert.Equal(t, model.ResultPending, got.Result)
	assert.True(t, at.Equal(got.CreatedAt))

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrPickNotFound)
}

func TestPickRepository_InsertShortIDTaken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPickRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.Insert(ctx, newPick("07", "alice", 2, 10, model.ResultPending, now))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, newPick("07", "bob", 2, 10, model.ResultPending, now))
	assert.ErrorIs(t, err, ErrShortIDTaken)

	// Finished picks do not hold their short id.
	_, err = repo.Insert(ctx, newPick("08", "bob", 2, 10, model.ResultWin, now))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newPick("08", "carol", 2, 10, model.ResultPending, now))
	assert.NoError(t, err)
}

func TestPickRepository_FindPending(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPickRepository(pool)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, _ = repo.Insert(ctx, newPick("01", "bob", 2, 10, model.ResultPending, base.Add(2*time.Hour)))
	_, _ = repo.Insert(ctx, newPick("00", "alice", 2, 10, model.ResultPending, base.Add(time.Hour)))
	_, _ = repo.Insert(ctx, newPick("02", "alice", 2, 10, model.ResultLoss, base))

	pending, err := repo.FindPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Oldest first
	assert.Equal(t, "00", pending[0].ShortID)
	assert.Equal(t, "01", pending[1].ShortID)
}

func TestPickRepository_FindByUserAndWindow(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPickRepository(pool)
	ctx := context.Background()
	since := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	_, _ = repo.Insert(ctx, newPick("00", "alice", 2, 10, model.ResultWin, since.Add(-time.Second)))
	_, _ = repo.Insert(ctx, newPick("01", "alice", 2, 10, model.ResultWin, since))
	_, _ = repo.Insert(ctx, newPick("02", "alice", 3, 5, model.ResultLoss, since.Add(time.Hour)))
	_, _ = repo.Insert(ctx, newPick("03", "alice", 3, 5, model.ResultPending, since.Add(time.Hour)))
	_, _ = repo.Insert(ctx, newPick("04", "bob", 3, 5, model.ResultWin, since.Add(time.Hour)))

	picks, err := repo.FindByUserAndWindow(ctx, "alice", since)
	require.NoError(t, err)
	require.Len(t, picks, 2)

	// Newest first, boundary inclusive, pending excluded
	assert.Equal(t, "02", picks[0].ShortID)
	assert.Equal(t, "01", picks[1].ShortID)

	all, err := repo.FindByUserAndWindow(ctx, "alice", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPickRepository_UpdateResultByIdentifier(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPickRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	pick := newPick("05", "alice", 2, 10, model.ResultPending, now)
	_, err := repo.Insert(ctx, pick)
	require.NoError(t, err)

	changed, err := repo.UpdateResultByIdentifier(ctx, "05", model.ResultWin)
	require.NoError(t, err)
	assert.True(t, changed)

	// Short id no longer addresses the settled pick.
	changed, err = repo.UpdateResultByIdentifier(ctx, "05", model.ResultLoss)
	require.NoError(t, err)
	assert.False(t, changed)

	// Same value again through the full id is not a change.
	changed, err = repo.UpdateResultByIdentifier(ctx, pick.ID, model.ResultWin)
	require.NoError(t, err)
	assert.False(t, changed)

	// Correction through the full id.
	changed, err = repo.UpdateResultByIdentifier(ctx, pick.ID, model.ResultLoss)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := repo.GetByID(ctx, pick.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResultLoss, got.Result)

	changed, err = repo.UpdateResultByIdentifier(ctx, uuid.NewString(), model.ResultWin)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.UpdateResultByIdentifier(ctx, "99", model.ResultWin)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestPickRepository_DistinctUsersWithFinishedRecords(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPickRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	_, _ = repo.Insert(ctx, newPick("00", "carol", 2, 10, model.ResultWin, now))
	_, _ = repo.Insert(ctx, newPick("01", "alice", 2, 10, model.ResultLoss, now))
	_, _ = repo.Insert(ctx, newPick("02", "alice", 2, 10, model.ResultWin, now))
	_, _ = repo.Insert(ctx, newPick("03", "dave", 2, 10, model.ResultPending, now))

	users, err := repo.DistinctUsersWithFinishedRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, users)
}

func TestPickRepository_ShortIDInUseAndDeleteAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPickRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	_, _ = repo.Insert(ctx, newPick("11", "alice", 2, 10, model.ResultPending, now))
	_, _ = repo.Insert(ctx, newPick("12", "alice", 2, 10, model.ResultWin, now))

	inUse, err := repo.ShortIDInUse(ctx, "11")
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = repo.ShortIDInUse(ctx, "12")
	require.NoError(t, err)
	assert.False(t, inUse)

	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	pending, err := repo.FindPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPostgresCounter_WithAllocator(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPickRepository(pool)
	counter := shortid.NewPostgresCounter(pool, shortid.DefaultCounterName)
	ctx := context.Background()

	seq, err := counter.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	_, err = repo.Insert(ctx, newPick("01", "alice", 2, 10, model.ResultPending, time.Now().UTC()))
	require.NoError(t, err)

	alloc := shortid.NewAllocator(counter, repo)
	id, err := alloc.Allocate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "02", id)
}
