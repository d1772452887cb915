// Package shortid allocates the two-digit handles admins use to settle
// pending picks from chat.
package shortid

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Space is the number of distinct short ids.
const Space = 100

// DefaultCounterName names the sequence shared by all pick short ids.
const DefaultCounterName = "pick_short_id"

// ErrExhausted is returned when every short id is held by a pending pick.
var ErrExhausted = errors.New("no free short id")

// Counter yields a monotonically increasing sequence starting at 1.
type Counter interface {
	Next(ctx context.Context) (int64, error)
}

// InUseChecker reports whether a pending pick already holds a short id.
type InUseChecker interface {
	ShortIDInUse(ctx context.Context, shortID string) (bool, error)
}

// PostgresCounter keeps the sequence in the counters table.
type PostgresCounter struct {
	pool *pgxpool.Pool
	name string
}

// NewPostgresCounter creates a counter backed by the counters table.
func NewPostgresCounter(pool *pgxpool.Pool, name string) *PostgresCounter {
	return &PostgresCounter{pool: pool, name: name}
}

// Next increments and returns the sequence in a single statement.
func (c *PostgresCounter) Next(ctx context.Context) (int64, error) {
	const query = `
		INSERT INTO counters (name, seq) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq
	`

	var seq int64
	if err := c.pool.QueryRow(ctx, query, c.name).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", c.name, err)
	}
	return seq, nil
}

// RedisCounter keeps the sequence in a Redis key.
type RedisCounter struct {
	client *redis.Client
	key    string
}

// NewRedisCounter creates a counter backed by INCR on key.
func NewRedisCounter(client *redis.Client, key string) *RedisCounter {
	return &RedisCounter{client: client, key: "bettracker:counter:" + key}
}

// Next increments and returns the sequence.
func (c *RedisCounter) Next(ctx context.Context) (int64, error) {
	seq, err := c.client.Incr(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", c.key, err)
	}
	return seq, nil
}

// Allocator hands out short ids not currently held by a pending pick.
type Allocator struct {
	counter Counter
	inUse   InUseChecker
}

// NewAllocator creates a new Allocator.
func NewAllocator(counter Counter, inUse InUseChecker) *Allocator {
	return &Allocator{counter: counter, inUse: inUse}
}

// Format renders a sequence value as a two-digit short id.
func Format(seq int64) string {
	n := (seq - 1) % Space
	if n < 0 {
		n += Space
	}
	return fmt.Sprintf("%02d", n)
}

// Allocate returns the next free short id, skipping ids still held by
// pending picks. It gives up with ErrExhausted after Space attempts.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < Space; attempt++ {
		seq, err := a.counter.Next(ctx)
		if err != nil {
			return "", err
		}

		id := Format(seq)
		taken, err := a.inUse.ShortIDInUse(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}

		log.Debug().Str("short_id", id).Msg("Short id held by pending pick, skipping")
	}

	return "", ErrExhausted
}
