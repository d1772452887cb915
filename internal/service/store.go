// Package service provides business logic implementations.
package service

import (
	"context"
	"time"

	"bet-tracker-bot/internal/model"
)

// PickStore is the record store the services read and write.
// repository.PickRepository is the production implementation.
type PickStore interface {
	Insert(ctx context.Context, pick *model.Pick) (string, error)
	FindPending(ctx context.Context) ([]*model.Pick, error)
	// FindByUserAndWindow returns the user's finished picks created at or
	// after since. A zero since means no lower bound.
	FindByUserAndWindow(ctx context.Context, user string, since time.Time) ([]*model.Pick, error)
	UpdateResultByIdentifier(ctx context.Context, identifier string, result model.Result) (bool, error)
	DistinctUsersWithFinishedRecords(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// ShortIDAllocator hands out short ids for new picks.
type ShortIDAllocator interface {
	Allocate(ctx context.Context) (string, error)
}
