package data

import (
	"context"
	"errors"
	"time"
)

var (
	ErrGoalNotFound        = errors.New("goal record not found")
	ErrDuplicateGoal       = errors.New("duplicate goal")
	ErrFailedToGetCurrency = errors.New("currency not found in cache")
)

const DefaultStoreContextTimeout = 5 * time.Second

// ContextGenerator derives a deadline context for outgoing store operations.
func ContextGenerator(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}
