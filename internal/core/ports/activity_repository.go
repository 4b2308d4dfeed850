package ports

import (
	"context"

	"github.com/armagg/coin-payments/internal/core/domain"
)

// ActivityRepository is the abstraction for any kind of store persisting the
// balance activities emitted by the engine, keyed by
// (externalId, activitySequence) so that re-scans are idempotent.
type ActivityRepository interface {
	// AddActivity records the given activity. It returns false when an
	// activity with the same key was already recorded.
	AddActivity(ctx context.Context, activity domain.BalanceActivity) (bool, error)
	// GetActivities returns the recorded activities of an address whose
	// sequence falls in [fromSequence, toSequence], in sequence order. Empty
	// bounds mean unbounded.
	GetActivities(
		ctx context.Context, address, fromSequence, toSequence string,
	) ([]domain.BalanceActivity, error)
	// Close closes the connection with the underlying store.
	Close() error
}
