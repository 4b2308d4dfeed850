package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
)

type activityRepository struct {
	store map[string]domain.BalanceActivity
	lock  *sync.RWMutex
}

// NewActivityRepository returns a volatile, in-process activity store. It is
// the store of choice in tests.
func NewActivityRepository() ports.ActivityRepository {
	return &activityRepository{
		store: make(map[string]domain.BalanceActivity),
		lock:  &sync.RWMutex{},
	}
}

func (r *activityRepository) AddActivity(
	_ context.Context, activity domain.BalanceActivity,
) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := activityKey(activity)
	if _, ok := r.store[key]; ok {
		return false, nil
	}
	r.store[key] = activity
	return true, nil
}

func (r *activityRepository) GetActivities(
	_ context.Context, address, fromSequence, toSequence string,
) ([]domain.BalanceActivity, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	activities := make([]domain.BalanceActivity, 0)
	for _, activity := range r.store {
		if activity.Address != address {
			continue
		}
		if fromSequence != "" && activity.ActivitySequence < fromSequence {
			continue
		}
		if toSequence != "" && activity.ActivitySequence > toSequence {
			continue
		}
		activities = append(activities, activity)
	}
	sort.Slice(activities, func(i, j int) bool {
		return activities[i].ActivitySequence < activities[j].ActivitySequence
	})
	return activities, nil
}

func (r *activityRepository) Close() error {
	return nil
}

func activityKey(activity domain.BalanceActivity) string {
	return activity.ExternalID + "." + activity.ActivitySequence
}
