// internal/pool/capacity.go
package pool

import (
	"context"
	"fmt"

	"rental-pool/internal/common/logger"
)

// CapacityTracker keeps landlord contract counts and availability in step as
// contracts are signed and released.
type CapacityTracker struct {
	repo   Repository
	cache  Cache
	logger logger.Logger
}

func NewCapacityTracker(repo Repository, cache Cache, log logger.Logger) *CapacityTracker {
	return &CapacityTracker{
		repo:   repo,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"component": "capacity-tracker"}),
	}
}

// UpdateCapacity adjusts a landlord's active contract count by one in the
// given direction. Counter, availability flag and last-active timestamp move
// in a single statement, so concurrent updates cannot observe a half-applied
// state. An unknown landlord is logged and ignored.
func (t *CapacityTracker) UpdateCapacity(ctx context.Context, landlordID string, increment bool) error {
	found, err := t.repo.AdjustLandlordCapacity(ctx, landlordID, increment)
	if err != nil {
		return fmt.Errorf("update capacity for landlord %s: %w", landlordID, err)
	}
	if !found {
		t.logger.Warn("capacity update for unknown landlord ignored", map[string]interface{}{
			"landlordId": landlordID,
			"increment":  increment,
		})
		return nil
	}

	t.cache.DeleteByPrefix(ctx, landlordCachePrefix(landlordID))

	t.logger.Info("landlord capacity updated", map[string]interface{}{
		"landlordId": landlordID,
		"increment":  increment,
	})
	return nil
}
