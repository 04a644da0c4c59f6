package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/indikaara/storefront/pkg/errors"

	"github.com/indikaara/storefront/internal/domain"
)

// pendingRefKeyPrefix is deliberately distinct from the cart key prefix: the
// two values must survive and expire independently.
const pendingRefKeyPrefix = "pending_order:"

// PendingRefRepository implements repository.PendingRefRepository using Redis.
type PendingRefRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPendingRefRepository creates a new Redis-backed pending-order reference
// repository.
func NewPendingRefRepository(client *redis.Client, ttl time.Duration) *PendingRefRepository {
	return &PendingRefRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves the user's pending-order reference.
func (r *PendingRefRepository) Get(ctx context.Context, userID string) (*domain.PendingOrderRef, error) {
	key := pendingRefKeyPrefix + userID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("pending order reference", userID)
		}
		return nil, fmt.Errorf("redis get pending ref: %w", err)
	}

	var ref domain.PendingOrderRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("unmarshal pending ref: %w", err)
	}

	return &ref, nil
}

// Save persists the reference with the configured TTL, replacing any previous
// one.
func (r *PendingRefRepository) Save(ctx context.Context, userID string, ref *domain.PendingOrderRef) error {
	key := pendingRefKeyPrefix + userID

	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshal pending ref: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set pending ref: %w", err)
	}

	return nil
}

// Delete removes the user's pending-order reference.
func (r *PendingRefRepository) Delete(ctx context.Context, userID string) error {
	key := pendingRefKeyPrefix + userID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del pending ref: %w", err)
	}

	return nil
}
