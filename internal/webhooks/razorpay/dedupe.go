package razorpay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkgredis "github.com/univlive/univlive-backend/pkg/redis"
)

// Gateway redelivers on any non-2xx for up to a day; keep markers past that.
const dedupeTTL = 48 * time.Hour

// DedupeGuard short-circuits redelivered webhook events using the gateway's
// event id. The database merge writes are idempotent on their own; the guard
// just saves the work (and the log noise) on exact replays.
type DedupeGuard struct {
	store pkgredis.IdempotencyStore
}

// NewDedupeGuard builds the redis-backed guard.
func NewDedupeGuard(store pkgredis.IdempotencyStore) (*DedupeGuard, error) {
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	return &DedupeGuard{store: store}, nil
}

// CheckAndMark returns true when the event id is fresh, claiming it
// atomically. A redis outage reports the event as fresh; a duplicate write is
// safe, a dropped event is not.
func (g *DedupeGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	key := g.store.IdempotencyKey("webhook:razorpay", eventID)
	fresh, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), dedupeTTL)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return true, err
	}
	return fresh, nil
}

// Release drops the marker so a failed event can be retried by redelivery.
func (g *DedupeGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	return g.store.Del(ctx, g.store.IdempotencyKey("webhook:razorpay", eventID))
}
