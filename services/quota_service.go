package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/hakwonplus/hakwon-api/utils/cache"
)

// counterStore is the slice of the cache the quota service needs.
// *cache.RedisCache satisfies it.
type counterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// quotaKeyTTL keeps yesterday's counter around briefly for inspection, then
// lets Redis reap it.
const quotaKeyTTL = 48 * time.Hour

// QuotaService enforces the per-day cap on AI-backed analysis calls.
// The counter lives in Redis under a date-stamped key, so it survives
// restarts and resets itself at midnight.
type QuotaService struct {
	store counterStore
	limit int
	now   func() time.Time
}

// NewQuotaService creates a quota service with the given daily limit
func NewQuotaService(store *cache.RedisCache, limit int) *QuotaService {
	// A nil *RedisCache must stay a nil interface, not a typed nil
	if store == nil {
		return newQuotaService(nil, limit, time.Now)
	}
	return newQuotaService(store, limit, time.Now)
}

func newQuotaService(store counterStore, limit int, now func() time.Time) *QuotaService {
	return &QuotaService{store: store, limit: limit, now: now}
}

func (q *QuotaService) key() string {
	return "ai_quota:" + q.now().Format("2006-01-02")
}

// Consume takes one unit of today's quota. It returns false when the cap is
// already reached; the caller then degrades to the non-AI path.
func (q *QuotaService) Consume(ctx context.Context) (bool, error) {
	if q.store == nil {
		// No Redis means no enforcement; allow but make it visible
		log.Printf("QuotaService: no counter store configured, allowing AI call")
		return true, nil
	}

	key := q.key()
	n, err := q.store.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to increment quota counter: %w", err)
	}
	if n == 1 {
		if err := q.store.Expire(ctx, key, quotaKeyTTL); err != nil {
			log.Printf("QuotaService: failed to set TTL on %s: %v", key, err)
		}
	}
	if n > int64(q.limit) {
		return false, nil
	}
	return true, nil
}

// Remaining reports how many AI calls are left today
func (q *QuotaService) Remaining(ctx context.Context) (int, error) {
	if q.store == nil {
		return q.limit, nil
	}

	val, err := q.store.Get(ctx, q.key())
	if errors.Is(err, cache.ErrNotFound) {
		return q.limit, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}

	used, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("quota counter %q is not a number: %w", val, err)
	}

	remaining := q.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Limit returns the configured daily cap
func (q *QuotaService) Limit() int {
	return q.limit
}
