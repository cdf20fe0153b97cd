package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/hakwonplus/hakwon-api/utils/cache"
)

// memoryCounter is an in-memory counterStore for quota tests
type memoryCounter struct {
	counts  map[string]int64
	expires map[string]time.Duration
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: make(map[string]int64), expires: make(map[string]time.Duration)}
}

func (m *memoryCounter) Incr(ctx context.Context, key string) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryCounter) Expire(ctx context.Context, key string, expiration time.Duration) error {
	m.expires[key] = expiration
	return nil
}

func (m *memoryCounter) Get(ctx context.Context, key string) (string, error) {
	n, ok := m.counts[key]
	if !ok {
		return "", cache.ErrNotFound
	}
	return strconv.FormatInt(n, 10), nil
}

func quotaClock(day int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 10, day, 9, 0, 0, 0, time.UTC)
	}
}

func TestQuotaConsumeUnderAndOverLimit(t *testing.T) {
	store := newMemoryCounter()
	q := newQuotaService(store, 3, quotaClock(15))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := q.Consume(ctx)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("consume %d should be allowed", i)
		}
	}

	ok, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("fourth consume should exceed the limit")
	}

	// TTL set exactly once, on the first increment
	if ttl, found := store.expires["ai_quota:2025-10-15"]; !found || ttl != quotaKeyTTL {
		t.Errorf("expected TTL %v on the counter key, got %v (found=%v)", quotaKeyTTL, ttl, found)
	}
}

func TestQuotaKeyRollsOverByDate(t *testing.T) {
	store := newMemoryCounter()
	ctx := context.Background()

	day1 := newQuotaService(store, 1, quotaClock(15))
	if ok, _ := day1.Consume(ctx); !ok {
		t.Fatal("first consume should pass")
	}
	if ok, _ := day1.Consume(ctx); ok {
		t.Fatal("limit of 1 should block the second consume")
	}

	// Same store, next day: fresh counter
	day2 := newQuotaService(store, 1, quotaClock(16))
	if ok, _ := day2.Consume(ctx); !ok {
		t.Error("a new day should reset the quota")
	}
	if _, found := store.counts["ai_quota:2025-10-16"]; !found {
		t.Error("counter key should carry the new date")
	}
}

func TestQuotaRemaining(t *testing.T) {
	store := newMemoryCounter()
	q := newQuotaService(store, 5, quotaClock(15))
	ctx := context.Background()

	remaining, err := q.Remaining(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining != 5 {
		t.Errorf("untouched quota remaining = %d, want 5", remaining)
	}

	for i := 0; i < 7; i++ {
		q.Consume(ctx)
	}

	remaining, err = q.Remaining(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining != 0 {
		t.Errorf("overdrawn quota should clamp to 0, got %d", remaining)
	}
}

func TestQuotaWithoutStoreAlwaysAllows(t *testing.T) {
	q := newQuotaService(nil, 2, quotaClock(15))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		ok, err := q.Consume(ctx)
		if err != nil || !ok {
			t.Fatalf("storeless quota must always allow, got ok=%v err=%v", ok, err)
		}
	}
	if remaining, _ := q.Remaining(ctx); remaining != 2 {
		t.Errorf("storeless remaining should report the full limit, got %d", remaining)
	}
	if q.Limit() != 2 {
		t.Errorf("limit = %d, want 2", q.Limit())
	}
}
