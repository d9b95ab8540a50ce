package telephony

import (
	"context"
	"time"

	"receptionist-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Deduper tracks which provider call ids have already been handled so that
// webhook retries reuse the existing conversation instead of creating a new
// row. Best-effort: callers must treat errors as a cache miss.

type Deduper interface {
	// Claim returns (conversationID, fresh). fresh is true when this is the
	// first sighting of callSid; conversationID is non-empty only when a
	// previous claim recorded it.
	Claim(ctx context.Context, callSid string) (string, bool, error)

	// Record binds callSid to the conversation created for it.
	Record(ctx context.Context, callSid string, conversationID string) error
}

// RedisDeduper claims call ids atomically in Redis with a TTL so leaked keys
// expire on their own. TTL only needs to outlive the provider's retry window.

type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, callSid string) (string, bool, error) {
	return utils.ClaimIdempotencyKey(ctx, d.rdb, dedupKey(callSid), d.ttl)
}

func (d *RedisDeduper) Record(ctx context.Context, callSid, conversationID string) error {
	return utils.RecordIdempotencyValue(ctx, d.rdb, dedupKey(callSid), conversationID, d.ttl)
}

func dedupKey(callSid string) string {
	return "intake:call:" + callSid
}
