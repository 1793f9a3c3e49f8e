package redisx

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// KEYS[1] = key
// ARGV[1] = now_ms
// ARGV[2] = window_ms
// ARGV[3] = limit
// ARGV[4] = member (unique)
const luaSlidingWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
redis.call('ZADD', key, 'NX', now, member)
local count = redis.call('ZCARD', key)
redis.call('PEXPIRE', key, window)

if count > limit then
  local earliest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local earliestScore = tonumber(earliest[2]) or (now - window)
  local retry_ms = window - (now - earliestScore)
  if retry_ms < 0 then retry_ms = 0 end
  return {0, count, retry_ms}
end
return {1, count, 0}
`

// SlidingWindowLimiter allows at most limit hits per key within any window.
type SlidingWindowLimiter struct {
	rdb    redis.UniversalClient
	scope  string
	limit  int
	window time.Duration
	script *redis.Script
	seq    atomic.Uint64
	now    func() time.Time
}

func NewSlidingWindowLimiter(rdb redis.UniversalClient, scope string, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		rdb:    rdb,
		scope:  scope,
		limit:  limit,
		window: window,
		script: redis.NewScript(luaSlidingWindow),
		now:    time.Now,
	}
}

type Decision struct {
	Allowed    bool
	Current    int64
	RetryAfter time.Duration
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, id string) (Decision, error) {
	now := l.now()
	nowMs := now.UnixMilli()
	member := fmt.Sprintf("%d-%d", now.UnixNano(), l.seq.Add(1))

	res, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{RateLimitKey(l.scope, id)},
		nowMs, l.window.Milliseconds(), l.limit, member,
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", l.scope, err)
	}

	arr, ok := res.([]any)
	if !ok || len(arr) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: bad script result: %v", l.scope, res)
	}

	return Decision{
		Allowed:    toInt(arr[0]) == 1,
		Current:    toInt(arr[1]),
		RetryAfter: time.Duration(toInt(arr[2])) * time.Millisecond,
	}, nil
}

func toInt(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
