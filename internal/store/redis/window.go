package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/notice/internal/ratelimit"
)

// hitScript increments the counter and starts its TTL on the first hit of a
// window, atomically. Returns {count, pttl}.
var hitScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// WindowStore shares rate limit windows between instances through Redis.
// Expired windows disappear with their key TTL.
type WindowStore struct {
	client redis.Scripter
}

var _ ratelimit.Store = (*WindowStore)(nil)

// NewWindowStore creates a window store on top of a connected client
func NewWindowStore(client redis.Scripter) *WindowStore {
	return &WindowStore{client: client}
}

// Hit implements ratelimit.Store
func (s *WindowStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (ratelimit.Window, error) {
	res, err := hitScript.Run(ctx, s.client, []string{WindowKey(key)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return ratelimit.Window{}, fmt.Errorf("failed to count hit: %w", err)
	}
	if len(res) != 2 {
		return ratelimit.Window{}, fmt.Errorf("unexpected hit script reply: %v", res)
	}

	return ratelimit.Window{
		Count:   int(res[0]),
		ResetAt: now.Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}
