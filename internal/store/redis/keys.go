package redis

const (
	// KeyPrefixWindow is the prefix for rate limit window counters
	KeyPrefixWindow = "notice:ratelimit:"
)

// WindowKey returns the Redis key holding the hit counter for a client address
func WindowKey(addr string) string {
	return KeyPrefixWindow + addr
}
