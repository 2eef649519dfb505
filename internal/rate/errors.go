package rate

import "errors"

// ErrRateLimited means the window counter is over its maximum.
// ErrRedisUnavailable means the check itself failed; callers decide
// whether to fail open or closed.
var (
	ErrRateLimited      = errors.New("rate limited")
	ErrRedisUnavailable = errors.New("redis unavailable")
)
