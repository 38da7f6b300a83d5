package rate

import "errors"

var (
	// ErrTooManyAttempts reports a counter past the attempt budget for the window.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrTooManyRequests reports a request inside the cooldown of a previous one.
	ErrTooManyRequests = errors.New("too many requests")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
