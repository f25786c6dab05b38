package trustdb

import "errors"

var (
	// ErrPoolLimitReached is returned when building a new trust pool would
	// exceed the configured maximum. Transient: capacity frees up when an
	// idle pool is evicted, or an operator raises the limit.
	ErrPoolLimitReached = errors.New("trust pool limit reached")

	// ErrConnectionFailed wraps network or authentication failures while
	// building a trust pool. The failed entry is removed, so a later
	// acquire is free to retry; the manager itself never retries.
	ErrConnectionFailed = errors.New("failed to connect to trust database")

	// ErrManagerClosed is returned by acquires after Shutdown.
	ErrManagerClosed = errors.New("trust pool manager is closed")
)
