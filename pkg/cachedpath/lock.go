package cachedpath

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// lockGuard represents an exclusively held per-entry lock. Release must be
// called exactly once, on every exit path from the critical section,
// including panics — callers use `defer guard.Release()`.
type lockGuard interface {
	Release() error
}

// acquireExclusive blocks until it holds an exclusive, cross-process lock
// on the sidecar file named path. On Unix the lock file is created if
// absent and is never deleted by the cache; the non-Unix fallback creates
// it exclusively and removes it again on Release.
func acquireExclusive(path string) (lockGuard, error) {
	return platformAcquireExclusive(path)
}

// coalescer lets in-process callers resolving the same entry key share one
// call to fn: a caller that arrives while a call for that key is in flight
// waits for it and receives its result, without touching the file lock. A
// caller arriving after the call has finished starts a new one. This is a
// pure optimization: the file lock remains the cross-process source of
// truth, but a thundering herd of goroutines in a single process pays for
// far fewer syscall-level lock acquisitions than one per goroutine.
type coalescer struct {
	group singleflight.Group
}

func newCoalescer() *coalescer {
	return &coalescer{}
}

func (c *coalescer) do(key string, fn func() (string, error)) (string, error) {
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return "", err
	}
	path, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: coalescer: unexpected result type", ErrIO)
	}
	return path, nil
}
