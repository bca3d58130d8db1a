package cachedpath

import "sync"

var (
	defaultCacheOnce sync.Once
	defaultCacheVal  *Cache
	defaultCacheErr  error
)

// defaultCache lazily builds the package-wide Cache used by CachedPath and
// CachedPathWithOptions, with every Builder default left untouched.
func defaultCache() (*Cache, error) {
	defaultCacheOnce.Do(func() {
		defaultCacheVal, defaultCacheErr = NewBuilder().Build()
	})
	return defaultCacheVal, defaultCacheErr
}

// CachedPath resolves identifier — a local path or a remote URL — to a
// stable local filesystem path, using a shared default Cache. See spec
// operation cached_path.
func CachedPath(identifier string) (string, error) {
	c, err := defaultCache()
	if err != nil {
		return "", err
	}
	return c.CachedPath(identifier)
}

// CachedPathWithOptions is CachedPath with Options, using the same shared
// default Cache.
func CachedPathWithOptions(identifier string, opts Options) (string, error) {
	c, err := defaultCache()
	if err != nil {
		return "", err
	}
	return c.CachedPathWithOptions(identifier, opts)
}
