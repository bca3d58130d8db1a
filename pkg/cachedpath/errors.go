package cachedpath

import "errors"

// Sentinel errors returned (wrapped with fmt.Errorf("...: %w", Err*)) by the
// cache. Use errors.Is to test for a particular kind.
var (
	// ErrResourceNotFound is returned when a local path is missing, or a
	// remote probe reports 404.
	ErrResourceNotFound = errors.New("cachedpath: resource not found")

	// ErrNoCachedVersion is returned in offline mode when no matching
	// entry exists in the cache.
	ErrNoCachedVersion = errors.New("cachedpath: no cached version available")

	// ErrHTTP is returned for a non-retryable HTTP status, or after
	// retries are exhausted.
	ErrHTTP = errors.New("cachedpath: http error")

	// ErrHTTPTimeout is returned when the HTTP client's connect or read
	// timeout elapses.
	ErrHTTPTimeout = errors.New("cachedpath: http timeout")

	// ErrIO wraps an unexpected filesystem failure.
	ErrIO = errors.New("cachedpath: io error")

	// ErrCacheFileFormat is returned when a meta file is present but
	// cannot be parsed.
	ErrCacheFileFormat = errors.New("cachedpath: malformed cache meta file")

	// ErrExtraction is returned for an unknown archive format, a corrupt
	// archive, or a path-traversal attempt within an archive.
	ErrExtraction = errors.New("cachedpath: extraction error")

	// ErrInvalidURL is returned when an identifier looks remote but
	// cannot be parsed as a URL.
	ErrInvalidURL = errors.New("cachedpath: invalid url")
)
