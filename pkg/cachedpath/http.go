package cachedpath

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
)

// HTTPDoer is the narrow capability the fetcher consumes. *http.Client
// satisfies it; tests supply an in-memory stub that records call counts to
// verify the fetcher's retry behaviour without touching a socket.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const userAgentTemplate = "cachedpath/%s (+https://gitlab.com/bella.network/cachedpath)"

type fetcher struct {
	client     HTTPDoer
	maxRetries int
	maxBackoff time.Duration
	userAgent  string
	log        Logger
}

func newFetcher(client HTTPDoer, maxRetries int, maxBackoff time.Duration, log Logger) *fetcher {
	return &fetcher{
		client:     client,
		maxRetries: maxRetries,
		maxBackoff: maxBackoff,
		userAgent:  fmt.Sprintf(userAgentTemplate, "1"),
		log:        log,
	}
}

func (f *fetcher) backoff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.MaxInterval = f.maxBackoff
	if eb.InitialInterval > f.maxBackoff {
		eb.InitialInterval = f.maxBackoff
	}
	eb.MaxElapsedTime = 0 // bounded by retry count, not elapsed time
	return backoff.WithMaxRetries(eb, uint64(f.maxRetries))
}

// probeResult is the outcome of a HEAD request.
type probeResult struct {
	status int
	etag   string
}

// probe performs a HEAD request against rawURL. A 404 is a terminal
// ErrResourceNotFound and any other 4xx a terminal ErrHTTP, neither
// retried; a client timeout is a terminal ErrHTTPTimeout; a 5xx or other
// network failure is retried with exponential backoff up to maxRetries,
// after which it also becomes a terminal ErrHTTP.
func (f *fetcher) probe(ctx context.Context, rawURL string) (probeResult, error) {
	var result probeResult

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrInvalidURL, err))
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			if isTimeoutErr(err) {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrHTTPTimeout, err))
			}
			return fmt.Errorf("%w: %v", ErrHTTP, err) // retryable network failure
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %s: 404", ErrResourceNotFound, rawURL))
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("%w: %s: status %d", ErrHTTP, rawURL, resp.StatusCode))
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: %s: status %d", ErrHTTP, rawURL, resp.StatusCode) // retryable
		}

		result = probeResult{status: resp.StatusCode, etag: resp.Header.Get("ETag")}
		return nil
	}

	if err := backoff.Retry(op, f.backoff()); err != nil {
		return probeResult{}, unwrapPermanent(err)
	}

	return result, nil
}

// downloadResult is the outcome of a GET.
type downloadResult struct {
	etag string
	size int64
}

// download streams rawURL's body into tempPath in fixed-size chunks,
// reporting progress through sink if non-nil, and returns the response's
// ETag (if any) and the number of bytes written. It does not retry: a
// download is either a single attempt made once the freshness evaluator
// has already decided a refetch is required, or a caller-level retry of
// the whole cached_path call.
func (f *fetcher) download(ctx context.Context, rawURL, tempPath string, sink ProgressSink) (downloadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return downloadResult{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeoutErr(err) {
			return downloadResult{}, fmt.Errorf("%w: %v", ErrHTTPTimeout, err)
		}
		return downloadResult{}, fmt.Errorf("%w: %v", ErrHTTP, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return downloadResult{}, fmt.Errorf("%w: %s: 404", ErrResourceNotFound, rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return downloadResult{}, fmt.Errorf("%w: %s: status %d", ErrHTTP, rawURL, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(tempPath), 0o755); err != nil {
		return downloadResult{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	if resp.ContentLength > 0 {
		if err := ensureDiskSpace(tempPath, resp.ContentLength); err != nil {
			return downloadResult{}, err
		}
	}

	file, err := os.Create(tempPath)
	if err != nil {
		return downloadResult{}, fmt.Errorf("%w: create temp file: %v", ErrIO, err)
	}

	ok := false
	defer func() {
		file.Close()
		if !ok {
			os.Remove(tempPath)
		}
	}()

	if err := preallocateFile(file, resp.ContentLength); err != nil {
		f.log.Warnf("preallocate %s: %v", tempPath, err)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0 // length unknown
	}
	pw := newProgressWriter(file, total, sink)
	buf := make([]byte, progressChunkSize)
	written, err := io.CopyBuffer(pw, resp.Body, buf)
	if err != nil {
		return downloadResult{}, fmt.Errorf("%w: stream body: %v", ErrIO, err)
	}
	pw.finish()

	if resp.ContentLength > 0 && resp.ContentLength != written {
		return downloadResult{}, fmt.Errorf("%w: incomplete download: expected %d bytes, got %d", ErrIO, resp.ContentLength, written)
	}

	if err := file.Sync(); err != nil {
		return downloadResult{}, fmt.Errorf("%w: sync temp file: %v", ErrIO, err)
	}
	if err := file.Close(); err != nil {
		return downloadResult{}, fmt.Errorf("%w: close temp file: %v", ErrIO, err)
	}

	ok = true
	return downloadResult{etag: resp.Header.Get("ETag"), size: written}, nil
}

func isTimeoutErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// unwrapPermanent unwraps the backoff.Permanent wrapper used to mark
// non-retryable errors so the caller sees the underlying sentinel error.
func unwrapPermanent(err error) error {
	var perr *backoff.PermanentError
	if errors.As(err, &perr) {
		return perr.Err
	}
	return err
}

// defaultHTTPClient builds the http.Client the cache uses when no
// client_builder option is supplied. connectTimeout, if non-zero, bounds
// only the dial phase — not the overall request — matching spec's
// connect_timeout semantics.
func defaultHTTPClient(connectTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConnsPerHost:   7,
			ResponseHeaderTimeout: 5 * time.Minute,
		},
	}
}
