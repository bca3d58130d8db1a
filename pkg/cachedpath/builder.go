package cachedpath

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultMaxRetries = 3
	defaultMaxBackoff = 5 * time.Second
	memoSize          = 256
)

// Builder constructs a Cache with tunables, mirroring spec §4.9. Successive
// option setters return the same *Builder so calls chain; Build validates
// and finalizes the configuration.
type Builder struct {
	dir               string
	clientBuilder     func() HTTPDoer
	connectTimeout    time.Duration
	maxRetries        int
	maxBackoff        time.Duration
	freshnessLifetime time.Duration
	offline           bool
	progressSink      ProgressSink
	logger            Logger
	metrics           MetricsRecorder
}

// NewBuilder returns a Builder pre-populated with defaults:
// MaxRetries=3, MaxBackoff=5s, no timeout, online.
func NewBuilder() *Builder {
	return &Builder{
		maxRetries: defaultMaxRetries,
		maxBackoff: defaultMaxBackoff,
	}
}

// Dir sets the cache root directory. If unset, Build uses the platform
// cache directory joined with "cachedpath".
func (b *Builder) Dir(dir string) *Builder {
	b.dir = dir
	return b
}

// ClientBuilder installs a factory for the HTTP client capability the
// fetcher uses. If unset, Build constructs a default client honoring
// ConnectTimeout.
func (b *Builder) ClientBuilder(fn func() HTTPDoer) *Builder {
	b.clientBuilder = fn
	return b
}

// ConnectTimeout bounds the dial phase of HEAD/GET requests.
func (b *Builder) ConnectTimeout(d time.Duration) *Builder {
	b.connectTimeout = d
	return b
}

// MaxRetries bounds retries for transient HTTP failures during probe.
func (b *Builder) MaxRetries(n int) *Builder {
	b.maxRetries = n
	return b
}

// MaxBackoff caps the exponential backoff interval between retries. Each
// wait is randomized by up to ±50% around the current interval.
func (b *Builder) MaxBackoff(d time.Duration) *Builder {
	b.maxBackoff = d
	return b
}

// FreshnessLifetime sets the duration a cached entry is trusted without
// consulting the origin.
func (b *Builder) FreshnessLifetime(d time.Duration) *Builder {
	b.freshnessLifetime = d
	return b
}

// Offline, when true, forbids all network I/O; only cached entries are
// served.
func (b *Builder) Offline(offline bool) *Builder {
	b.offline = offline
	return b
}

// ProgressSink installs a callback receiving (total, soFar) ticks during
// downloads.
func (b *Builder) ProgressSink(sink ProgressSink) *Builder {
	b.progressSink = sink
	return b
}

// Logger installs the Cache's logging capability.
func (b *Builder) Logger(l Logger) *Builder {
	b.logger = l
	return b
}

// MetricsRecorder installs an optional metrics observer.
func (b *Builder) MetricsRecorder(m MetricsRecorder) *Builder {
	b.metrics = m
	return b
}

// Build finalizes the configuration: it ensures Dir exists and the HTTP
// client is ready.
func (b *Builder) Build() (*Cache, error) {
	dir := b.dir
	if dir == "" {
		var err error
		dir, err = defaultCacheDir()
		if err != nil {
			return nil, fmt.Errorf("%w: resolve default cache dir: %v", ErrIO, err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create cache dir %s: %v", ErrIO, dir, err)
	}

	var client HTTPDoer
	if b.clientBuilder != nil {
		client = b.clientBuilder()
	} else {
		client = defaultHTTPClient(b.connectTimeout)
	}

	logger := b.logger
	if logger == nil {
		logger = stdLogger{}
	}

	metrics := b.metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	memo, err := lru.New[string, memoEntry](memoSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	return &Cache{
		dir:               dir,
		fetcher:           newFetcher(client, b.maxRetries, b.maxBackoff, logger),
		freshnessLifetime: b.freshnessLifetime,
		offline:           b.offline,
		progressSink:      b.progressSink,
		logger:            logger,
		metrics:           metrics,
		memo:              memo,
		coalescer:         newCoalescer(),
	}, nil
}

func defaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "cachedpath"), nil
}
