package cachedpath

import "os"

// ProgressSink receives periodic ticks while a resource is downloaded.
// total is the expected size in bytes (0 if unknown, e.g. no
// Content-Length); soFar is the cumulative number of bytes written so far.
// A sink must return quickly; it is called synchronously on the download
// goroutine once per chunk.
type ProgressSink func(total, soFar int64)

const (
	progressChunkSize   = 64 * 1024
	cacheDropThreshold  = int64(128 * 1024 * 1024) // only drop cache for large downloads
	cacheDropChunk      = int64(16 * 1024 * 1024)  // drop in 16MB ranges
)

// progressWriter forwards written bytes to the destination file while
// pushing (total, soFar) ticks to an installed ProgressSink. On platforms
// that support it, it also hints the kernel to drop cached pages for data
// already flushed to disk once a size threshold is exceeded, adapted from
// the teacher's cacheDropWriter so that large downloads do not bloat the
// page cache.
type progressWriter struct {
	f     *os.File
	total int64
	soFar int64
	sink  ProgressSink

	dropOffset  int64
	dropPending int64
	dropEnabled bool
	dropRange   func(file *os.File, offset, length int64) error
}

func newProgressWriter(f *os.File, total int64, sink ProgressSink) *progressWriter {
	return &progressWriter{
		f:         f,
		total:     total,
		sink:      sink,
		dropRange: platformDropCacheRange,
	}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if n <= 0 {
		return n, err
	}

	w.soFar += int64(n)
	if w.sink != nil {
		w.sink(w.total, w.soFar)
	}

	w.dropOffset += int64(n)
	if !w.dropEnabled {
		if w.dropOffset < cacheDropThreshold {
			return n, err
		}
		w.dropEnabled = true
		w.dropPending = 0
	}

	w.dropPending += int64(n)
	if w.dropPending >= cacheDropChunk {
		_ = w.dropRange(w.f, w.dropOffset-w.dropPending, w.dropPending)
		w.dropPending = 0
	}

	return n, err
}

func (w *progressWriter) finish() {
	if !w.dropEnabled {
		return
	}
	if w.dropPending > 0 {
		_ = w.dropRange(w.f, w.dropOffset-w.dropPending, w.dropPending)
	}
}
