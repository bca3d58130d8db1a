package cachedpath

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache orchestrates identifier resolution: classify, lock, probe,
// fetch-or-reuse, optionally extract, publish, return path. See spec §4.8.
type Cache struct {
	dir               string
	fetcher           *fetcher
	freshnessLifetime time.Duration
	offline           bool
	progressSink      ProgressSink
	logger            Logger
	metrics           MetricsRecorder
	memo              *lru.Cache[string, memoEntry]
	coalescer         *coalescer
}

// memoEntry is the resolution memo's value: the last path resolved for an
// identifier, and the creation time recorded in that entry's meta file.
type memoEntry struct {
	path      string
	createdAt time.Time
}

// WithProgressSink returns a shallow copy of the Cache with its progress
// sink replaced by sink, sharing every other field (including the
// resolution memo and file-lock coalescer) with the receiver. Useful for a
// caller that wants a different sink per call, e.g. a CLI labeling
// progress output by identifier.
func (c *Cache) WithProgressSink(sink ProgressSink) *Cache {
	clone := *c
	clone.progressSink = sink
	return &clone
}

// CachedPath resolves identifier under the Cache's shared configuration.
func (c *Cache) CachedPath(identifier string) (string, error) {
	return c.CachedPathWithOptions(identifier, Options{})
}

// CachedPathWithOptions resolves identifier, additionally honoring Subdir
// and ExtractArchive.
func (c *Cache) CachedPathWithOptions(identifier string, opts Options) (string, error) {
	remote, u, localPath, err := classify(identifier)
	if err != nil {
		return "", err
	}
	if !remote {
		// Testable property 1: idempotence. No cache state is written
		// for a local passthrough.
		return localPath, nil
	}

	root := c.dir
	if opts.Subdir != "" {
		root = filepath.Join(c.dir, opts.Subdir)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}

	rawURL := u.String()
	base := deriveKey(rawURL)
	memoKey := root + "\x00" + base
	if opts.ExtractArchive {
		memoKey += "\x00extract"
	}

	// Resolution memo: when freshness_lifetime makes an entry trustworthy
	// without consulting the origin, a repeated in-process resolution of
	// the same identifier costs neither a lock acquisition nor a glob of
	// the cache directory, directly serving the "repeated resolution is
	// cheap" promise of §1 — purely an optimization, never a correctness
	// dependency, since it only ever short-circuits a call that the
	// locked path below would resolve to FreshFromAge anyway.
	if c.freshnessLifetime > 0 {
		if entry, ok := c.memo.Get(memoKey); ok {
			if time.Since(entry.createdAt) < c.freshnessLifetime {
				if _, statErr := os.Stat(entry.path); statErr == nil {
					c.metrics.CacheHit()
					return entry.path, nil
				}
			}
			c.memo.Remove(memoKey)
		}
	}

	path, err := c.coalescer.do(memoKey, func() (string, error) {
		return c.resolveLocked(root, rawURL, opts)
	})
	if err != nil {
		return "", err
	}

	// The extracted directory's meta sits at the same "<path>.meta" location
	// as a resource file's, so this covers both kinds of result.
	if m, metaErr := readMeta(metaPath(path)); metaErr == nil {
		c.memo.Add(memoKey, memoEntry{path: path, createdAt: time.Unix(int64(m.CreationTime), 0)})
	}
	return path, nil
}

// resolveLocked performs steps 3-10 of spec §4.8 under the per-entry file
// lock. It is only ever invoked once per memoKey at a time within this
// process, courtesy of the coalescer; the file lock extends that guarantee
// across processes.
func (c *Cache) resolveLocked(root, rawURL string, opts Options) (string, error) {
	guard, err := acquireExclusive(lockPath(filepath.Join(root, deriveKey(rawURL))))
	if err != nil {
		return "", err
	}
	defer guard.Release()

	base := deriveKey(rawURL)
	haveMeta, meta := latestMeta(root, base)

	if c.offline {
		if !haveMeta {
			return "", fmt.Errorf("%w: %s", ErrNoCachedVersion, rawURL)
		}
		c.metrics.CacheHit()
		return c.finish(root, meta, opts)
	}

	// Age-based freshness is checked before any network call: per spec
	// §4.6, FreshFromAge requires no probe at all.
	preState := evaluateFreshness(c.freshnessLifetime, haveMeta, meta, false, false, probeResult{}, time.Now())
	if preState == stateFreshFromAge {
		c.metrics.CacheHit()
		return c.finish(root, meta, opts)
	}

	ctx := context.Background()
	probe, probeErr := c.fetcher.probe(ctx, rawURL)
	if probeErr != nil {
		return "", probeErr
	}

	state := evaluateFreshness(c.freshnessLifetime, haveMeta, meta, false, true, probe, time.Now())

	if state == stateFreshFromETag {
		c.metrics.CacheHit()
		return c.finish(root, meta, opts)
	}

	// Stale: derive a (possibly new) entry filename from (url, etag) and
	// download.
	c.metrics.CacheMiss()
	newKey := deriveKeyWithETag(rawURL, probe.etag)
	resourcePath := filepath.Join(root, newKey)
	tempPath := filepath.Join(root, "tmp-"+randomSuffix())

	dl, err := c.fetcher.download(ctx, rawURL, tempPath, c.progressSink)
	if err != nil {
		return "", err
	}
	c.metrics.Download(dl.size)

	now := float64(time.Now().Unix())
	var etagPtr *string
	if dl.etag != "" {
		etagPtr = &dl.etag
	}
	newMeta := Meta{
		Resource:     rawURL,
		Filename:     newKey,
		ETag:         etagPtr,
		CreationTime: now,
		Size:         dl.size,
	}

	// Meta before resource: invariant 1.
	if err := writeMeta(metaPath(resourcePath), newMeta); err != nil {
		os.Remove(tempPath)
		return "", err
	}
	if err := os.Rename(tempPath, resourcePath); err != nil {
		return "", fmt.Errorf("%w: installing resource: %v", ErrIO, err)
	}
	syncDir(root)

	newMeta.Path = resourcePath
	return c.finish(root, newMeta, opts)
}

// finish returns the resource path, or — when extraction was requested —
// the extracted directory path, running extraction under the lock the
// caller still holds.
func (c *Cache) finish(root string, meta Meta, opts Options) (string, error) {
	resourcePath := meta.Path
	if resourcePath == "" {
		resourcePath = filepath.Join(root, meta.Filename)
	}

	if !opts.ExtractArchive {
		return resourcePath, nil
	}

	extractedPath, err := c.ensureExtracted(root, resourcePath, meta)
	if err != nil {
		return "", err
	}
	return extractedPath, nil
}

// ensureExtracted implements spec §4.7's extraction protocol: reuse an
// existing, complete extraction if its meta's creation_time is at least as
// new as the source's, otherwise extract into a fresh temporary directory
// and rename it into place atomically.
func (c *Cache) ensureExtracted(root, resourcePath string, sourceMeta Meta) (string, error) {
	extractedPath := filepath.Join(root, extractedDirName(sourceMeta.Filename))
	extractedMetaPath := extractedPath + ".meta"

	if fi, statErr := os.Stat(extractedPath); statErr == nil && fi.IsDir() {
		if em, readErr := readMeta(extractedMetaPath); readErr == nil {
			if em.CreationTime >= sourceMeta.CreationTime {
				return extractedPath, nil
			}
		}
	}

	tmpDir := filepath.Join(root, "tmp-extract-"+randomSuffix())
	if err := extractArchive(resourcePath, tmpDir); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}

	if err := os.RemoveAll(extractedPath); err != nil {
		os.RemoveAll(tmpDir)
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.Rename(tmpDir, extractedPath); err != nil {
		os.RemoveAll(tmpDir)
		return "", fmt.Errorf("%w: installing extracted dir: %v", ErrIO, err)
	}

	extractedMeta := Meta{
		Resource:     sourceMeta.Resource,
		Filename:     extractedDirName(sourceMeta.Filename),
		ETag:         sourceMeta.ETag,
		CreationTime: sourceMeta.CreationTime,
		Size:         0,
	}
	if err := writeMeta(extractedMetaPath, extractedMeta); err != nil {
		return "", err
	}
	c.metrics.Extraction()

	return extractedPath, nil
}

// latestMeta lists existing meta files for base under root and returns the
// most recent one by creation_time whose resource file is actually
// present; orphaned meta files (process died between meta write and
// resource rename) are skipped.
func latestMeta(root, base string) (bool, Meta) {
	matches, err := filepathGlob(root, base)
	if err != nil || len(matches) == 0 {
		return false, Meta{}
	}

	sort.Strings(matches) // stable order before picking by creation_time

	var best Meta
	found := false
	for _, mp := range matches {
		m, readErr := readMeta(mp)
		if readErr != nil {
			continue
		}
		resourcePath := strings.TrimSuffix(mp, ".meta")
		fi, statErr := os.Stat(resourcePath)
		if statErr != nil || fi.IsDir() {
			continue
		}
		m.Path = resourcePath
		if !found || m.CreationTime > best.CreationTime {
			best = m
			found = true
		}
	}

	return found, best
}
