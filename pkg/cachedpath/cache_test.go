package cachedpath

import (
	"archive/tar"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(t *testing.T, opts ...func(*Builder)) *Cache {
	t.Helper()
	b := NewBuilder().Dir(t.TempDir())
	for _, o := range opts {
		o(b)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

// S1: local passthrough is idempotent and writes no cache state.
func TestScenarioLocalPassthrough(t *testing.T) {
	cacheDir := t.TempDir()
	c, err := NewBuilder().Dir(cacheDir).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dataDir := t.TempDir()
	dataPath := filepath.Join(dataDir, "data.txt")
	if err := os.WriteFile(dataPath, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := c.CachedPath(dataPath)
	if err != nil {
		t.Fatalf("CachedPath: %v", err)
	}
	if got != dataPath {
		t.Fatalf("CachedPath(local) = %q, want %q", got, dataPath)
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("local passthrough wrote cache state: %v", entries)
	}
}

// S2: first remote fetch derives the expected filename and persists meta.
func TestScenarioFirstRemoteFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write([]byte("hello"))
		}
	}))
	defer srv.Close()

	c := newTestCache(t)
	url := srv.URL + "/x"

	got, err := c.CachedPath(url)
	if err != nil {
		t.Fatalf("CachedPath: %v", err)
	}

	wantName := deriveKeyWithETag(url, `"v1"`)
	if filepath.Base(got) != wantName {
		t.Fatalf("CachedPath filename = %q, want %q", filepath.Base(got), wantName)
	}

	body, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", got, err)
	}
	if string(body) != "hello" {
		t.Fatalf("resource body = %q, want %q", body, "hello")
	}

	meta, err := readMeta(metaPath(got))
	if err != nil {
		t.Fatalf("readMeta: %v", err)
	}
	if meta.ETag == nil || *meta.ETag != `"v1"` {
		t.Fatalf("meta.ETag = %v, want %q", meta.ETag, `"v1"`)
	}
	if meta.Size != 5 {
		t.Fatalf("meta.Size = %d, want 5", meta.Size)
	}
}

// Unchanged ETag on revalidation reuses the cached resource without a GET.
func TestScenarioUnchangedETagReusesCachedEntry(t *testing.T) {
	var getCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			atomic.AddInt32(&getCount, 1)
			w.Write([]byte("hello"))
		}
	}))
	defer srv.Close()

	c := newTestCache(t)
	url := srv.URL + "/x"

	first, err := c.CachedPath(url)
	if err != nil {
		t.Fatalf("first CachedPath: %v", err)
	}

	second, err := c.CachedPath(url)
	if err != nil {
		t.Fatalf("second CachedPath: %v", err)
	}

	if first != second {
		t.Fatalf("second CachedPath = %q, want same path %q", second, first)
	}
	if atomic.LoadInt32(&getCount) != 1 {
		t.Fatalf("GET called %d times, want exactly 1 (second call should HEAD only)", getCount)
	}
}

// Changed ETag on revalidation forces a redownload to a new filename.
func TestScenarioChangedETagRedownloads(t *testing.T) {
	var etag atomic.Value
	etag.Store(`"v1"`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag.Load().(string))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write([]byte("body-for-" + etag.Load().(string)))
		}
	}))
	defer srv.Close()

	c := newTestCache(t)
	url := srv.URL + "/x"

	first, err := c.CachedPath(url)
	if err != nil {
		t.Fatalf("first CachedPath: %v", err)
	}

	etag.Store(`"v2"`)
	second, err := c.CachedPath(url)
	if err != nil {
		t.Fatalf("second CachedPath: %v", err)
	}

	if first == second {
		t.Fatalf("changed ETag should produce a new path, got same %q", first)
	}

	body, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(body) != `body-for-"v2"` {
		t.Fatalf("second resource body = %q, want %q", body, `body-for-"v2"`)
	}
}

// Offline mode with no cached version fails rather than attempting any
// network call.
func TestScenarioOfflineNoCachedVersion(t *testing.T) {
	var served int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&served, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestCache(t, func(b *Builder) { b.Offline(true) })

	_, err := c.CachedPath(srv.URL + "/never-cached")
	if !isErr(err, ErrNoCachedVersion) {
		t.Fatalf("CachedPath(offline, uncached) error = %v, want wrapping ErrNoCachedVersion", err)
	}
	if atomic.LoadInt32(&served) != 0 {
		t.Fatalf("offline mode made %d network calls, want 0", served)
	}
}

// Offline mode with a cached version returns it without any network call.
func TestScenarioOfflineUsesCachedVersion(t *testing.T) {
	var served int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&served, 1)
		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write([]byte("hello"))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	online, err := NewBuilder().Dir(dir).Build()
	if err != nil {
		t.Fatalf("Build online: %v", err)
	}

	url := srv.URL + "/x"
	firstPath, err := online.CachedPath(url)
	if err != nil {
		t.Fatalf("CachedPath online: %v", err)
	}
	servedOnline := atomic.LoadInt32(&served)

	offline, err := NewBuilder().Dir(dir).Offline(true).Build()
	if err != nil {
		t.Fatalf("Build offline: %v", err)
	}

	gotPath, err := offline.CachedPath(url)
	if err != nil {
		t.Fatalf("CachedPath offline: %v", err)
	}
	if gotPath != firstPath {
		t.Fatalf("offline CachedPath = %q, want %q", gotPath, firstPath)
	}
	if got := atomic.LoadInt32(&served); got != servedOnline {
		t.Fatalf("offline mode made %d network calls, want 0", got-servedOnline)
	}
}

// S6: archive extraction downloads once, extracts, and reuses the
// extraction on a subsequent call with an unchanged ETag.
func TestScenarioArchiveExtraction(t *testing.T) {
	var getCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			atomic.AddInt32(&getCount, 1)
			writeTarGzBody(w)
		}
	}))
	defer srv.Close()

	c := newTestCache(t)
	url := srv.URL + "/t.tar.gz"

	first, err := c.CachedPathWithOptions(url, Options{ExtractArchive: true})
	if err != nil {
		t.Fatalf("CachedPathWithOptions: %v", err)
	}

	fi, err := os.Stat(first)
	if err != nil || !fi.IsDir() {
		t.Fatalf("extracted path %q is not a directory: %v", first, err)
	}
	content, err := os.ReadFile(filepath.Join(first, "hello.txt"))
	if err != nil || string(content) != "hi" {
		t.Fatalf("extracted hello.txt = %q, %v", content, err)
	}

	second, err := c.CachedPathWithOptions(url, Options{ExtractArchive: true})
	if err != nil {
		t.Fatalf("second CachedPathWithOptions: %v", err)
	}
	if second != first {
		t.Fatalf("second extraction path = %q, want same %q", second, first)
	}
	if atomic.LoadInt32(&getCount) != 1 {
		t.Fatalf("GET called %d times, want exactly 1 (unchanged ETag reuses extraction)", getCount)
	}
}

// A plain, non-extracting CachedPath call must still resolve to the
// downloaded resource file, even after an earlier ExtractArchive call on
// the same identifier produced a sibling extracted directory with its own
// (later) meta file.
func TestScenarioPlainLookupAfterExtractionResolvesResourceFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			writeTarGzBody(w)
		}
	}))
	defer srv.Close()

	c := newTestCache(t)
	url := srv.URL + "/t.tar.gz"

	if _, err := c.CachedPathWithOptions(url, Options{ExtractArchive: true}); err != nil {
		t.Fatalf("CachedPathWithOptions: %v", err)
	}

	plain, err := c.CachedPath(url)
	if err != nil {
		t.Fatalf("CachedPath: %v", err)
	}

	fi, err := os.Stat(plain)
	if err != nil {
		t.Fatalf("stat %q: %v", plain, err)
	}
	if fi.IsDir() {
		t.Fatalf("CachedPath after extraction resolved to directory %q, want the resource file", plain)
	}
}

func TestScenarioSubdir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write([]byte("hello"))
		}
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	c, err := NewBuilder().Dir(cacheDir).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got, err := c.CachedPathWithOptions(srv.URL+"/x", Options{Subdir: "models"})
	if err != nil {
		t.Fatalf("CachedPathWithOptions: %v", err)
	}

	wantDir := filepath.Join(cacheDir, "models")
	if filepath.Dir(got) != wantDir {
		t.Fatalf("resolved under %q, want %q", filepath.Dir(got), wantDir)
	}
}

func TestScenarioNotFoundPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestCache(t)
	_, err := c.CachedPath(srv.URL + "/missing")
	if !isErr(err, ErrResourceNotFound) {
		t.Fatalf("CachedPath(404) error = %v, want wrapping ErrResourceNotFound", err)
	}
}

func TestScenarioFreshnessLifetimeSkipsProbe(t *testing.T) {
	var headCount int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			atomic.AddInt32(&headCount, 1)
		}
		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write([]byte("hello"))
		}
	}))
	defer srv.Close()

	c := newTestCache(t, func(b *Builder) { b.FreshnessLifetime(time.Hour) })
	url := srv.URL + "/x"

	if _, err := c.CachedPath(url); err != nil {
		t.Fatalf("first CachedPath: %v", err)
	}
	if _, err := c.CachedPath(url); err != nil {
		t.Fatalf("second CachedPath: %v", err)
	}

	if atomic.LoadInt32(&headCount) != 1 {
		t.Fatalf("HEAD called %d times, want exactly 1 (age-based freshness must skip the probe)", headCount)
	}
}

func writeTarGzBody(w http.ResponseWriter) {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	body := []byte("hi")
	tw.WriteHeader(&tar.Header{Name: "hello.txt", Mode: 0o644, Size: int64(len(body))})
	tw.Write(body)
	tw.Close()
	gz.Close()
}
