package cachedpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestWriteReadMetaRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.meta")

	etag := `"v1"`
	want := Meta{
		Resource:     "http://example.com/x",
		Filename:     "entryfile",
		ETag:         &etag,
		CreationTime: 1700000000,
		Size:         5,
	}

	if err := writeMeta(path, want); err != nil {
		t.Fatalf("writeMeta: %v", err)
	}

	got, err := readMeta(path)
	if err != nil {
		t.Fatalf("readMeta: %v", err)
	}

	// Path is deliberately not serialized; ignore it in the comparison.
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Meta{}, "Path")); diff != "" {
		t.Fatalf("readMeta() mismatch (-want +got):\n%s", diff)
	}
	if got.ETag == nil || *got.ETag != etag {
		t.Fatalf("readMeta().ETag = %v, want %q", got.ETag, etag)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("meta file missing after writeMeta: %v", err)
	}
}

func TestWriteMetaLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.meta")

	if err := writeMeta(path, Meta{Resource: "x"}); err != nil {
		t.Fatalf("writeMeta: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "entry.meta" {
		t.Fatalf("directory contains unexpected entries: %v", entries)
	}
}

func TestReadMetaMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.meta")

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := readMeta(path)
	if err == nil {
		t.Fatalf("readMeta on malformed json: want error, got nil")
	}
	if !isErr(err, ErrCacheFileFormat) {
		t.Fatalf("readMeta malformed error = %v, want wrapping ErrCacheFileFormat", err)
	}
}

func TestReadMetaMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := readMeta(filepath.Join(dir, "nope.meta"))
	if err == nil {
		t.Fatalf("readMeta on missing file: want error, got nil")
	}
	if !isErr(err, ErrResourceNotFound) {
		t.Fatalf("readMeta missing error = %v, want wrapping ErrResourceNotFound", err)
	}
}

func TestMetaPathAndLockPath(t *testing.T) {
	if got, want := metaPath("/tmp/x/entry"), "/tmp/x/entry.meta"; got != want {
		t.Fatalf("metaPath() = %q, want %q", got, want)
	}
	if got, want := lockPath("/tmp/x/entry"), "/tmp/x/entry.lock"; got != want {
		t.Fatalf("lockPath() = %q, want %q", got, want)
	}
}
