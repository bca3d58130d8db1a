package cachedpath

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCachedPathLocalPassthrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := CachedPath(path)
	if err != nil {
		t.Fatalf("CachedPath: %v", err)
	}
	if got != path {
		t.Fatalf("CachedPath(local) = %q, want %q", got, path)
	}
}
