//go:build unix

package cachedpath

import (
	"fmt"
	"math/bits"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ensureDiskSpace verifies that the filesystem backing path has at least
// required bytes available before a download begins. Adapted from the
// teacher's own disk-space guard for cache downloads.
func ensureDiskSpace(path string, required int64) error {
	if required <= 0 {
		return nil
	}

	dir := filepath.Dir(path)

	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return fmt.Errorf("%w: statfs %s: %v", ErrIO, dir, err)
	}

	if stat.Bsize <= 0 {
		return fmt.Errorf("%w: invalid block size %d", ErrIO, stat.Bsize)
	}

	blockSize := uint64(stat.Bsize)
	hi, freeBytes := bits.Mul64(stat.Bavail, blockSize)
	if hi != 0 {
		freeBytes = ^uint64(0)
	}

	if freeBytes < uint64(required) {
		return fmt.Errorf("%w: insufficient disk space: need %d bytes, available %d bytes", ErrIO, required, freeBytes)
	}

	return nil
}

// preallocateFile attempts to reserve required bytes on disk for file,
// reducing fragmentation for large downloads.
func preallocateFile(file *os.File, required int64) error {
	if required <= 0 {
		return nil
	}

	if err := platformPreallocate(file, required); err != nil {
		return err
	}

	_, err := file.Seek(0, os.SEEK_SET)
	return err
}
