//go:build !unix

package cachedpath

import "os"

// ensureDiskSpace is a no-op on platforms without a statfs-equivalent
// exposed through golang.org/x/sys/unix; the download simply proceeds and
// fails normally on ENOSPC.
func ensureDiskSpace(path string, required int64) error {
	return nil
}

func preallocateFile(file *os.File, required int64) error {
	if required <= 0 {
		return nil
	}
	return file.Truncate(required)
}

func platformDropCacheRange(file *os.File, offset, length int64) error {
	return nil
}
