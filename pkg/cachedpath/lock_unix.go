//go:build unix

package cachedpath

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type flockGuard struct {
	f *os.File
}

func platformAcquireExclusive(path string) (lockGuard, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open lock %s: %v", ErrIO, path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: flock %s: %v", ErrIO, path, err)
	}

	return &flockGuard{f: f}, nil
}

func (g *flockGuard) Release() error {
	defer g.f.Close()
	return unix.Flock(int(g.f.Fd()), unix.LOCK_UN)
}
