//go:build notarxz

package cachedpath

import (
	"fmt"
	"io"
)

// extractTarXz is unavailable when built with -tags notarxz.
func extractTarXz(r io.Reader, destDir string) error {
	return fmt.Errorf("%w: tar.xz support excluded at build time (notarxz)", ErrExtraction)
}
