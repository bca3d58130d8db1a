//go:build !notarxz

package cachedpath

import (
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// extractTarXz unpacks an xz-compressed tar stream into destDir. Compiled
// in by default; build with -tags notarxz to exclude it and shed the
// github.com/ulikunitz/xz dependency, matching spec's "build-time feature
// flag" requirement for this variant.
func extractTarXz(r io.Reader, destDir string) error {
	xr, err := xz.NewReader(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	return extractTar(xr, destDir)
}
