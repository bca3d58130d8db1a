package cachedpath

import (
	"compress/gzip"
	"fmt"
	"io"
)

// extractTarGz unpacks a gzip-compressed tar stream into destDir.
func extractTarGz(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer gz.Close()

	return extractTar(gz, destDir)
}
