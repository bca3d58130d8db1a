package cachedpath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// randomSuffix returns a short random token used to name temporary files so
// they are unlikely to clash with any entry key and are recognisable as
// scratch files if a process dies mid-write. Mirrors the teacher's
// tmp-<uuid> naming used for its own in-flight downloads.
func randomSuffix() string {
	return uuid.NewString()
}

// filepathGlob returns every meta file belonging to base: the bare
// "<root>/<base>.meta" plus one per known ETag revision,
// "<root>/<base>.<etagHash>.meta". The extracted-archive sidecar,
// "<base>-extracted.meta" (or, for an ETag revision, "<base>.<etagHash>
// -extracted.meta"), belongs to the sibling extracted directory rather than
// to a resource revision, and is excluded explicitly rather than relying on
// the glob shape to keep it out: "*" in base+".*.meta" happily matches an
// "<etagHash>-extracted" segment too.
func filepathGlob(root, base string) ([]string, error) {
	var matches []string

	bare := filepath.Join(root, base+".meta")
	if _, err := os.Stat(bare); err == nil {
		matches = append(matches, bare)
	}

	revisions, err := filepath.Glob(filepath.Join(root, base+".*.meta"))
	if err != nil {
		return nil, err
	}

	for _, rev := range revisions {
		name := strings.TrimSuffix(filepath.Base(rev), ".meta")
		if strings.HasSuffix(name, "-extracted") {
			continue
		}
		matches = append(matches, rev)
	}

	return matches, nil
}
