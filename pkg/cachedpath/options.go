package cachedpath

// Options configures a single cached_path_with_options call.
type Options struct {
	// Subdir, if non-empty, resolves the entry under root/Subdir instead
	// of root.
	Subdir string

	// ExtractArchive, if true, extracts the downloaded (or already
	// cached) resource as an archive and returns the directory path
	// instead of the resource file path.
	ExtractArchive bool
}
