// Package cachedpath resolves a local path or a remote URL to a stable
// local filesystem path whose contents reflect the latest authoritative
// version of the named resource.
//
// The cache derives a content-addressed on-disk key from a URL, consults a
// JSON sidecar metadata record to decide whether revalidation or a fresh
// download is required, serialises concurrent fetches of the same resource
// across processes with a file lock, publishes new entries atomically, and
// can optionally unpack archives into a sibling directory under the same
// freshness and locking discipline.
//
// A process calling cached_path repeatedly for the same identifier should
// expect the call to be cheap: a fresh entry is served without any network
// round trip, and an unchanged remote resource costs a single HEAD request
// whose ETag is compared with the cached one.
package cachedpath
