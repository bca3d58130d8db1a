package cachedpath

import "time"

// freshnessState is the evaluator's verdict for an entry.
type freshnessState int

const (
	stateStale freshnessState = iota
	stateFreshFromAge
	stateFreshFromETag
	stateOfflineUsable
	stateOfflineMissing
)

// evaluateFreshness implements spec §4.6. now is injected for testability.
func evaluateFreshness(
	freshnessLifetime time.Duration,
	haveMeta bool,
	meta Meta,
	offline bool,
	probed bool,
	probe probeResult,
	now time.Time,
) freshnessState {
	if offline {
		if haveMeta {
			return stateOfflineUsable
		}
		return stateOfflineMissing
	}

	if haveMeta && freshnessLifetime > 0 {
		age := now.Sub(time.Unix(int64(meta.CreationTime), 0))
		if age < freshnessLifetime {
			return stateFreshFromAge
		}
	}

	if !haveMeta {
		return stateStale
	}

	if !probed {
		return stateStale
	}

	// Per the documented resolution of spec's open question: a server
	// that stops returning an ETag it previously supplied is treated as
	// stale, not as still-fresh.
	if meta.ETag == nil || probe.etag == "" {
		return stateStale
	}

	if probe.etag == *meta.ETag {
		return stateFreshFromETag
	}

	return stateStale
}
