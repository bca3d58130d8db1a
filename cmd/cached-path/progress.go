package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"gitlab.com/bella.network/cachedpath/pkg/cachedpath"
)

// newProgressSink renders download progress to stderr as "<soFar> / <total>"
// using human-readable byte sizes, so stdout stays reserved for the
// resolved paths the CLI contract promises one per line.
func newProgressSink(identifier string) cachedpath.ProgressSink {
	return func(total, soFar int64) {
		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r%s: %s / %s", identifier, humanize.Bytes(uint64(soFar)), humanize.Bytes(uint64(total)))
		} else {
			fmt.Fprintf(os.Stderr, "\r%s: %s", identifier, humanize.Bytes(uint64(soFar)))
		}
	}
}
