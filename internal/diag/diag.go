// Package diag provides leveled logging for the decoder's internal
// diagnostics: messages skipped under WithSkipErrors, grids that fall
// back to unrecognized handling, and codecs with no decoder wired.
//
// It is a thin wrapper over glog so that callers inside this module
// don't import glog directly and so verbosity can be controlled with
// the usual -v / -logtostderr flags at the process level.
package diag

import "github.com/golang/glog"

// Infof logs routine progress information (message counts, grid
// selection, cache hits) at V(1) so it stays quiet by default.
func Infof(format string, args ...any) {
	if glog.V(1) {
		glog.Infof(format, args...)
	}
}

// Warningf logs a recoverable problem: a message or grid that was
// skipped, or a codec that could not be decoded.
func Warningf(format string, args ...any) {
	glog.Warningf(format, args...)
}
