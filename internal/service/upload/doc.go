// Package upload implements the per-file half of the upload window: which
// files a mode accepts, how an accepted file becomes a FileResult, and when
// a burst of uploads counts as finished.
//
// The package holds no session state. The session machine owns the pending
// uploads and the debounce timers; it calls into the Aggregator for every
// file event and every completion check.
package upload
