// Package source defines the stream representation model and turns selected representations into playback sources.
package source

import "errors"

// Failure taxonomy of the resolution pipeline. Callers match with errors.Is.
var (
	// ErrExtraction reports that the upstream returned no usable representations.
	ErrExtraction = errors.New("extraction failure")
	// ErrUnsupportedContainer reports a URL that cannot be placed into a known transport kind.
	ErrUnsupportedContainer = errors.New("unsupported container")
	// ErrRepresentationNotFound reports an exhausted fallback chain.
	ErrRepresentationNotFound = errors.New("representation not found")
	// ErrNetwork reports a timeout or connection failure against the upstream.
	ErrNetwork = errors.New("network error")
	// ErrPlayback wraps failures surfaced by the playback engine.
	ErrPlayback = errors.New("playback error")
)
