// Package event carries playback notifications from a session to its subscriber.
package event

import "encoding/json"

// Event is a notification delivered to a subscriber. Every event marshals to a flat JSON map.
type Event interface {
	json.Marshaler
	// Name identifies the event kind, e.g. "initialized".
	Name() string
}

// Initialized is sent exactly once, when the engine has prepared the source.
// Width and Height are already normalized for rotation.
type Initialized struct {
	// Duration in milliseconds.
	Duration int64
	Width    int
	Height   int
}

func (Initialized) Name() string { return "initialized" }

func (e Initialized) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"event":    e.Name(),
		"duration": e.Duration,
		"width":    e.Width,
		"height":   e.Height,
	})
}

// BufferingUpdate reports the buffered percentage of the timeline.
type BufferingUpdate struct {
	Percent int
}

func (BufferingUpdate) Name() string { return "bufferingUpdate" }

// Range is the buffered [start, end] pair. Start is always 0.
func (e BufferingUpdate) Range() [2]int {
	return [2]int{0, e.Percent}
}

func (e BufferingUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"event":  e.Name(),
		"values": [][2]int{e.Range()},
	})
}

// Completed is sent when playback reaches the end of a non-looping source.
type Completed struct{}

func (Completed) Name() string { return "completed" }

func (e Completed) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"event": e.Name()})
}

// ErrorKindVideo is the kind of every error raised by the playback engine.
const ErrorKindVideo = "VideoError"

// Error reports a playback failure. The session stays alive.
type Error struct {
	Kind    string
	Message string
}

func (Error) Name() string { return "error" }

func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"kind":    e.Kind,
		"message": e.Message,
	})
}

// VideoError wraps an engine failure into an error event.
func VideoError(err error) Error {
	return Error{Kind: ErrorKindVideo, Message: err.Error()}
}
