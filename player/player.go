// Package player defines the playback engine abstraction and its mpv implementation,
// driven over mpv's JSON-IPC interface.
package player

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/key"
	"github.com/tubelink/tubelink/source"
)

// Engine plays one prepared source. Notifications are delivered to the listener
// from the engine's own goroutine.
type Engine interface {
	// Prepare loads the source without starting playback.
	Prepare(ctx context.Context, src source.PlaybackSource) error

	Play() error
	Pause() error
	SetLooping(looping bool) error

	// SetVolume sets the output volume in [0, 1].
	SetVolume(volume float64) error

	// SeekTo moves playback to an absolute position.
	SeekTo(position time.Duration) error

	// Position reports the current playback position.
	Position() (time.Duration, error)

	// Release stops playback and frees every resource held by the engine.
	Release() error

	// SetListener sets the receiver of engine notifications. It must be called before Prepare.
	SetListener(listener Listener)
}

// Surface is the render target an engine draws into.
type Surface interface {
	Release() error
}

// Listener receives engine notifications.
type Listener func(Notification)

// Notification is a state change reported by an engine.
type Notification interface {
	isNotification()
}

// Ready is reported once the source is loaded. Width and Height are raw, Rotation is in degrees.
type Ready struct {
	Duration time.Duration
	Width    int
	Height   int
	Rotation int
}

// Buffering is reported while playback waits on the network. Done marks the end of a buffering spell.
type Buffering struct {
	Percent int
	Done    bool
}

// Completed is reported when playback reaches the end of the source.
type Completed struct{}

// Failed is reported on any playback error.
type Failed struct {
	Err error
}

func (Ready) isNotification()     {}
func (Buffering) isNotification() {}
func (Completed) isNotification() {}
func (Failed) isNotification()    {}

// Factory builds an engine and its surface for one session.
type Factory func() (Engine, Surface, error)

// FactoryFromConfig returns the factory of the configured engine.
func FactoryFromConfig() (Factory, error) {
	switch name := viper.GetString(key.PlayerEngine); name {
	case "mpv", "":
		return func() (Engine, Surface, error) {
			m := NewMPV()
			return m, m.Surface(), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown player engine %q", name)
	}
}
