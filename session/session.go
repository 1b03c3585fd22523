package session

import (
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tubelink/tubelink/event"
	"github.com/tubelink/tubelink/log"
	"github.com/tubelink/tubelink/metrics"
	"github.com/tubelink/tubelink/player"
	"github.com/tubelink/tubelink/source"
)

// State is a session lifecycle state.
type State int

const (
	Uninitialized State = iota
	Resolving
	Prepared
	Playing
	Paused
	Buffering
	Ended
	Disposed
)

func (s State) String() string {
	return [...]string{"uninitialized", "resolving", "prepared", "playing", "paused", "buffering", "ended", "disposed"}[s]
}

// Session is one prepared source bound to an engine and a render surface.
type Session struct {
	ID     string
	Source source.PlaybackSource

	mu          sync.Mutex
	state       State
	beforeBuf   State
	initialized bool
	percent     int
	sink        *event.Sink
	engine      player.Engine
	surface     player.Surface
	logger      *logrus.Entry
}

// closeSink is replaced in tests.
var closeSink = (*event.Sink).Close

func newSession(id string, engine player.Engine, surface player.Surface) *Session {
	s := &Session{
		ID:      id,
		state:   Resolving,
		percent: -1,
		sink: event.NewSink(func(e event.Event) {
			metrics.EventsTotal.WithLabelValues(e.Name()).Inc()
		}),
		engine:  engine,
		surface: surface,
		logger:  log.With(logrus.Fields{"session": id}),
	}
	engine.SetListener(s.handle)
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Sink returns the session's event sink.
func (s *Session) Sink() *event.Sink {
	return s.sink
}

// handle turns engine notifications into events. It runs on the engine's goroutine,
// so events leave in notification order.
func (s *Session) handle(n player.Notification) {
	if e, ok := s.apply(n); ok {
		s.sink.Emit(e)
	}
}

func (s *Session) apply(n player.Notification) (event.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Disposed {
		return nil, false
	}

	switch n := n.(type) {
	case player.Ready:
		if s.initialized {
			return nil, false
		}
		s.initialized = true
		if s.state == Resolving {
			s.state = Prepared
		}
		width, height := normalize(n.Width, n.Height, n.Rotation)
		return event.Initialized{Duration: n.Duration.Milliseconds(), Width: width, Height: height}, true
	case player.Buffering:
		if n.Done {
			if s.state == Buffering {
				s.state = s.beforeBuf
			}
			s.percent = -1
			return nil, false
		}
		if s.state != Buffering {
			s.beforeBuf = s.state
			s.state = Buffering
		}
		if n.Percent == s.percent {
			return nil, false
		}
		s.percent = n.Percent
		return event.BufferingUpdate{Percent: lo.Clamp(n.Percent, 0, 100)}, true
	case player.Completed:
		s.state = Ended
		return event.Completed{}, true
	case player.Failed:
		s.logger.Warnf("playback error: %v", n.Err)
		return event.VideoError(n.Err), true
	}
	return nil, false
}

// normalize swaps the dimensions of a video shot in portrait orientation.
func normalize(width, height, rotation int) (int, int) {
	switch ((rotation % 360) + 360) % 360 {
	case 90, 270:
		return height, width
	default:
		return width, height
	}
}

func (s *Session) play() error {
	if err := s.engine.Play(); err != nil {
		return err
	}
	s.transition(Playing)
	return nil
}

func (s *Session) pause() error {
	if err := s.engine.Pause(); err != nil {
		return err
	}
	s.transition(Paused)
	return nil
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Buffering {
		s.beforeBuf = to
		return
	}
	if s.state != Disposed {
		s.state = to
	}
}

// dispose releases the surface, the engine and the event channel in that order.
// Only the first call has an effect.
func (s *Session) dispose() {
	s.mu.Lock()
	if s.state == Disposed {
		s.mu.Unlock()
		return
	}
	s.state = Disposed
	s.mu.Unlock()

	if err := s.surface.Release(); err != nil {
		s.logger.Warnf("release surface: %v", err)
	}
	if err := s.engine.Release(); err != nil {
		s.logger.Warnf("release engine: %v", err)
	}
	closeSink(s.sink)
	s.logger.Info("session disposed")
}

func (s *Session) seekTo(position time.Duration) error {
	return s.engine.SeekTo(position)
}
