package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/event"
	"github.com/tubelink/tubelink/key"
	"github.com/tubelink/tubelink/log"
	"github.com/tubelink/tubelink/metrics"
	"github.com/tubelink/tubelink/player"
	"github.com/tubelink/tubelink/provider"
)

// ErrInvalidSession is returned for operations on an unknown or disposed session id.
var ErrInvalidSession = errors.New("no session for id")

// ErrCancelled is the result of a pending session cancelled before its resolution finished.
var ErrCancelled = errors.New("session cancelled before it was ready")

// Options configure a Controller.
type Options struct {
	Resolver *Resolver
	Engines  player.Factory
	// Looping is applied to every new session.
	Looping bool
	// OnResolved, when set, is called after every successful resolution.
	OnResolved func(Descriptor, Resolution)
}

// Controller owns every session of a host. All methods are safe for concurrent use.
type Controller struct {
	options Options

	mu       sync.Mutex
	sessions map[string]*Session
	pending  map[string]*Pending

	// disposed remembers the most recent maxTombstones disposed ids, oldest first in tombstones.
	disposed   map[string]struct{}
	tombstones []string
}

// maxTombstones bounds how many disposed ids are remembered. Disposing an id
// forgotten since is ErrInvalidSession instead of a no-op.
const maxTombstones = 1024

// bury records a disposed id. c.mu must be held.
func (c *Controller) bury(id string) {
	if _, ok := c.disposed[id]; ok {
		return
	}
	c.disposed[id] = struct{}{}
	c.tombstones = append(c.tombstones, id)

	if len(c.tombstones) > maxTombstones {
		oldest := c.tombstones[0]
		c.tombstones = c.tombstones[1:]
		delete(c.disposed, oldest)
	}
}

func NewController(options Options) *Controller {
	return &Controller{
		options:  options,
		sessions: make(map[string]*Session),
		pending:  make(map[string]*Pending),
		disposed: make(map[string]struct{}),
	}
}

// NewControllerFromConfig wires the upstream extractor, the configured engine
// and the asset root from the global configuration.
func NewControllerFromConfig() (*Controller, error) {
	engines, err := player.FactoryFromConfig()
	if err != nil {
		return nil, err
	}

	return NewController(Options{
		Resolver: NewResolver(provider.Default(), viper.GetString(key.PlayerAssetRoot)),
		Engines:  engines,
		Looping:  viper.GetBool(key.PlayerLooping),
	}), nil
}

// Pending is a session being resolved.
type Pending struct {
	id         string
	controller *Controller
	done       chan struct{}
	result     mo.Result[string]
}

// Await blocks until the resolution finishes or ctx is done. The result holds the session id.
func (p *Pending) Await(ctx context.Context) mo.Result[string] {
	select {
	case <-p.done:
		return p.result
	case <-ctx.Done():
		return mo.Err[string](ctx.Err())
	}
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Cancel abandons the resolution. Its result is discarded and anything it built is released.
func (p *Pending) Cancel() {
	p.controller.cancel(p)
}

// Create resolves the descriptor in the background. The session becomes visible only
// once the source is prepared on an engine.
func (c *Controller) Create(d Descriptor) *Pending {
	p := &Pending{id: uuid.NewString(), controller: c, done: make(chan struct{})}

	c.mu.Lock()
	c.pending[p.id] = p
	c.mu.Unlock()

	go c.resolve(p, d)
	return p
}

func (c *Controller) resolve(p *Pending, d Descriptor) {
	logger := log.With(logrus.Fields{"session": p.id})
	ctx := context.Background()

	res, err := c.options.Resolver.Resolve(ctx, d)
	mode := res.Mode
	if mode == "" {
		mode = ModeCatalog
		if d.IsLive {
			mode = ModeLive
		}
	}
	metrics.ResolutionsTotal.WithLabelValues(string(mode), metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Warnf("resolution failed: %v", err)
		c.finish(p, nil, err)
		return
	}

	logger.Infof("resolved %s source %T", res.Mode, res.Source)
	if c.options.OnResolved != nil {
		c.options.OnResolved(d, res)
	}

	if !c.alive(p) {
		c.finish(p, nil, ErrCancelled)
		return
	}

	engine, surface, err := c.options.Engines()
	if err != nil {
		c.finish(p, nil, err)
		return
	}

	s := newSession(p.id, engine, surface)
	s.Source = res.Source

	if err := engine.Prepare(ctx, res.Source); err != nil {
		s.dispose()
		c.finish(p, nil, err)
		return
	}
	if c.options.Looping {
		if err := engine.SetLooping(true); err != nil {
			logger.Warnf("set looping: %v", err)
		}
	}

	c.finish(p, s, nil)
}

// finish registers the session if the pending entry is still alive, otherwise releases it.
func (c *Controller) finish(p *Pending, s *Session, err error) {
	c.mu.Lock()
	_, alive := c.pending[p.id]
	delete(c.pending, p.id)
	if alive && err == nil {
		c.sessions[s.ID] = s
		metrics.ActiveSessions.Inc()
	}
	c.mu.Unlock()

	switch {
	case err != nil:
		p.result = mo.Err[string](err)
	case !alive:
		s.dispose()
		p.result = mo.Err[string](ErrCancelled)
	default:
		p.result = mo.Ok(s.ID)
	}
	close(p.done)
}

func (c *Controller) alive(p *Pending) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[p.id]
	return ok
}

func (c *Controller) cancel(p *Pending) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, p.id)
}

// Init disposes every session and abandons every pending resolution.
func (c *Controller) Init() {
	c.mu.Lock()
	sessions := lo.Values(c.sessions)
	for id := range c.sessions {
		c.bury(id)
	}
	c.sessions = make(map[string]*Session)
	c.pending = make(map[string]*Pending)
	c.mu.Unlock()

	metrics.ActiveSessions.Sub(float64(len(sessions)))
	for _, s := range sessions {
		s.dispose()
	}
}

func (c *Controller) lookup(id string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrInvalidSession, id)
	}
	return s, nil
}

// Session returns a registered session.
func (c *Controller) Session(id string) (*Session, error) {
	return c.lookup(id)
}

func (c *Controller) Play(id string) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	return s.play()
}

func (c *Controller) Pause(id string) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	return s.pause()
}

func (c *Controller) SetLooping(id string, looping bool) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	return s.engine.SetLooping(looping)
}

// SetVolume clamps volume to [0, 1] before handing it to the engine.
func (c *Controller) SetVolume(id string, volume float64) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	return s.engine.SetVolume(lo.Clamp(volume, 0, 1))
}

// SeekTo moves playback to an absolute position in milliseconds.
func (c *Controller) SeekTo(id string, positionMs int64) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	return s.seekTo(time.Duration(positionMs) * time.Millisecond)
}

// Position reports the playback position in milliseconds.
func (c *Controller) Position(id string) (int64, error) {
	s, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	pos, err := s.engine.Position()
	if err != nil {
		return 0, err
	}
	return pos.Milliseconds(), nil
}

// Attach subscribes a delegate to the session's events. Queued events are flushed to it first.
func (c *Controller) Attach(id string, delegate event.Delegate) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	s.sink.Attach(delegate)
	return nil
}

// Detach unsubscribes the session's delegate. Later events are queued.
func (c *Controller) Detach(id string) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	s.sink.Detach()
	return nil
}

// Dispose releases a session. Disposing an already disposed session is a no-op.
func (c *Controller) Dispose(id string) error {
	c.mu.Lock()
	s, ok := c.sessions[id]
	if ok {
		delete(c.sessions, id)
		c.bury(id)
	}
	_, gone := c.disposed[id]
	c.mu.Unlock()

	if !ok {
		if gone {
			return nil
		}
		return fmt.Errorf("%w %q", ErrInvalidSession, id)
	}

	metrics.ActiveSessions.Dec()
	s.dispose()
	return nil
}

// Len returns the number of registered sessions.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
