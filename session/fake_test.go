package session

import (
	"context"
	"sync"
	"time"

	"github.com/tubelink/tubelink/event"
	"github.com/tubelink/tubelink/player"
	"github.com/tubelink/tubelink/provider"
	"github.com/tubelink/tubelink/source"
)

// releases records the order resources are released in: surfaces, engines and event sinks.
type releases struct {
	mu    sync.Mutex
	order []string
}

func (r *releases) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *releases) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

type fakeEngine struct {
	mu         sync.Mutex
	listener   player.Listener
	prepared   source.PlaybackSource
	prepareErr error
	onPrepare  []player.Notification
	volume     float64
	looping    bool
	playing    bool
	seek       time.Duration
	position   time.Duration
	released   *releases
}

func (f *fakeEngine) Prepare(_ context.Context, src source.PlaybackSource) error {
	f.mu.Lock()
	f.prepared = src
	err := f.prepareErr
	notes := f.onPrepare
	f.mu.Unlock()

	if err != nil {
		return err
	}
	for _, n := range notes {
		f.notify(n)
	}
	return nil
}

func (f *fakeEngine) notify(n player.Notification) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	l(n)
}

func (f *fakeEngine) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = true
	return nil
}

func (f *fakeEngine) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	return nil
}

func (f *fakeEngine) SetLooping(looping bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.looping = looping
	return nil
}

func (f *fakeEngine) SetVolume(volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = volume
	return nil
}

func (f *fakeEngine) SeekTo(position time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seek = position
	return nil
}

func (f *fakeEngine) Position() (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position, nil
}

func (f *fakeEngine) Release() error {
	f.released.add("engine")
	return nil
}

func (f *fakeEngine) SetListener(listener player.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = listener
}

type fakeSurface struct {
	released *releases
}

func (f fakeSurface) Release() error {
	f.released.add("surface")
	return nil
}

// fakeExtractor serves a fixed catalog and live manifest. A non-nil gate blocks every call until closed.
type fakeExtractor struct {
	catalog    source.Catalog
	catalogErr error
	live       provider.LiveManifest
	gate       chan struct{}
}

func (f *fakeExtractor) wait() {
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeExtractor) Catalog(context.Context, string) (source.Catalog, error) {
	f.wait()
	return f.catalog, f.catalogErr
}

func (f *fakeExtractor) Live(context.Context, string) provider.LiveManifest {
	f.wait()
	return f.live
}

// harness wires a controller to fakes and keeps every engine it builds.
type harness struct {
	extractor  *fakeExtractor
	controller *Controller
	released   *releases

	mu      sync.Mutex
	engines []*fakeEngine
	// configure is applied to each engine before it is handed out.
	configure func(*fakeEngine)
}

func newHarness(assetRoot string) *harness {
	h := &harness{extractor: &fakeExtractor{}, released: &releases{}}
	closeSink = func(sink *event.Sink) {
		h.released.add("sink")
		sink.Close()
	}
	h.controller = NewController(Options{
		Resolver: NewResolver(h.extractor, assetRoot),
		Engines: func() (player.Engine, player.Surface, error) {
			e := &fakeEngine{released: h.released}
			if h.configure != nil {
				h.configure(e)
			}
			h.mu.Lock()
			h.engines = append(h.engines, e)
			h.mu.Unlock()
			return e, fakeSurface{released: h.released}, nil
		},
	})
	return h
}

func (h *harness) engine(i int) *fakeEngine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engines[i]
}

func (h *harness) engineCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.engines)
}

func rep(id string, kind source.MediaKind) source.Representation {
	return source.Representation{ID: id, URL: "https://cdn.example.com/videoplayback?itag=" + id, Kind: kind}
}

type collector struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *collector) Deliver(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) get() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}
