package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tubelink/tubelink/event"
	"github.com/tubelink/tubelink/filesystem"
	"github.com/tubelink/tubelink/player"
	"github.com/tubelink/tubelink/provider"
	"github.com/tubelink/tubelink/quality"
	"github.com/tubelink/tubelink/source"
)

const videoID = "dQw4w9WgXcQ"

func await(p *Pending) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Await(ctx).Get()
}

func TestCreate(t *testing.T) {
	Convey("Given a controller", t, func() {
		h := newHarness("/assets")
		h.extractor.catalog = source.NewCatalog(rep("243", source.Video), rep("134", source.Video), rep("160", source.Video), rep("140", source.Audio))

		Convey("720p over a 360p catalog plays the 360p primary merged with the baseline audio", func() {
			id, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}, Quality: quality.Tier720}))
			So(err, ShouldBeNil)
			So(id, ShouldNotBeEmpty)
			So(h.controller.Len(), ShouldEqual, 1)

			merged, ok := h.engine(0).prepared.(source.Merged)
			So(ok, ShouldBeTrue)
			So(merged.Video.ID, ShouldEqual, "243")
			So(merged.Audio.ID, ShouldEqual, "140")
		})

		Convey("A watch url resolves like its id", func() {
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: "https://www.youtube.com/watch?v=" + videoID}, Quality: quality.Default}))
			So(err, ShouldBeNil)
			So(h.engine(0).prepared.(source.Merged).Video.ID, ShouldEqual, "243")
		})

		Convey("A live request without a live manifest fails with an extraction failure", func() {
			h.extractor.live = provider.LiveManifest{Status: provider.NotLive}
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}, IsLive: true}))
			So(errors.Is(err, source.ErrExtraction), ShouldBeTrue)
			So(h.controller.Len(), ShouldEqual, 0)
			So(h.engineCount(), ShouldEqual, 0)
		})

		Convey("A failed live fetch fails with a network error", func() {
			h.extractor.live = provider.LiveManifest{Status: provider.FetchFailed, Err: source.ErrNetwork}
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}, IsLive: true}))
			So(errors.Is(err, source.ErrNetwork), ShouldBeTrue)
		})

		Convey("A live HLS manifest is played as a single manifest", func() {
			h.extractor.live = provider.LiveManifest{Status: provider.Present, URL: "https://manifest.example.com/live/index.m3u8"}
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}, IsLive: true}))
			So(err, ShouldBeNil)
			So(h.engine(0).prepared, ShouldResemble, source.SingleManifest{URL: "https://manifest.example.com/live/index.m3u8"})
		})

		Convey("A live DASH manifest is unsupported", func() {
			h.extractor.live = provider.LiveManifest{Status: provider.Present, URL: "https://manifest.example.com/live/manifest.mpd"}
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}, IsLive: true}))
			So(errors.Is(err, source.ErrUnsupportedContainer), ShouldBeTrue)
		})

		Convey("An extraction failure fails creation without a session", func() {
			h.extractor.catalogErr = source.ErrExtraction
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}}))
			So(errors.Is(err, source.ErrExtraction), ShouldBeTrue)
			So(h.controller.Len(), ShouldEqual, 0)
		})

		Convey("A direct media url is played as is", func() {
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: "https://media.example.com/clip.mp4"}}))
			So(err, ShouldBeNil)
			So(h.engine(0).prepared, ShouldResemble, source.SingleManifest{URL: "https://media.example.com/clip.mp4"})

			_, err = await(h.controller.Create(Descriptor{Source: SourceRef{URI: "https://media.example.com/clip.exe"}}))
			So(errors.Is(err, source.ErrUnsupportedContainer), ShouldBeTrue)
		})

		Convey("An asset resolves under the asset root", func() {
			filesystem.SetMemMapFs()
			defer filesystem.SetOsFs()
			So(filesystem.API().MkdirAll("/assets", 0o755), ShouldBeNil)
			So(filesystem.API().WriteFile("/assets/intro.mp4", []byte("x"), 0o644), ShouldBeNil)

			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{Asset: "../intro.mp4"}}))
			So(err, ShouldBeNil)
			So(h.engine(0).prepared, ShouldResemble, source.SingleManifest{URL: "/assets/intro.mp4"})

			_, err = await(h.controller.Create(Descriptor{Source: SourceRef{Asset: "missing.mp4"}}))
			So(errors.Is(err, source.ErrExtraction), ShouldBeTrue)
		})

		Convey("A descriptor needs exactly one source", func() {
			_, err := await(h.controller.Create(Descriptor{}))
			So(err, ShouldNotBeNil)
			_, err = await(h.controller.Create(Descriptor{Source: SourceRef{Asset: "a.mp4", URI: videoID}}))
			So(err, ShouldNotBeNil)
		})

		Convey("A failed prepare releases the engine and creates nothing", func() {
			h.configure = func(e *fakeEngine) { e.prepareErr = source.ErrPlayback }
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}}))
			So(errors.Is(err, source.ErrPlayback), ShouldBeTrue)
			So(h.controller.Len(), ShouldEqual, 0)
			So(h.released.get(), ShouldResemble, []string{"surface", "engine", "sink"})
		})

		Convey("Looping is applied to new sessions when configured", func() {
			h.controller.options.Looping = true
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}}))
			So(err, ShouldBeNil)
			So(h.engine(0).looping, ShouldBeTrue)
		})

		Convey("Successful resolutions are reported", func() {
			var got Resolution
			h.controller.options.OnResolved = func(_ Descriptor, r Resolution) { got = r }
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}, Quality: quality.Tier144}))
			So(err, ShouldBeNil)
			So(got.Mode, ShouldEqual, ModeCatalog)
			So(got.VideoID, ShouldEqual, videoID)
			So(got.VideoRepresentation, ShouldEqual, "160")
			So(got.AudioRepresentation, ShouldEqual, "140")
		})
	})
}

func TestCancel(t *testing.T) {
	Convey("Given a resolution still in flight", t, func() {
		h := newHarness("/")
		h.extractor.catalog = source.NewCatalog(rep("160", source.Video), rep("140", source.Audio))
		h.extractor.gate = make(chan struct{})

		pending := h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}})

		Convey("Cancelling discards the result without building an engine", func() {
			pending.Cancel()
			close(h.extractor.gate)

			_, err := await(pending)
			So(errors.Is(err, ErrCancelled), ShouldBeTrue)
			So(h.controller.Len(), ShouldEqual, 0)
			So(h.engineCount(), ShouldEqual, 0)
		})

		Convey("Init abandons it", func() {
			h.controller.Init()
			close(h.extractor.gate)

			_, err := await(pending)
			So(errors.Is(err, ErrCancelled), ShouldBeTrue)
			So(h.controller.Len(), ShouldEqual, 0)
		})

		Convey("Await honours its context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			So(errors.Is(pending.Await(ctx).Error(), context.Canceled), ShouldBeTrue)
			close(h.extractor.gate)
			<-pending.Done()
		})
	})
}

func TestControls(t *testing.T) {
	Convey("Given a created session", t, func() {
		h := newHarness("/")
		h.extractor.catalog = source.NewCatalog(rep("160", source.Video), rep("140", source.Audio))
		id, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}}))
		So(err, ShouldBeNil)
		engine := h.engine(0)
		s, err := h.controller.Session(id)
		So(err, ShouldBeNil)

		Convey("Volume is clamped to [0, 1]", func() {
			So(h.controller.SetVolume(id, 1.7), ShouldBeNil)
			So(engine.volume, ShouldEqual, 1.0)
			So(h.controller.SetVolume(id, -0.2), ShouldBeNil)
			So(engine.volume, ShouldEqual, 0.0)
			So(h.controller.SetVolume(id, 0.4), ShouldBeNil)
			So(engine.volume, ShouldEqual, 0.4)
		})

		Convey("Transport controls delegate to the engine", func() {
			So(h.controller.Play(id), ShouldBeNil)
			So(engine.playing, ShouldBeTrue)
			So(s.State(), ShouldEqual, Playing)

			So(h.controller.Pause(id), ShouldBeNil)
			So(engine.playing, ShouldBeFalse)
			So(s.State(), ShouldEqual, Paused)

			So(h.controller.SetLooping(id, true), ShouldBeNil)
			So(engine.looping, ShouldBeTrue)

			So(h.controller.SeekTo(id, 1500), ShouldBeNil)
			So(engine.seek, ShouldEqual, 1500*time.Millisecond)

			engine.position = 2750 * time.Millisecond
			pos, err := h.controller.Position(id)
			So(err, ShouldBeNil)
			So(pos, ShouldEqual, 2750)
		})

		Convey("Unknown ids are invalid", func() {
			for _, op := range []func() error{
				func() error { return h.controller.Play("nope") },
				func() error { return h.controller.Pause("nope") },
				func() error { return h.controller.SetVolume("nope", 1) },
				func() error { return h.controller.SeekTo("nope", 0) },
				func() error { return h.controller.Dispose("nope") },
				func() error { return h.controller.Attach("nope", &collector{}) },
			} {
				err := op()
				So(errors.Is(err, ErrInvalidSession), ShouldBeTrue)
				So(err.Error(), ShouldStartWith, "no session for id")
			}
		})

		Convey("Dispose releases surface, engine and event sink in order, exactly once", func() {
			So(h.controller.Dispose(id), ShouldBeNil)
			So(h.controller.Dispose(id), ShouldBeNil)
			So(h.released.get(), ShouldResemble, []string{"surface", "engine", "sink"})
			So(s.State(), ShouldEqual, Disposed)

			So(errors.Is(h.controller.Play(id), ErrInvalidSession), ShouldBeTrue)
			_, err := h.controller.Position(id)
			So(errors.Is(err, ErrInvalidSession), ShouldBeTrue)
		})

		Convey("A disposed session emits nothing more", func() {
			events := &collector{}
			So(h.controller.Attach(id, events), ShouldBeNil)
			So(h.controller.Dispose(id), ShouldBeNil)

			engine.notify(player.Completed{})
			So(events.get(), ShouldBeEmpty)
		})

		Convey("Init disposes every session", func() {
			_, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}}))
			So(err, ShouldBeNil)
			So(h.controller.Len(), ShouldEqual, 2)

			h.controller.Init()
			So(h.controller.Len(), ShouldEqual, 0)
			So(h.released.get(), ShouldHaveLength, 6)
			So(h.controller.Dispose(id), ShouldBeNil)
		})
	})
}

func TestEvents(t *testing.T) {
	Convey("Given a session whose engine reports readiness while preparing", t, func() {
		h := newHarness("/")
		h.extractor.catalog = source.NewCatalog(rep("160", source.Video), rep("140", source.Audio))
		h.configure = func(e *fakeEngine) {
			e.onPrepare = []player.Notification{player.Ready{Duration: 90 * time.Second, Width: 1920, Height: 1080, Rotation: 90}}
		}

		id, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}}))
		So(err, ShouldBeNil)
		engine := h.engine(0)
		events := &collector{}

		Convey("The early initialized event is delivered on attach, rotated, and only once", func() {
			So(h.controller.Attach(id, events), ShouldBeNil)
			engine.notify(player.Ready{Duration: 90 * time.Second, Width: 1920, Height: 1080})

			So(events.get(), ShouldResemble, []event.Event{
				event.Initialized{Duration: 90000, Width: 1080, Height: 1920},
			})
		})

		Convey("Buffering updates are sent when the percentage changes", func() {
			So(h.controller.Attach(id, events), ShouldBeNil)
			s, _ := h.controller.Session(id)

			engine.notify(player.Buffering{Percent: 10})
			So(s.State(), ShouldEqual, Buffering)
			engine.notify(player.Buffering{Percent: 10})
			engine.notify(player.Buffering{Percent: 55})
			engine.notify(player.Buffering{Percent: 55, Done: true})
			So(s.State(), ShouldEqual, Prepared)

			So(events.get()[1:], ShouldResemble, []event.Event{
				event.BufferingUpdate{Percent: 10},
				event.BufferingUpdate{Percent: 55},
			})
		})

		Convey("Completion and errors are events, errors keep the session", func() {
			engine.notify(player.Failed{Err: errors.New("decoder exploded")})
			engine.notify(player.Completed{})
			So(h.controller.Attach(id, events), ShouldBeNil)

			got := events.get()
			So(got, ShouldHaveLength, 3)
			So(got[1], ShouldResemble, event.Error{Kind: "VideoError", Message: "decoder exploded"})
			So(got[2], ShouldResemble, event.Completed{})
			So(h.controller.Len(), ShouldEqual, 1)
		})

		Convey("A subscriber may dispose its session when playback completes", func() {
			var disposeErr error
			So(h.controller.Attach(id, event.DelegateFunc(func(e event.Event) {
				if _, ok := e.(event.Completed); ok {
					disposeErr = h.controller.Dispose(id)
				}
			})), ShouldBeNil)

			done := make(chan struct{})
			go func() {
				engine.notify(player.Completed{})
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				So("dispose from a subscriber returned", ShouldBeEmpty)
			}
			So(disposeErr, ShouldBeNil)
			So(h.controller.Len(), ShouldEqual, 0)
			So(h.released.get(), ShouldResemble, []string{"surface", "engine", "sink"})
		})

		Convey("Attaching nil leaves events queued", func() {
			engine.notify(player.Completed{})
			So(h.controller.Attach(id, nil), ShouldBeNil)
			So(h.controller.Attach(id, events), ShouldBeNil)
			So(events.get(), ShouldHaveLength, 2)
		})

		Convey("Detached events wait for the next subscriber", func() {
			So(h.controller.Attach(id, events), ShouldBeNil)
			So(h.controller.Detach(id), ShouldBeNil)
			engine.notify(player.Completed{})
			So(events.get(), ShouldHaveLength, 1)

			late := &collector{}
			So(h.controller.Attach(id, late), ShouldBeNil)
			So(late.get(), ShouldResemble, []event.Event{event.Completed{}})
		})
	})
}

func TestTombstones(t *testing.T) {
	Convey("Given a controller that disposed more sessions than it remembers", t, func() {
		h := newHarness("/")
		h.extractor.catalog = source.NewCatalog(rep("160", source.Video), rep("140", source.Audio))

		first, err := await(h.controller.Create(Descriptor{Source: SourceRef{URI: videoID}}))
		So(err, ShouldBeNil)
		So(h.controller.Dispose(first), ShouldBeNil)

		h.controller.mu.Lock()
		for i := 0; i < maxTombstones; i++ {
			h.controller.bury(fmt.Sprintf("gone-%d", i))
		}
		remembered := len(h.controller.disposed)
		h.controller.mu.Unlock()

		Convey("The oldest ids are forgotten", func() {
			So(remembered, ShouldEqual, maxTombstones)
			So(errors.Is(h.controller.Dispose(first), ErrInvalidSession), ShouldBeTrue)
			So(h.controller.Dispose("gone-1"), ShouldBeNil)
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Rotation normalization", t, func() {
		for rotation, want := range map[int][2]int{0: {1920, 1080}, 90: {1080, 1920}, 180: {1920, 1080}, 270: {1080, 1920}, -90: {1080, 1920}} {
			w, h := normalize(1920, 1080, rotation)
			So([2]int{w, h}, ShouldResemble, want)
		}
	})
}
