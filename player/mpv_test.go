package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/tubelink/tubelink/key"
	"github.com/tubelink/tubelink/source"
)

// fakeMPV answers IPC commands on a unix socket the way mpv does.
type fakeMPV struct {
	listener   net.Listener
	path       string
	mu         sync.Mutex
	properties map[string]interface{}
	commands   [][]interface{}
	observers  []net.Conn
}

func newFakeMPV(t *testing.T) *fakeMPV {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("tubelink-test-%d.sock", time.Now().UnixNano()))
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}

	f := &fakeMPV{listener: l, path: path, properties: map[string]interface{}{}}
	go f.serve()
	return f
}

func (f *fakeMPV) serve() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeMPV) handle(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd ipcCommand
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			continue
		}

		f.mu.Lock()
		f.commands = append(f.commands, cmd.Command)
		reply := map[string]interface{}{"request_id": cmd.RequestID, "error": "success"}
		switch cmd.Command[0] {
		case "get_property":
			if v, ok := f.properties[cmd.Command[1].(string)]; ok {
				reply["data"] = v
			} else {
				reply["error"] = "property unavailable"
			}
		case "set_property":
			f.properties[cmd.Command[1].(string)] = cmd.Command[2]
		case "observe_property":
			f.observers = append(f.observers, conn)
		}
		f.mu.Unlock()

		// an unrelated event precedes every reply
		_, _ = conn.Write([]byte(`{"event":"audio-reconfig"}` + "\n"))
		data, _ := json.Marshal(reply)
		_, _ = conn.Write(append(data, '\n'))
	}
}

func (f *fakeMPV) push(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.observers {
		_, _ = c.Write([]byte(event + "\n"))
	}
}

func (f *fakeMPV) set(name string, v interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.properties[name] = v
}

func (f *fakeMPV) get(name string) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.properties[name]
}

func (f *fakeMPV) close() {
	f.listener.Close()
	_ = os.Remove(f.path)
}

func TestBuildArgs(t *testing.T) {
	Convey("Given an mpv socket", t, func() {
		video := source.Representation{ID: "243", URL: "https://cdn.example.com/v.webm"}
		audio := source.Representation{ID: "140", URL: "https://cdn.example.com/a.m4a", Kind: source.Audio}

		Convey("A merged source passes the audio track separately", func() {
			args, err := buildArgs("/tmp/s.sock", source.Merged{Video: video, Audio: audio})
			So(err, ShouldBeNil)
			So(args, ShouldContain, "--input-ipc-server=/tmp/s.sock")
			So(args, ShouldContain, "--audio-file=https://cdn.example.com/a.m4a")
			So(args, ShouldContain, "--pause=yes")
			So(args[len(args)-2:], ShouldResemble, []string{"--", "https://cdn.example.com/v.webm"})
		})

		Convey("A single manifest passes only its url", func() {
			args, err := buildArgs("/tmp/s.sock", source.SingleManifest{URL: "https://host/live.m3u8"})
			So(err, ShouldBeNil)
			So(args[len(args)-1], ShouldEqual, "https://host/live.m3u8")
			for _, a := range args {
				So(a, ShouldNotStartWith, "--audio-file")
			}
		})

		Convey("Flag-like or foreign targets are rejected", func() {
			_, err := buildArgs("/tmp/s.sock", source.SingleManifest{URL: "--script=evil.lua"})
			So(err, ShouldNotBeNil)
			_, err = buildArgs("/tmp/s.sock", source.Merged{Video: video, Audio: source.Representation{URL: "ftp://host/a"}})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTranslator(t *testing.T) {
	Convey("Given a translator", t, func() {
		props := map[string]interface{}{"duration": 12.5, "width": 1920.0, "height": 1080.0, "video-params/rotate": 90.0}
		var got []Notification
		tr := &translator{
			query: func(name string) (interface{}, error) {
				if v, ok := props[name]; ok {
					return v, nil
				}
				return nil, ErrPropertyUnavailable
			},
			notify: func(n Notification) { got = append(got, n) },
		}

		Convey("Ready is reported once with raw geometry", func() {
			tr.handle("video-reconfig", nil)
			tr.handle("playback-restart", nil)
			So(got, ShouldResemble, []Notification{Ready{Duration: 12500 * time.Millisecond, Width: 1920, Height: 1080, Rotation: 90}})
		})

		Convey("Buffering percentages are reported while buffering", func() {
			tr.handle("cache-buffering-state", 10.0)
			tr.handle("paused-for-cache", true)
			tr.handle("cache-buffering-state", 40.0)
			tr.handle("cache-buffering-state", 40.0)
			tr.handle("paused-for-cache", false)
			tr.handle("cache-buffering-state", 90.0)
			So(got, ShouldResemble, []Notification{Buffering{Percent: 10}, Buffering{Percent: 40}, Buffering{Percent: 40, Done: true}})
		})

		Convey("End of file and errors are reported", func() {
			tr.handle("eof-reached", false)
			tr.handle("eof-reached", true)
			tr.handle("end-file", map[string]interface{}{"reason": "error", "file_error": "loading failed"})
			tr.handle("end-file", map[string]interface{}{"reason": "quit"})

			So(got, ShouldHaveLength, 2)
			So(got[0], ShouldResemble, Completed{})
			failed := got[1].(Failed)
			So(errors.Is(failed.Err, source.ErrPlayback), ShouldBeTrue)
			So(failed.Err.Error(), ShouldContainSubstring, "loading failed")
		})
	})
}

func TestMPVControls(t *testing.T) {
	Convey("Given an mpv listening on its socket", t, func() {
		fake := newFakeMPV(t)
		defer fake.close()

		mpv := NewMPV()
		mpv.socketPath = fake.path

		Convey("Transport controls set the matching properties", func() {
			So(mpv.Play(), ShouldBeNil)
			So(fake.get("pause"), ShouldEqual, false)
			So(mpv.Pause(), ShouldBeNil)
			So(fake.get("pause"), ShouldEqual, true)
			So(mpv.SetLooping(true), ShouldBeNil)
			So(fake.get("loop-file"), ShouldEqual, "inf")
			So(mpv.SetLooping(false), ShouldBeNil)
			So(fake.get("loop-file"), ShouldEqual, "no")
			So(mpv.SetVolume(0.5), ShouldBeNil)
			So(fake.get("volume"), ShouldEqual, 50.0)
		})

		Convey("Position reads time-pos", func() {
			fake.set("time-pos", 3.25)
			pos, err := mpv.Position()
			So(err, ShouldBeNil)
			So(pos, ShouldEqual, 3250*time.Millisecond)
		})

		Convey("An unavailable property is not retried", func() {
			_, err := mpv.Position()
			So(errors.Is(err, ErrPropertyUnavailable), ShouldBeTrue)
		})

		Convey("Releasing the surface drops the video output", func() {
			So(mpv.Surface().Release(), ShouldBeNil)
			So(fake.get("vid"), ShouldEqual, "no")
			So(fake.get("force-window"), ShouldEqual, false)
		})

		Convey("The event listener forwards property changes", func() {
			received := make(chan string, 64)
			el := NewEventListener(fake.path, func(name string, data interface{}) {
				received <- fmt.Sprintf("%s=%v", name, data)
			})
			So(el.Start(), ShouldBeNil)
			defer el.Stop()

			deadline := time.After(2 * time.Second)
			for {
				fake.mu.Lock()
				n := len(fake.observers)
				fake.mu.Unlock()
				if n == len(observedProperties) {
					break
				}
				select {
				case <-deadline:
					t.Fatal("observers not registered")
				case <-time.After(10 * time.Millisecond):
				}
			}

			fake.push(`{"event":"property-change","id":3,"name":"eof-reached","data":true}`)
			timeout := time.After(2 * time.Second)
			for found := false; !found; {
				select {
				case got := <-received:
					found = got == "eof-reached=true"
				case <-timeout:
					t.Fatal("no eof event received")
				}
			}
		})
	})

	Convey("The event listener may be stopped from its own callback", t, func() {
		fake := newFakeMPV(t)
		defer fake.close()

		stopped := make(chan struct{})
		var el *EventListener
		var once sync.Once
		el = NewEventListener(fake.path, func(name string, data interface{}) {
			once.Do(func() {
				el.Stop()
				close(stopped)
			})
		})
		So(el.Start(), ShouldBeNil)

		select {
		case <-stopped:
		case <-time.After(3 * time.Second):
			t.Fatal("stop from callback did not return")
		}
		el.Stop()
	})

	Convey("A failed start releases at once", t, func() {
		t.Setenv("PATH", "")
		mpv := NewMPV()
		err := mpv.Prepare(context.Background(), source.SingleManifest{URL: "https://host/live.m3u8"})
		So(errors.Is(err, source.ErrPlayback), ShouldBeTrue)

		start := time.Now()
		So(mpv.Surface().Release(), ShouldBeNil)
		So(mpv.Release(), ShouldBeNil)
		So(time.Since(start), ShouldBeLessThan, time.Second)
		So(errors.Is(mpv.Play(), ErrNotPrepared), ShouldBeTrue)
	})

	Convey("Controls before Prepare fail", t, func() {
		mpv := NewMPV()
		So(errors.Is(mpv.Play(), ErrNotPrepared), ShouldBeTrue)
		_, err := mpv.Position()
		So(errors.Is(err, ErrNotPrepared), ShouldBeTrue)
		So(mpv.Release(), ShouldBeNil)
		So(mpv.Surface().Release(), ShouldBeNil)
	})
}

func TestFactoryFromConfig(t *testing.T) {
	Convey("The configured engine is built", t, func() {
		defer viper.Set(key.PlayerEngine, "mpv")

		viper.Set(key.PlayerEngine, "mpv")
		factory, err := FactoryFromConfig()
		So(err, ShouldBeNil)
		engine, surface, err := factory()
		So(err, ShouldBeNil)
		So(engine, ShouldHaveSameTypeAs, &MPV{})
		So(surface, ShouldNotBeNil)

		viper.Set(key.PlayerEngine, "vlc")
		_, err = FactoryFromConfig()
		So(err, ShouldNotBeNil)
	})
}
