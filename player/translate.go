package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/tubelink/tubelink/log"
	"github.com/tubelink/tubelink/source"
)

// translator turns raw mpv events into engine notifications.
// It is driven by the single event listener goroutine.
type translator struct {
	query  func(name string) (interface{}, error)
	notify func(Notification)

	ready     bool
	buffering bool
	percent   int
}

func (t *translator) handle(name string, data interface{}) {
	switch name {
	case "video-reconfig", "playback-restart":
		if !t.ready {
			t.ready = true
			t.notify(t.readyState())
		}
	case "paused-for-cache":
		buffering, _ := data.(bool)
		switch {
		case buffering && !t.buffering:
			t.notify(Buffering{Percent: t.percent})
		case !buffering && t.buffering:
			t.notify(Buffering{Percent: t.percent, Done: true})
		}
		t.buffering = buffering
	case "cache-buffering-state":
		percent, ok := data.(float64)
		if !ok || int(percent) == t.percent {
			return
		}
		t.percent = int(percent)
		if t.buffering {
			t.notify(Buffering{Percent: t.percent})
		}
	case "eof-reached":
		if eof, _ := data.(bool); eof {
			t.notify(Completed{})
		}
	case "end-file":
		event, _ := data.(map[string]interface{})
		if reason, _ := event["reason"].(string); reason == "error" {
			message, _ := event["file_error"].(string)
			if message == "" {
				message = "playback failed"
			}
			t.notify(Failed{Err: fmt.Errorf("%w: %s", source.ErrPlayback, message)})
		}
	}
}

// readyState queries the loaded file's geometry. Missing properties, such as width
// for an audio-only source, are reported as zero.
func (t *translator) readyState() Ready {
	var r Ready
	if seconds, err := t.float("duration"); err == nil {
		r.Duration = time.Duration(seconds * float64(time.Second))
	}
	if w, err := t.float("width"); err == nil {
		r.Width = int(w)
	}
	if h, err := t.float("height"); err == nil {
		r.Height = int(h)
	}
	if rot, err := t.float("video-params/rotate"); err == nil {
		r.Rotation = int(rot)
	}
	return r
}

func (t *translator) float(name string) (float64, error) {
	data, err := t.query(name)
	if err != nil {
		if !errors.Is(err, ErrPropertyUnavailable) {
			log.Debugf("mpv property %s: %v", name, err)
		}
		return 0, err
	}
	return toFloat(name, data)
}
