package player

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tubelink/tubelink/constant"
	"github.com/tubelink/tubelink/log"
	"github.com/tubelink/tubelink/source"
	"github.com/tubelink/tubelink/where"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
	terminateTimeout  = time.Second
)

// ErrNotPrepared is returned by controls used before Prepare.
var ErrNotPrepared = errors.New("mpv: no source prepared")

// MPV implements Engine by spawning an mpv process and talking to it over its IPC socket.
type MPV struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when the mpv process exits
	events     *EventListener
	listener   Listener
	mu         sync.Mutex // protects socket writes
	releaseMu  sync.Mutex
	released   bool
}

// NewMPV creates an engine. Nothing is spawned until Prepare.
func NewMPV() *MPV {
	return &MPV{exited: make(chan struct{})}
}

func (m *MPV) SetListener(listener Listener) {
	m.listener = listener
}

// Surface returns the mpv window as a releasable surface.
func (m *MPV) Surface() Surface {
	return window{m}
}

// Prepare spawns mpv paused on the source. A merged source passes the audio track
// with --audio-file so that both play on one clock.
func (m *MPV) Prepare(ctx context.Context, src source.PlaybackSource) error {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	socketPath := filepath.Join(where.Temp(), fmt.Sprintf("%s-%x.sock", constant.Tubelink, randomBytes))

	args, err := buildArgs(socketPath, src)
	if err != nil {
		return fmt.Errorf("%w: %v", source.ErrPlayback, err)
	}

	cmd := exec.Command("mpv", args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start mpv: %v", source.ErrPlayback, err)
	}

	// socketPath is only set once there is a process behind it.
	exited := make(chan struct{})
	m.cmd, m.exited, m.socketPath = cmd, exited, socketPath
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	if err := m.waitForSocket(ctx); err != nil {
		if m.cmd.Process != nil {
			select {
			case <-m.exited:
			default:
				log.Warnf("killing mpv: socket never became ready")
				_ = killProcess(m.cmd)
			}
		}
		return fmt.Errorf("%w: mpv socket not ready: %v", source.ErrPlayback, err)
	}

	tr := &translator{query: m.property, notify: m.notify}
	m.events = NewEventListener(m.socketPath, tr.handle)
	if err := m.events.Start(); err != nil {
		return fmt.Errorf("%w: %v", source.ErrPlayback, err)
	}

	return nil
}

// buildArgs returns the mpv command line for a source. User mpv.conf settings
// such as --vo or --hwdec are left alone.
func buildArgs(socketPath string, src source.PlaybackSource) ([]string, error) {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
		"--force-window=yes",
		"--keep-open=yes",
		"--pause=yes",
	}

	var target string
	switch s := src.(type) {
	case source.Merged:
		video, err := sanitizeMediaTarget(s.Video.URL)
		if err != nil {
			return nil, fmt.Errorf("video: %w", err)
		}
		audio, err := sanitizeMediaTarget(s.Audio.URL)
		if err != nil {
			return nil, fmt.Errorf("audio: %w", err)
		}
		args = append(args, fmt.Sprintf("--audio-file=%s", audio))
		target = video
	case source.SingleManifest:
		u, err := sanitizeMediaTarget(s.URL)
		if err != nil {
			return nil, err
		}
		target = u
	default:
		return nil, fmt.Errorf("unsupported source %T", src)
	}

	return append(args, "--", target), nil
}

func (m *MPV) notify(n Notification) {
	if m.listener != nil {
		m.listener(n)
	}
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket(ctx context.Context) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

func (m *MPV) Play() error {
	return m.Set("pause", false)
}

func (m *MPV) Pause() error {
	return m.Set("pause", true)
}

// SetLooping toggles loop-file between inf and no.
func (m *MPV) SetLooping(looping bool) error {
	if looping {
		return m.Set("loop-file", "inf")
	}
	return m.Set("loop-file", "no")
}

// SetVolume maps [0, 1] onto mpv's 0-100 volume scale.
func (m *MPV) SetVolume(volume float64) error {
	return m.Set("volume", math.Round(volume*100))
}

func (m *MPV) SeekTo(position time.Duration) error {
	if m.socketPath == "" {
		return ErrNotPrepared
	}
	_, err := m.sendCommand([]interface{}{"seek", position.Seconds(), "absolute"})
	return err
}

func (m *MPV) Position() (time.Duration, error) {
	seconds, err := m.getFloatProperty("time-pos")
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Release quits mpv, killing it if it does not exit in time, and removes the socket.
// Only the first call has an effect.
func (m *MPV) Release() error {
	m.releaseMu.Lock()
	defer m.releaseMu.Unlock()

	if m.released || m.cmd == nil || m.cmd.Process == nil {
		m.released = true
		return nil
	}
	m.released = true

	if m.events != nil {
		m.events.Stop()
	}

	_, _ = m.sendCommand([]interface{}{"quit"})

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		_ = terminateProcess(m.cmd)
		select {
		case <-m.exited:
		case <-time.After(terminateTimeout):
			_ = killProcess(m.cmd)
		}
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// Set a property
func (m *MPV) Set(property string, value interface{}) error {
	if m.socketPath == "" {
		return ErrNotPrepared
	}
	_, err := m.sendCommand([]interface{}{"set_property", property, value})
	return err
}

func (m *MPV) property(name string) (interface{}, error) {
	return m.sendCommand([]interface{}{"get_property", name})
}

// getFloatProperty is a helper to retrieve a float64 mpv property via IPC.
func (m *MPV) getFloatProperty(name string) (float64, error) {
	if m.socketPath == "" {
		return 0, ErrNotPrepared
	}

	data, err := m.property(name)
	if err != nil {
		return 0, err
	}

	return toFloat(name, data)
}

func toFloat(name string, data interface{}) (float64, error) {
	if data == nil {
		return 0, fmt.Errorf("property %s: nil response", name)
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

// window is the mpv video output. Releasing it drops the video track and closes the window
// while the process keeps running until the engine itself is released.
type window struct {
	m *MPV
}

func (w window) Release() error {
	if w.m.socketPath == "" {
		return nil
	}
	select {
	case <-w.m.exited:
		return nil
	default:
	}
	if err := w.m.Set("force-window", false); err != nil {
		return err
	}
	return w.m.Set("vid", "no")
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// URLs must not look like flags
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}
