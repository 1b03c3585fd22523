package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/tubelink/tubelink/log"
)

// EventCallback is the function signature for mpv event notifications.
// For property changes name is the property; for other events it is the event name
// and data is the whole event object.
type EventCallback func(name string, data interface{})

// observedProperties are the properties the listener subscribes to, keyed by observer id.
var observedProperties = []struct {
	id   int
	name string
}{
	{1, "paused-for-cache"},
	{2, "cache-buffering-state"},
	{3, "eof-reached"},
}

type mpvEvent struct {
	name string
	data interface{}
}

// EventListener provides real-time mpv event monitoring via observe_property.
// The callback runs on its own goroutine, so it may stop the listener.
type EventListener struct {
	socketPath string
	conn       net.Conn
	callback   EventCallback
	events     chan mpvEvent
	stopCh     chan struct{}
	done       chan struct{}
	mu         sync.Mutex
	listening  bool
}

// NewEventListener creates a new event listener for the given socket.
func NewEventListener(socketPath string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
		events:     make(chan mpvEvent, 64),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start opens a persistent connection, subscribes to the observed properties on it
// and starts the read loop. Observers are bound to the connection that registered them.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for _, prop := range observedProperties {
		payload, _ := json.Marshal(ipcCommand{Command: []interface{}{"observe_property", prop.id, prop.name}})
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	el.conn = conn
	el.listening = true

	go el.readLoop()
	go el.dispatch()

	log.Infof("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop terminates the event listener and waits for the read loop to return.
// Events already read may still reach the callback.
func (el *EventListener) Stop() {
	el.mu.Lock()
	if !el.listening {
		el.mu.Unlock()
		return
	}
	close(el.stopCh)
	el.conn.Close()
	el.listening = false
	el.mu.Unlock()

	<-el.done
}

// readLoop reads newline-delimited events from the persistent connection.
func (el *EventListener) readLoop() {
	defer close(el.done)
	defer close(el.events)

	reader := bufio.NewReader(el.conn)
	var pending []byte
	for {
		select {
		case <-el.stopCh:
			return
		default:
		}

		if err := el.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		chunk, err := reader.ReadBytes('\n')
		pending = append(pending, chunk...)
		if err == nil {
			el.processEvent(pending)
			pending = pending[:0]
			continue
		}

		if errors.Is(err, os.ErrDeadlineExceeded) {
			continue
		}
		select {
		case <-el.stopCh:
		default:
			log.Warnf("event listener read error: %v", err)
		}
		return
	}
}

// processEvent parses and dispatches a single mpv event line. Command replies are ignored.
func (el *EventListener) processEvent(line []byte) {
	var event map[string]interface{}
	if err := json.Unmarshal(line, &event); err != nil {
		return
	}

	eventType, ok := event["event"].(string)
	if !ok || el.callback == nil {
		return
	}

	ev := mpvEvent{name: eventType, data: event}
	if eventType == "property-change" {
		name, _ := event["name"].(string)
		if name == "" {
			return
		}
		ev = mpvEvent{name: name, data: event["data"]}
	}

	select {
	case el.events <- ev:
	case <-el.stopCh:
	}
}

// dispatch hands events to the callback in the order they were read.
func (el *EventListener) dispatch() {
	for ev := range el.events {
		el.callback(ev.name, ev.data)
	}
}
