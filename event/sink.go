package event

import "sync"

// Delegate receives events once attached to a Sink.
type Delegate interface {
	Deliver(Event)
}

// DelegateFunc adapts a function to Delegate.
type DelegateFunc func(Event)

func (f DelegateFunc) Deliver(e Event) { f(e) }

// Sink relays events to a delegate that may attach late or not at all.
//
// While no delegate is attached, events are queued. Attaching flushes the queue in
// emission order before any later event is delivered. Detaching switches back to
// queuing. No event is dropped until Close.
//
// Delegates are called without the sink lock held, so a delegate may detach, close
// or emit from inside Deliver. At most one goroutine delivers at a time; events
// emitted meanwhile are queued and delivered by it in order.
type Sink struct {
	mu         sync.Mutex
	delegate   Delegate
	queue      []Event
	delivering bool
	closed     bool
	observe    func(Event)
}

// NewSink returns an empty sink in queuing mode. The optional observer sees every emitted event.
func NewSink(observe func(Event)) *Sink {
	return &Sink{observe: observe}
}

// Emit delivers the event to the attached delegate or queues it.
func (s *Sink) Emit(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.observe != nil {
		s.observe(e)
	}
	s.queue = append(s.queue, e)
	s.drain()
}

// drain delivers queued events until the queue is empty or the delegate goes away.
// It is called with s.mu held and releases it.
func (s *Sink) drain() {
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true

	for len(s.queue) > 0 && s.delegate != nil && !s.closed {
		d, e := s.delegate, s.queue[0]
		s.queue = s.queue[1:]

		s.mu.Unlock()
		d.Deliver(e)
		s.mu.Lock()
	}

	s.delivering = false
	s.mu.Unlock()
}

// Attach sets the delegate and flushes everything queued so far to it.
// Attaching nil is the same as Detach.
func (s *Sink) Attach(d Delegate) {
	if d == nil {
		s.Detach()
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.delegate = d
	s.drain()
}

// Detach removes the delegate. Later events are queued again.
func (s *Sink) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = nil
}

// Pending returns the number of events not yet delivered.
func (s *Sink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Closed reports whether Close was called.
func (s *Sink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close drops the delegate and the queue. Emissions after Close are ignored.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.delegate = nil
	s.queue = nil
}
