package vgnav

import (
	"sync"

	"go.uber.org/atomic"
)

// Stream is a push-based sequence of router events.  Subscribing never replays
// past events, a subscriber only sees what is published after Subscribe returns.
type Stream interface {
	Subscribe(h EventHandler) Subscription
}

// EventHandler receives events from a Stream.
type EventHandler interface {
	HandleEvent(e Event)
}

// EventHandlerFunc implements EventHandler as a function.
type EventHandlerFunc func(e Event)

// HandleEvent implements the EventHandler interface.
func (f EventHandlerFunc) HandleEvent(e Event) { f(e) }

// StreamCloser may be implemented by an EventHandler that wants to know when
// the stream it is subscribed to terminates.  A nil err means the stream completed.
// StreamClosed is called at most once per subscription.
type StreamCloser interface {
	StreamClosed(err error)
}

// HandlerFuncs implements EventHandler and StreamCloser with a pair of functions.
// Either may be nil.
type HandlerFuncs struct {
	Event  func(e Event)
	Closed func(err error)
}

// HandleEvent implements EventHandler.
func (h HandlerFuncs) HandleEvent(e Event) {
	if h.Event != nil {
		h.Event(e)
	}
}

// StreamClosed implements StreamCloser.
func (h HandlerFuncs) StreamClosed(err error) {
	if h.Closed != nil {
		h.Closed(err)
	}
}

func notifyClosed(h EventHandler, err error) {
	if c, ok := h.(StreamCloser); ok {
		c.StreamClosed(err)
	}
}

// Subscription is the handle returned by Stream.Subscribe.
type Subscription interface {
	// Unsubscribe stops delivery.  It is synchronous, and calling it more than once is a no-op.
	Unsubscribe()
	// Closed reports whether the subscription no longer receives events,
	// either because it was unsubscribed or because its stream terminated.
	Closed() bool
}

type subscription struct {
	handler EventHandler
	active  atomic.Bool
	remove  func(*subscription)
}

func (s *subscription) Unsubscribe() {
	if s.active.CompareAndSwap(true, false) && s.remove != nil {
		s.remove(s)
	}
}

func (s *subscription) Closed() bool { return !s.active.Load() }

// EventStream is a multicast Stream.  Publish delivers synchronously, in
// subscription order, on the publishing goroutine.  Handlers may subscribe,
// unsubscribe and publish from inside HandleEvent.
//
// The zero value is ready to use.
type EventStream struct {
	mu     sync.Mutex
	subs   []*subscription
	closed bool
	err    error
}

// NewEventStream returns an empty EventStream.
func NewEventStream() *EventStream {
	return &EventStream{}
}

// Subscribe implements Stream.  Subscribing to a closed stream returns an
// already closed Subscription and reports the termination to h right away.
func (s *EventStream) Subscribe(h EventHandler) Subscription {
	sub := &subscription{handler: h}

	s.mu.Lock()
	if s.closed {
		err := s.err
		s.mu.Unlock()
		notifyClosed(h, err)
		return sub
	}
	sub.active.Store(true)
	sub.remove = s.remove
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return sub
}

func (s *EventStream) remove(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, s2 := range s.subs {
		if s2 == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every current subscriber.  A subscriber that is
// unsubscribed while e is being delivered does not receive it.
// Publishing on a closed stream does nothing.
func (s *EventStream) Publish(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	subs := make([]*subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.handler.HandleEvent(e)
		}
	}
}

// Close terminates the stream.  Every subscriber implementing StreamCloser is
// told with err (nil for normal completion).  Only the first call has any effect.
func (s *EventStream) Close(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.active.CompareAndSwap(true, false) {
			notifyClosed(sub.handler, err)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (s *EventStream) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Filter returns a Stream with only the events of src for which pred is true,
// in the order src emits them.  It is lazy: nothing subscribes to src until the
// returned Stream is subscribed to, and each subscription to it is one
// subscription to src.  Termination of src is passed through.
func Filter(src Stream, pred func(Event) bool) Stream {
	return &filteredStream{src: src, pred: pred}
}

type filteredStream struct {
	src  Stream
	pred func(Event) bool
}

func (f *filteredStream) Subscribe(h EventHandler) Subscription {
	return f.src.Subscribe(&filterHandler{next: h, pred: f.pred})
}

type filterHandler struct {
	next EventHandler
	pred func(Event) bool
}

func (fh *filterHandler) HandleEvent(e Event) {
	if fh.pred(e) {
		fh.next.HandleEvent(e)
	}
}

func (fh *filterHandler) StreamClosed(err error) { notifyClosed(fh.next, err) }

// TypeIs returns a predicate that matches events of any of the given types.
// With no types it matches nothing.
func TypeIs(types ...EventType) func(Event) bool {
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(e Event) bool {
		_, ok := set[e.Type()]
		return ok
	}
}
