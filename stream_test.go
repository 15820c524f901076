package vgnav

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStreamDelivery(t *testing.T) {

	s := NewEventStream()

	var a, b recorder
	s.Subscribe(&a)
	subB := s.Subscribe(&b)
	assert.Equal(t, 2, s.SubscriberCount())

	s.Publish(NavigationStart{ID: 1, URL: "/"})
	subB.Unsubscribe()
	subB.Unsubscribe()
	s.Publish(NavigationEnd{ID: 1, URL: "/"})

	assert.Equal(t, []EventType{EventNavigationStart, EventNavigationEnd}, a.types())
	assert.Equal(t, []EventType{EventNavigationStart}, b.types())
	assert.True(t, subB.Closed())
	assert.Equal(t, 1, s.SubscriberCount())
}

func TestEventStreamNoReplay(t *testing.T) {

	s := NewEventStream()
	s.Publish(NavigationStart{ID: 1, URL: "/"})

	var rec recorder
	s.Subscribe(&rec)
	assert.Empty(t, rec.events)

	s.Publish(NavigationStart{ID: 2, URL: "/"})
	require.Len(t, rec.events, 1)
	assert.Equal(t, 2, rec.events[0].NavigationID())
}

func TestEventStreamUnsubscribeDuringDelivery(t *testing.T) {

	s := NewEventStream()

	var second recorder
	var subSecond Subscription
	s.Subscribe(EventHandlerFunc(func(e Event) {
		subSecond.Unsubscribe()
	}))
	subSecond = s.Subscribe(&second)

	s.Publish(NavigationStart{ID: 1})

	assert.Empty(t, second.events, "a subscriber removed mid-publish must not receive the event")
}

func TestEventStreamClose(t *testing.T) {

	errHost := errors.New("host went away")

	s := NewEventStream()
	var rec recorder
	sub := s.Subscribe(&rec)

	s.Close(errHost)
	s.Close(nil)
	s.Publish(NavigationStart{ID: 1})

	assert.True(t, sub.Closed())
	assert.Empty(t, rec.events)
	assert.Equal(t, []error{errHost}, rec.closed)

	// late subscribers learn about the termination right away
	var late recorder
	lateSub := s.Subscribe(&late)
	assert.True(t, lateSub.Closed())
	assert.Equal(t, []error{errHost}, late.closed)
}

func TestFilter(t *testing.T) {

	s := NewEventStream()
	f := Filter(s, TypeIs(EventNavigationStart, EventNavigationError))

	assert.Equal(t, 0, s.SubscriberCount(), "Filter must not subscribe until subscribed to")

	var rec recorder
	sub := f.Subscribe(&rec)
	assert.Equal(t, 1, s.SubscriberCount())

	s.Publish(NavigationStart{ID: 1})
	s.Publish(RoutesRecognized{ID: 1})
	s.Publish(NavigationError{ID: 1, Err: ErrNoRoute})
	s.Publish(NavigationStart{ID: 2})
	s.Publish(NavigationEnd{ID: 2})

	require.Len(t, rec.events, 3)
	assert.Equal(t, []EventType{EventNavigationStart, EventNavigationError, EventNavigationStart}, rec.types())
	assert.Equal(t, 2, rec.events[2].NavigationID())

	sub.Unsubscribe()
	assert.Equal(t, 0, s.SubscriberCount())

	s.Publish(NavigationStart{ID: 3})
	assert.Len(t, rec.events, 3)
}

func TestFilterForwardsClose(t *testing.T) {

	s := NewEventStream()
	var closedWith []error
	Filter(s, TypeIs()).Subscribe(HandlerFuncs{
		Event:  func(e Event) { t.Errorf("unexpected event %v", e) },
		Closed: func(err error) { closedWith = append(closedWith, err) },
	})

	s.Publish(NavigationStart{ID: 1})
	s.Close(nil)

	assert.Equal(t, []error{nil}, closedWith)
}

func TestEventStrings(t *testing.T) {
	assert.Equal(t, "NavigationEnd", EventNavigationEnd.String())
	assert.Equal(t, "EventType(99)", EventType(99).String())
	assert.Equal(t, `NavigationCancel(id: 3, url: "/a", code: superseded, reason: "newer")`,
		NavigationCancel{ID: 3, URL: "/a", Code: CancelSuperseded, Reason: "newer"}.String())
	assert.Equal(t, `RoutesRecognized(id: 1, url: "/a/1", routes: [/ /a/:id])`,
		RoutesRecognized{ID: 1, URL: "/a/1", RoutePaths: []string{"/", "/a/:id"}}.String())
}
