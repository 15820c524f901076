package vgnav

import (
	"fmt"
	"net/url"
	"strings"
)

// EventType identifies the kind of an Event.  It is the discriminant
// that filters match on, so callers never need a type switch to select events.
type EventType int

const (
	// EventNavigationStart is emitted when a navigation begins.
	EventNavigationStart EventType = iota + 1
	// EventRoutesRecognized is emitted once the route table has been matched.
	EventRoutesRecognized
	// EventNavigationEnd is emitted when a navigation completes successfully.
	EventNavigationEnd
	// EventNavigationCancel is emitted when a navigation is abandoned.
	EventNavigationCancel
	// EventNavigationError is emitted when a navigation fails.
	EventNavigationError
)

var eventTypeNames = map[EventType]string{
	EventNavigationStart:  "NavigationStart",
	EventRoutesRecognized: "RoutesRecognized",
	EventNavigationEnd:    "NavigationEnd",
	EventNavigationCancel: "NavigationCancel",
	EventNavigationError:  "NavigationError",
}

// String returns the event name, e.g. "NavigationEnd".
func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is a single notification emitted by the Router while it navigates.
type Event interface {
	Type() EventType
	NavigationID() int
	String() string
}

// NavigationTrigger describes what caused a navigation.
type NavigationTrigger string

const (
	// TriggerImperative is a navigation requested by application code (Navigate, Push, Pull).
	TriggerImperative NavigationTrigger = "imperative"
	// TriggerPopState is a navigation caused by the browser's back/forward buttons.
	TriggerPopState NavigationTrigger = "popstate"
)

// CancelCode says why a navigation was cancelled.
type CancelCode int

const (
	// CancelSuperseded means a newer navigation started before this one finished.
	CancelSuperseded CancelCode = iota + 1
	// CancelByHandler means a route handler called RouteMatch.Cancel.
	CancelByHandler
)

func (c CancelCode) String() string {
	switch c {
	case CancelSuperseded:
		return "superseded"
	case CancelByHandler:
		return "handler"
	}
	return fmt.Sprintf("CancelCode(%d)", int(c))
}

// NavigationStart is emitted when a navigation begins.
type NavigationStart struct {
	ID      int
	URL     string
	Trigger NavigationTrigger
}

func (e NavigationStart) Type() EventType   { return EventNavigationStart }
func (e NavigationStart) NavigationID() int { return e.ID }
func (e NavigationStart) String() string {
	return fmt.Sprintf("NavigationStart(id: %d, url: %q, trigger: %s)", e.ID, e.URL, e.Trigger)
}

// RoutesRecognized is emitted after the route table was matched and before any handler runs.
type RoutesRecognized struct {
	ID         int
	URL        string
	RoutePaths []string // route patterns that matched, in registration order
}

func (e RoutesRecognized) Type() EventType   { return EventRoutesRecognized }
func (e RoutesRecognized) NavigationID() int { return e.ID }
func (e RoutesRecognized) String() string {
	return fmt.Sprintf("RoutesRecognized(id: %d, url: %q, routes: [%s])", e.ID, e.URL, strings.Join(e.RoutePaths, " "))
}

// NavigationEnd is emitted when a navigation completes successfully.
type NavigationEnd struct {
	ID                int
	URL               string
	URLAfterRedirects string
}

func (e NavigationEnd) Type() EventType   { return EventNavigationEnd }
func (e NavigationEnd) NavigationID() int { return e.ID }
func (e NavigationEnd) String() string {
	return fmt.Sprintf("NavigationEnd(id: %d, url: %q, urlAfterRedirects: %q)", e.ID, e.URL, e.URLAfterRedirects)
}

// NavigationCancel is emitted when a navigation is abandoned without error.
type NavigationCancel struct {
	ID     int
	URL    string
	Code   CancelCode
	Reason string
}

func (e NavigationCancel) Type() EventType   { return EventNavigationCancel }
func (e NavigationCancel) NavigationID() int { return e.ID }
func (e NavigationCancel) String() string {
	return fmt.Sprintf("NavigationCancel(id: %d, url: %q, code: %s, reason: %q)", e.ID, e.URL, e.Code, e.Reason)
}

// NavigationError is emitted when a navigation fails.
type NavigationError struct {
	ID  int
	URL string
	Err error
}

func (e NavigationError) Type() EventType   { return EventNavigationError }
func (e NavigationError) NavigationID() int { return e.ID }
func (e NavigationError) String() string {
	return fmt.Sprintf("NavigationError(id: %d, url: %q, error: %v)", e.ID, e.URL, e.Err)
}

// Navigation is the Router's record of one navigation.
type Navigation struct {
	ID         int
	InitialURL string // URL as requested
	FinalURL   string // URL the navigation settled on
	Trigger    NavigationTrigger

	// TargetState is the resolved router state, nil until the navigation has been resolved.
	TargetState *RouterState
}

// RouterState is the state the router reached at the end of a navigation.
type RouterState struct {
	URL        string
	RoutePaths []string
	Params     url.Values
}
