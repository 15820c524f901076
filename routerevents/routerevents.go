package routerevents

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/atomic"

	"github.com/vugu/vgnav"
)

// ErrHostStreamClosed is the fault reported once the host's event stream has terminated.
var ErrHostStreamClosed = errors.New("router event stream closed")

// Host is the router a RouterEvents observes.  *vgnav.Router implements it.
type Host interface {
	// Events returns the router's event stream.
	Events() vgnav.Stream
	// LastSuccessfulNavigation returns the record of the navigation that most
	// recently ended with NavigationEnd, or nil.
	LastSuccessfulNavigation() *vgnav.Navigation
}

// Option configures a RouterEvents created by New.
type Option func(*RouterEvents)

// WithLogger sets the logger.  By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(re *RouterEvents) {
		if l != nil {
			re.logger = l
		}
	}
}

// WithErrorRouteFilter replaces DefaultErrorRouteFilter.  URLs for which f returns
// true are not recorded as the last navigation.
func WithErrorRouteFilter(f func(url string) bool) Option {
	return func(re *RouterEvents) {
		if f != nil {
			re.isErrorRoute = f
		}
	}
}

// DefaultErrorRouteFilter reports whether url contains "error" anywhere, so
// "/error/403" and "/reports/error-budget" both match.
func DefaultErrorRouteFilter(url string) bool {
	return strings.Contains(url, "error")
}

// RouterEvents exposes a router's navigation events and remembers the last
// successful navigation.
type RouterEvents struct {
	host         Host
	logger       *slog.Logger
	isErrorRoute func(url string) bool

	lastNavigation LastNavigation
	fault          atomic.Error
}

// New returns a RouterEvents subscribed to host.  The subscription lasts as long as the host's stream.
func New(host Host, opts ...Option) *RouterEvents {
	re := &RouterEvents{
		host:         host,
		logger:       slog.New(slog.DiscardHandler),
		isErrorRoute: DefaultErrorRouteFilter,
	}
	for _, o := range opts {
		o(re)
	}

	re.listenToNavigation()

	return re
}

func (re *RouterEvents) listenToNavigation() {
	vgnav.Filter(re.host.Events(), vgnav.TypeIs(vgnav.EventNavigationEnd)).
		Subscribe(vgnav.HandlerFuncs{
			Event:  re.navigationEnded,
			Closed: re.hostClosed,
		})
}

func (re *RouterEvents) navigationEnded(e vgnav.Event) {

	nav := re.host.LastSuccessfulNavigation()
	if nav == nil || nav.TargetState == nil {
		re.logger.Debug("navigation ended without a resolved target state", "navigation_id", e.NavigationID())
		return
	}

	u := nav.TargetState.URL
	if re.isErrorRoute(u) {
		re.logger.Debug("not recording error route", "navigation_id", e.NavigationID(), "url", u)
		return
	}

	re.lastNavigation.set(u)
}

func (re *RouterEvents) hostClosed(err error) {
	fault := ErrHostStreamClosed
	if err != nil {
		fault = fmt.Errorf("%w: %w", ErrHostStreamClosed, err)
	}
	re.fault.Store(fault)
	re.logger.Error("router event stream terminated, last navigation will no longer update", "error", fault)
}

// LastNavigation returns the read-only view of the last recorded navigation URL.
func (re *RouterEvents) LastNavigation() *LastNavigation {
	return &re.lastNavigation
}

// Fault returns nil while the host's event stream is live.  After the stream
// terminates it returns ErrHostStreamClosed, wrapping the host's error if there was one.
func (re *RouterEvents) Fault() error {
	return re.fault.Load()
}

// GetEvents returns the events of any of the given types.  With no types the
// returned stream never emits.
func (re *RouterEvents) GetEvents(types ...vgnav.EventType) vgnav.Stream {
	return vgnav.Filter(re.host.Events(), vgnav.TypeIs(types...))
}

// GetNavigationEvents returns the navigation events of any of the given kinds.
func (re *RouterEvents) GetNavigationEvents(keys ...NavigationEventKey) vgnav.Stream {
	types := make([]vgnav.EventType, 0, len(keys))
	for _, k := range keys {
		if t, ok := k.EventType(); ok {
			types = append(types, t)
		}
	}
	return re.GetEvents(types...)
}

// GetAllEvents returns the host's event stream unfiltered.
func (re *RouterEvents) GetAllEvents() vgnav.Stream {
	return re.host.Events()
}

// GetAllNavigationEvents is GetNavigationEvents called with AllNavigationEventKeys.
func (re *RouterEvents) GetAllNavigationEvents() vgnav.Stream {
	return re.GetNavigationEvents(AllNavigationEventKeys()...)
}

// LastNavigation holds the URL of the last successful navigation.  It is safe to
// read from any goroutine.  Only the RouterEvents that owns it can change it.
type LastNavigation struct {
	url atomic.Pointer[string]
}

// Get returns the URL and true, or "" and false if no navigation has been recorded yet.
func (ln *LastNavigation) Get() (string, bool) {
	p := ln.url.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// String returns the URL, or "" if none has been recorded.
func (ln *LastNavigation) String() string {
	u, _ := ln.Get()
	return u
}

func (ln *LastNavigation) set(u string) {
	ln.url.Store(&u)
}
