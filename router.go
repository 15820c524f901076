package vgnav

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

var (
	// ErrNoRoute is returned (and published in a NavigationError) when no route
	// matches a path exactly and no not-found handler is set.
	ErrNoRoute = errors.New("no route matches path")

	// ErrTooManyRedirects is returned when redirects keep rewriting a path.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrNoBoundRoute is returned by Push when no navigation has bound a route yet.
	ErrNoBoundRoute = errors.New("no route bound")
)

// maxRedirects limits how many redirects a single navigation may follow.
const maxRedirects = 8

// EventEnv is our view of a Vugu EventEnv
type EventEnv interface {
	Lock()         // acquire write lock
	UnlockOnly()   // release write lock
	UnlockRender() // release write lock and request re-render
}

// New returns a new Router.
func New(eventEnv EventEnv) *Router {
	return &Router{
		eventEnv:     eventEnv,
		logger:       slog.New(slog.DiscardHandler),
		bindParamMap: make(map[string]BindParam),
		events:       NewEventStream(),
	}
}

// Router handles URL routing and publishes an Event for every step of every navigation.
//
// A Router is not safe for concurrent use.  Navigations started from browser
// events (see ListenPopState) take the EventEnv lock, application code calling
// Navigate from other goroutines must do the same.
type Router struct {
	useFragment bool

	eventEnv EventEnv
	logger   *slog.Logger

	rlist           []routeEntry
	redirects       []redirectEntry
	notFoundHandler RouteHandler

	bindRouteMPath mpath
	bindParamMap   map[string]BindParam

	events         *EventStream
	navigationID   int
	lastSuccessful *Navigation

	popState jsListener
}

type routeEntry struct {
	mpath mpath
	rh    RouteHandler
}

type redirectEntry struct {
	from mpath
	to   mpath
}

// UseFragment sets the fragment flag which if set means the fragment part of the URL (after the "#")
// is used as the path and query string.  This can be useful for compatibility in applications which are
// served statically and do not have the ability to handle URL routing on the server side.
// This option is disabled by default.  If used it should be set immediately after creation.  Changing it
// after navigation may have undefined results.
func (r *Router) UseFragment(v bool) {
	r.useFragment = v
}

// SetLogger sets the logger used for navigation diagnostics.  By default nothing is logged.
func (r *Router) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	r.logger = l
}

// Events returns the stream of navigation events.  Subscribers are called
// synchronously from inside Navigate.
func (r *Router) Events() Stream {
	return r.events
}

// LastSuccessfulNavigation returns the most recent navigation that ended with
// NavigationEnd, or nil if there has not been one.  It is updated before
// NavigationEnd is published.
func (r *Router) LastSuccessfulNavigation() *Navigation {
	return r.lastSuccessful
}

// MustNavigate is like Navigate but panics upon error.
func (r *Router) MustNavigate(path string, query url.Values, opts ...NavigatorOpt) {
	err := r.Navigate(path, query, opts...)
	if err != nil {
		panic(err)
	}
}

// Navigate will go the specified path and query, calling the matching route handlers
// and updating the browser history.  A cancelled navigation is not an error, it is
// reported with a NavigationCancel event and Navigate returns nil.
func (r *Router) Navigate(path string, query url.Values, opts ...NavigatorOpt) error {
	return r.navigate(path, query, TriggerImperative, navOpts(opts))
}

// Pull will read the current browser URL and navigate to it.  This is generally called
// once at application startup.
// Only works in wasm environment otherwise has no effect and will return error.
func (r *Router) Pull() error {
	return r.pull(TriggerImperative)
}

func (r *Router) pull(trigger NavigationTrigger) error {

	u, err := r.readBrowserURL()
	if err != nil {
		return err
	}

	return r.navigate(u.Path, u.Query(), trigger, navOpts{NavSkipHistory})
}

// Push will take any bound parameters and navigate to the URL they produce.
func (r *Router) Push(opts ...NavigatorOpt) error {

	if r.bindRouteMPath == nil {
		return ErrNoBoundRoute
	}

	params := make(url.Values, len(r.bindParamMap))
	for k, v := range r.bindParamMap {
		params[k] = v.BindParamRead()
	}

	outPath, outParams, err := r.bindRouteMPath.merge(params)
	if err != nil {
		return err
	}

	return r.navigate(outPath, outParams, TriggerImperative, navOpts(opts))
}

// QueryUpdate implements QueryUpdater by pushing the bound params, replacing the current history entry.
func (r *Router) QueryUpdate() {
	if err := r.Push(NavReplace); err != nil {
		r.logger.Warn("query update failed", "error", err)
	}
}

// UnbindParams will remove any previous parameter bindings.
// Note that this is called implicitly when navigiation occurs since that involves re-binding newly based on the
// path being navigated to.
func (r *Router) UnbindParams() {
	for k := range r.bindParamMap {
		delete(r.bindParamMap, k)
	}
}

// MustAddRoute is like AddRoute but panics upon error.
func (r *Router) MustAddRoute(path string, rh RouteHandler) {
	err := r.AddRoute(path, rh)
	if err != nil {
		panic(err)
	}
}

// AddRoute adds a route to the list.
func (r *Router) AddRoute(path string, rh RouteHandler) error {

	mp, err := parseMpath(path)
	if err != nil {
		return err
	}

	r.rlist = append(r.rlist, routeEntry{
		mpath: mp,
		rh:    rh,
	})

	return nil
}

// AddRedirect makes navigations to paths exactly matching from continue at to.
// Params named in from may be used in to, e.g. AddRedirect("/u/:id", "/users/:id").
func (r *Router) AddRedirect(from, to string) error {

	fromMP, err := parseMpath(from)
	if err != nil {
		return err
	}
	toMP, err := parseMpath(to)
	if err != nil {
		return err
	}

	r.redirects = append(r.redirects, redirectEntry{from: fromMP, to: toMP})

	return nil
}

// SetNotFound assigns the handler for the case of no exact match route.
func (r *Router) SetNotFound(rh RouteHandler) {
	r.notFoundHandler = rh
}

// Close stops listening for browser navigation and completes the event stream.
func (r *Router) Close() error {
	var err error
	if r.popState.set {
		err = r.removePopStateListener()
	}
	r.events.Close(nil)
	return err
}

// navigationState follows one navigation through the route handlers.
type navigationState struct {
	id           int
	cancelled    bool
	cancelReason string
	err          error
}

func (ns *navigationState) done() bool { return ns.cancelled || ns.err != nil }

type routeHit struct {
	entry  routeEntry
	params url.Values
	exact  bool
}

func (r *Router) navigate(path string, query url.Values, trigger NavigationTrigger, opts navOpts) error {

	r.navigationID++
	id := r.navigationID
	initialURL := joinPathQuery(path, query)
	logger := r.logger.With("navigation_id", id)

	logger.Debug("navigation start", "url", initialURL, "trigger", string(trigger))
	r.events.Publish(NavigationStart{ID: id, URL: initialURL, Trigger: trigger})
	if r.superseded(id, initialURL) {
		return nil
	}

	finalPath, err := r.applyRedirects(path)
	if err != nil {
		return r.fail(id, initialURL, err)
	}
	finalURL := joinPathQuery(finalPath, query)

	hits, exact := r.recognize(finalPath, query)
	routePaths := make([]string, 0, len(hits))
	for _, h := range hits {
		routePaths = append(routePaths, h.entry.mpath.String())
	}
	r.events.Publish(RoutesRecognized{ID: id, URL: finalURL, RoutePaths: routePaths})
	if r.superseded(id, initialURL) {
		return nil
	}

	if exact == nil && r.notFoundHandler == nil {
		return r.fail(id, initialURL, fmt.Errorf("%w: %q", ErrNoRoute, finalPath))
	}

	ns := &navigationState{id: id}
	r.process(ns, finalPath, query, hits, exact)

	if r.superseded(id, initialURL) {
		return nil
	}
	if ns.err != nil {
		return r.fail(id, initialURL, fmt.Errorf("navigation %d: %w", id, ns.err))
	}
	if ns.cancelled {
		logger.Debug("navigation cancelled by handler", "reason", ns.cancelReason)
		r.events.Publish(NavigationCancel{ID: id, URL: initialURL, Code: CancelByHandler, Reason: ns.cancelReason})
		return nil
	}

	if trigger != TriggerPopState && !opts.has(NavSkipHistory) {
		if opts.has(NavReplace) {
			r.replacePathAndQuery(finalURL)
		} else {
			r.pushPathAndQuery(finalURL)
		}
	}

	params := query
	if exact != nil {
		params = exact.params
	}
	state := &RouterState{URL: finalURL, RoutePaths: routePaths, Params: cloneValues(params)}
	r.lastSuccessful = &Navigation{
		ID:          id,
		InitialURL:  initialURL,
		FinalURL:    finalURL,
		Trigger:     trigger,
		TargetState: state,
	}

	logger.Debug("navigation end", "url", initialURL, "url_after_redirects", finalURL)
	r.events.Publish(NavigationEnd{ID: id, URL: initialURL, URLAfterRedirects: finalURL})

	return nil
}

// superseded publishes a NavigationCancel and returns true if a newer navigation
// has started since id did.
func (r *Router) superseded(id int, u string) bool {
	if r.navigationID == id {
		return false
	}
	reason := fmt.Sprintf("navigation %d superseded by navigation %d", id, r.navigationID)
	r.logger.Debug("navigation cancelled", "navigation_id", id, "reason", reason)
	r.events.Publish(NavigationCancel{ID: id, URL: u, Code: CancelSuperseded, Reason: reason})
	return true
}

func (r *Router) fail(id int, u string, err error) error {
	r.logger.Warn("navigation failed", "navigation_id", id, "url", u, "error", err)
	r.events.Publish(NavigationError{ID: id, URL: u, Err: err})
	return err
}

func (r *Router) applyRedirects(path string) (string, error) {
	for i := 0; i <= maxRedirects; i++ {
		redirected := false
		for _, rd := range r.redirects {
			pvals, exact, ok := rd.from.match(path)
			if !ok || !exact {
				continue
			}
			out, _, err := rd.to.merge(pvals)
			if err != nil {
				return path, fmt.Errorf("redirect %q to %q: %w", rd.from.String(), rd.to.String(), err)
			}
			path = out
			redirected = true
			break
		}
		if !redirected {
			return path, nil
		}
	}
	return path, fmt.Errorf("%w: stopped at %q", ErrTooManyRedirects, path)
}

// recognize runs through the routes and returns every match plus the first exact one (nil if none).
func (r *Router) recognize(path string, query url.Values) (hits []routeHit, exact *routeHit) {

	// TODO: ideally we would improve the performance here with some fancy trie stuff, but for the moment
	// I'm much more concerned with getting things functional.

	for _, re := range r.rlist {

		pvals, isExact, ok := re.mpath.match(path)
		if !ok {
			continue
		}

		// merge any other values from query into pvals
		if pvals == nil {
			pvals = make(url.Values, len(query))
		}
		for k, v := range query {
			if pvals[k] == nil {
				pvals[k] = append([]string(nil), v...)
			}
		}

		hits = append(hits, routeHit{entry: re, params: pvals, exact: isExact})
	}

	for i := range hits {
		if hits[i].exact {
			exact = &hits[i]
			break
		}
	}

	return hits, exact
}

// cloneValues copies v so the copy shares no slices with it.
func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	ret := make(url.Values, len(v))
	for k, vals := range v {
		ret[k] = append([]string(nil), vals...)
	}
	return ret
}

// process is used interally to call the handlers for the recognized routes.
// It will set bindRouteMPath and unbind the params and allow them to be reset.
// A handler that cancels or fails the navigation stops the remaining handlers.
func (r *Router) process(ns *navigationState, path string, query url.Values, hits []routeHit, exact *routeHit) {

	for k := range r.bindParamMap {
		delete(r.bindParamMap, k)
	}
	r.bindRouteMPath = nil
	if exact != nil {
		r.bindRouteMPath = exact.entry.mpath
	}

	for _, h := range hits {

		h.entry.rh.RouteHandle(&RouteMatch{
			router:    r,
			nav:       ns,
			mpath:     h.entry.mpath,
			Path:      path,
			RoutePath: h.entry.mpath.String(),
			Params:    cloneValues(h.params),
			Exact:     h.exact,
		})

		if ns.done() || r.navigationID != ns.id {
			return
		}
	}

	if exact == nil && r.notFoundHandler != nil {
		r.notFoundHandler.RouteHandle(&RouteMatch{
			router: r,
			nav:    ns,
			Path:   path,
			Params: cloneValues(query),
		})
	}

}

func joinPathQuery(path string, query url.Values) string {
	pq := path
	q := query.Encode()
	if len(q) > 0 {
		pq = pq + "?" + q
	}
	return pq
}

// RouteHandler implementations are called in response to a route matching (being navigated to).
type RouteHandler interface {
	RouteHandle(rm *RouteMatch)
}

// RouteHandlerFunc implements RouteHandler as a function.
type RouteHandlerFunc func(rm *RouteMatch)

// RouteHandle implements the RouteHandler interface.
func (f RouteHandlerFunc) RouteHandle(rm *RouteMatch) { f(rm) }

// RouteMatch describes a request to navigate to a route.
type RouteMatch struct {
	Path      string     // path input (with any params interpolated)
	RoutePath string     // route path pattern with params as :param
	Params    url.Values // parameters (combined query and route params)
	Exact     bool       // true if the path is an exact match or false if just the prefix

	router *Router
	nav    *navigationState
	mpath  mpath
}

// Bind adds a BindParam to the list of bound parameters.
// Later calls to Bind with the same name will replace the bind
// from earlier calls.
func (r *RouteMatch) Bind(name string, param BindParam) {
	if r.router.bindParamMap == nil {
		r.router.bindParamMap = make(map[string]BindParam)
	}
	r.router.bindParamMap[name] = param
}

// Cancel abandons the navigation.  No further handlers are called and a
// NavigationCancel event with code CancelByHandler and the given reason is published.
func (r *RouteMatch) Cancel(reason string) {
	if r.nav == nil || r.nav.done() {
		return
	}
	r.nav.cancelled = true
	r.nav.cancelReason = reason
}

// Fail aborts the navigation with err.  No further handlers are called, a
// NavigationError is published and Navigate returns err.
func (r *RouteMatch) Fail(err error) {
	if r.nav == nil || r.nav.done() || err == nil {
		return
	}
	r.nav.err = err
}

// PathParams returns the values of the route's path params in the order they appear in RoutePath.
func (r *RouteMatch) PathParams() PathParamList {
	names := r.mpath.paramNames()
	if len(names) == 0 {
		return nil
	}
	ret := make(PathParamList, 0, len(names))
	for _, n := range names {
		ret = append(ret, PathParam{Key: n, Value: r.Params.Get(n)})
	}
	return ret
}

// BindParam is implemented by something that can be read and written as a URL param.
type BindParam interface {
	BindParamRead() []string
	BindParamWrite(v []string)
}

// StringParam implements BindParam on a string.
type StringParam string

// BindParamRead implements BindParam.
func (s *StringParam) BindParamRead() []string { return []string{string(*s)} }

// BindParamWrite implements BindParam.
func (s *StringParam) BindParamWrite(v []string) {
	if len(v) == 0 {
		*s = ""
		return
	}
	*s = StringParam(v[0])
}
