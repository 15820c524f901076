package vgnav

import (
	"errors"
	"net/url"
	"strings"

	"github.com/vugu/vugu/js"
)

// ErrNotInBrowser is returned by operations that need window.history or window.location
// when the program is not running in a browser.
var ErrNotInBrowser = errors.New("not in browser (js) environment")

// jsListener is a registered window event listener.
type jsListener struct {
	fn  js.Func
	set bool
}

func (r *Router) pushPathAndQuery(pathAndQuery string) {

	g := js.Global()
	if g.Truthy() {
		g.Get("window").Get("history").Call("pushState", nil, "", r.historyURL(pathAndQuery))
	}

}

func (r *Router) replacePathAndQuery(pathAndQuery string) {

	g := js.Global()
	if g.Truthy() {
		g.Get("window").Get("history").Call("replaceState", nil, "", r.historyURL(pathAndQuery))
	}

}

func (r *Router) historyURL(pathAndQuery string) string {
	if r.useFragment {
		return "#" + pathAndQuery
	}
	return pathAndQuery
}

func (r *Router) readBrowserURL() (*url.URL, error) {

	g := js.Global()
	if !g.Truthy() {
		return nil, ErrNotInBrowser
	}

	var locstr string
	if r.useFragment {
		locstr = strings.TrimPrefix(g.Get("window").Get("location").Get("hash").String(), "#")
	} else {
		locstr = g.Get("window").Get("location").Call("toString").String()
	}

	return url.Parse(locstr)
}

// ListenPopState registers a window "popstate" listener so that browser back and forward
// navigation goes through the Router with TriggerPopState.  The EventEnv passed to New
// is locked while the navigation runs and a render is requested afterwards.
// Only works in wasm environment, otherwise returns ErrNotInBrowser.
func (r *Router) ListenPopState() error {
	return r.addPopStateListener(func(this js.Value, args []js.Value) interface{} {
		if r.eventEnv != nil {
			r.eventEnv.Lock()
			defer r.eventEnv.UnlockRender()
		}
		if err := r.pull(TriggerPopState); err != nil {
			r.logger.Warn("popstate navigation failed", "error", err)
		}
		return nil
	})
}

func (r *Router) removePopStateListener() error {

	g := js.Global()
	if !g.Truthy() {
		return ErrNotInBrowser
	}

	if !r.popState.set {
		return errors.New("popstate listener not set")
	}

	g.Get("window").Call("removeEventListener", "popstate", r.popState.fn)

	r.popState.fn.Release()
	r.popState = jsListener{}

	return nil
}

func (r *Router) addPopStateListener(f func(this js.Value, args []js.Value) interface{}) error {

	g := js.Global()
	if !g.Truthy() {
		return ErrNotInBrowser
	}

	if r.popState.set {
		return errors.New("popstate listener already set")
	}

	jf := js.FuncOf(f)

	g.Get("window").Call("addEventListener", "popstate", jf)

	r.popState = jsListener{fn: jf, set: true}

	return nil

}
