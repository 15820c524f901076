package vgnav

import "net/url"

// NavigatorOpt is a marker interface to ensure that options to Navigator are passed intentionally.
type NavigatorOpt interface {
	IsNavigatorOpt()
}

type intNavigatorOpt int

// IsNavigatorOpt implements NavigatorOpt.
func (i intNavigatorOpt) IsNavigatorOpt() {}

var (
	// NavReplace will cause this navigation to replace the
	// current history entry rather than pushing to the stack.
	// Implemented using window.history.replaceState()
	NavReplace NavigatorOpt = intNavigatorOpt(1)

	// NavSkipHistory will cause this navigation to leave the browser history alone.
	// It can be used when the browser URL already reflects the path and query and
	// the application just wants the router to process it.
	NavSkipHistory NavigatorOpt = intNavigatorOpt(2)
)

type navOpts []NavigatorOpt

func (no navOpts) has(o NavigatorOpt) bool {
	for _, o2 := range no {
		if o == o2 {
			return true
		}
	}
	return false
}

// Navigator is implemented by something that can be navigated, normally the Router.
type Navigator interface {
	Navigate(path string, query url.Values, opts ...NavigatorOpt) error
}

// NavigatorRef can be embedded in a component to have a Navigator injected during creation.
type NavigatorRef struct {
	Navigator // embed Navigator
}

// NavigatorSet implements NavigatorSetter.
func (h *NavigatorRef) NavigatorSet(o Navigator) {
	h.Navigator = o
}

// NavigatorSetter is implemented by components which accept a Navigator.
type NavigatorSetter interface {
	NavigatorSet(Navigator)
}

// QueryUpdater writes the currently bound params back into the URL.
type QueryUpdater interface {
	QueryUpdate()
}

// QueryUpdaterRef can be embedded in a component to have a QueryUpdater injected during creation.
type QueryUpdaterRef struct {
	QueryUpdater // embed QueryUpdater
}

// QueryUpdaterSet implements QueryUpdaterSetter.
func (h *QueryUpdaterRef) QueryUpdaterSet(o QueryUpdater) {
	h.QueryUpdater = o
}

// QueryUpdaterSetter is implemented by components which accept a QueryUpdater.
type QueryUpdaterSetter interface {
	QueryUpdaterSet(QueryUpdater)
}
