// Package routerevents watches a router's navigation event stream.
//
// A RouterEvents subscribes to its Host once, when it is created, and keeps the
// URL of the last successful navigation:
//
//	r := vgnav.New(eventEnv)
//	re := routerevents.New(r)
//	...
//	if u, ok := re.LastNavigation().Get(); ok {
//		// u is the last URL navigated to that was not an error page
//	}
//
// URLs containing "error" are never remembered, so that an application can send the
// user back to where they were after showing an error page.  Use WithErrorRouteFilter
// to decide differently.
//
// The Get* methods return filtered views of the host's event stream.  They are lazy:
// nothing is delivered (and nothing subscribes to the host) until the returned
// stream is subscribed to, and each subscriber only sees events published after it
// subscribed.
//
//	sub := re.GetNavigationEvents(routerevents.NavStart, routerevents.NavEnd).Subscribe(
//		vgnav.EventHandlerFunc(func(e vgnav.Event) {
//			spinner.Set(e.Type() == vgnav.EventNavigationStart)
//		}))
//	defer sub.Unsubscribe()
package routerevents
