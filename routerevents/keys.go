package routerevents

import (
	"fmt"
	"strings"

	"github.com/vugu/vgnav"
)

// NavigationEventKey names one of the four navigation lifecycle events.
type NavigationEventKey string

const (
	NavCancel NavigationEventKey = "Cancel"
	NavEnd    NavigationEventKey = "End"
	NavError  NavigationEventKey = "Error"
	NavStart  NavigationEventKey = "Start"
)

var navigationEventTypes = map[NavigationEventKey]vgnav.EventType{
	NavCancel: vgnav.EventNavigationCancel,
	NavEnd:    vgnav.EventNavigationEnd,
	NavError:  vgnav.EventNavigationError,
	NavStart:  vgnav.EventNavigationStart,
}

// AllNavigationEventKeys returns every key in declaration order: Cancel, End, Error, Start.
// The order is stable.
func AllNavigationEventKeys() []NavigationEventKey {
	return []NavigationEventKey{NavCancel, NavEnd, NavError, NavStart}
}

// EventType returns the event type k selects, or false if k is not one of the known keys.
func (k NavigationEventKey) EventType() (vgnav.EventType, bool) {
	t, ok := navigationEventTypes[k]
	return t, ok
}

// ParseNavigationEventKey parses a key name, ignoring case.
func ParseNavigationEventKey(s string) (NavigationEventKey, error) {
	for _, k := range AllNavigationEventKeys() {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown navigation event %q", s)
}
