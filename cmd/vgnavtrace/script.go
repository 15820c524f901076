package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vugu/vgnav"
	"github.com/vugu/vgnav/routerevents"
)

// maxConcurrentLoads limits how many script files are read at once.
const maxConcurrentLoads = 4

// Script describes a router setup and a sequence of navigations to replay through it.
type Script struct {
	Name string `yaml:"-"`

	UseFragment    bool             `yaml:"use_fragment"`
	Routes         []RouteSpec      `yaml:"routes"`
	Redirects      []RedirectSpec   `yaml:"redirects"`
	NotFound       bool             `yaml:"not_found"`
	ErrorSubstring string           `yaml:"error_substring"`
	Navigations    []NavigationSpec `yaml:"navigations"`
}

// RouteSpec is a route to add.  In YAML it is either a plain path or a mapping.
type RouteSpec struct {
	Path   string `yaml:"path"`
	Cancel string `yaml:"cancel"` // if set, an exact match cancels with this reason
	Fail   string `yaml:"fail"`   // if set, an exact match fails with this message
}

// UnmarshalYAML allows a route to be given as just its path.
func (rs *RouteSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		rs.Path = n.Value
		return nil
	}
	type plain RouteSpec
	return n.Decode((*plain)(rs))
}

// RedirectSpec is a redirect to add.
type RedirectSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// NavigationSpec is one navigation to perform.
type NavigationSpec struct {
	Path    string              `yaml:"path"`
	Query   map[string][]string `yaml:"query"`
	Replace bool                `yaml:"replace"`
}

// ParseScript parses a YAML (or JSON) script.
func ParseScript(b []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	if len(s.Navigations) == 0 {
		return errors.New("script has no navigations")
	}
	for i, rs := range s.Routes {
		if rs.Path == "" {
			return fmt.Errorf("route %d: empty path", i)
		}
		if rs.Cancel != "" && rs.Fail != "" {
			return fmt.Errorf("route %q: cancel and fail are mutually exclusive", rs.Path)
		}
	}
	for i, n := range s.Navigations {
		if n.Path == "" {
			return fmt.Errorf("navigation %d: empty path", i)
		}
	}
	return nil
}

// LoadScript reads the script at path.  Files ending in .jsonc may contain comments and trailing commas.
func LoadScript(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".jsonc") {
		b = jsonc.ToJSON(b)
	}
	s, err := ParseScript(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Name = path
	return s, nil
}

// loadScripts reads all paths concurrently and returns the scripts in the same order.
func loadScripts(paths []string) ([]*Script, error) {
	scripts := make([]*Script, len(paths))

	var g errgroup.Group
	g.SetLimit(maxConcurrentLoads)
	for i, p := range paths {
		g.Go(func() error {
			s, err := LoadScript(p)
			if err != nil {
				return err
			}
			scripts[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return scripts, nil
}

// Result is the outcome of replaying a Script.
type Result struct {
	LastNavigation string
	Recorded       bool // false if no navigation was recorded as last navigation
	Failed         int  // navigations that returned an error
	Events         int  // events matching the selected keys
}

// Replay builds a Router from s, performs its navigations and logs the selected events.
func Replay(s *Script, logger *slog.Logger, keys []routerevents.NavigationEventKey) (Result, error) {

	r := vgnav.New(nil)
	r.SetLogger(logger)
	r.UseFragment(s.UseFragment)

	for _, rs := range s.Routes {
		if err := r.AddRoute(rs.Path, routeHandler(rs)); err != nil {
			return Result{}, fmt.Errorf("route %q: %w", rs.Path, err)
		}
	}
	for _, rd := range s.Redirects {
		if err := r.AddRedirect(rd.From, rd.To); err != nil {
			return Result{}, fmt.Errorf("redirect %q: %w", rd.From, err)
		}
	}
	if s.NotFound {
		r.SetNotFound(vgnav.RouteHandlerFunc(func(rm *vgnav.RouteMatch) {
			logger.Debug("not found", "path", rm.Path)
		}))
	}

	opts := []routerevents.Option{routerevents.WithLogger(logger)}
	if s.ErrorSubstring != "" {
		sub := s.ErrorSubstring
		opts = append(opts, routerevents.WithErrorRouteFilter(func(u string) bool {
			return strings.Contains(u, sub)
		}))
	}
	re := routerevents.New(r, opts...)

	var res Result
	subscription := re.GetNavigationEvents(keys...).Subscribe(vgnav.EventHandlerFunc(func(e vgnav.Event) {
		res.Events++
		logger.Info(e.Type().String(), "navigation_id", e.NavigationID(), "event", e.String())
	}))
	defer subscription.Unsubscribe()

	for _, n := range s.Navigations {
		var navOpts []vgnav.NavigatorOpt
		if n.Replace {
			navOpts = append(navOpts, vgnav.NavReplace)
		}
		if err := r.Navigate(n.Path, url.Values(n.Query), navOpts...); err != nil {
			res.Failed++
		}
	}

	res.LastNavigation, res.Recorded = re.LastNavigation().Get()

	return res, nil
}

func routeHandler(rs RouteSpec) vgnav.RouteHandler {
	return vgnav.RouteHandlerFunc(func(rm *vgnav.RouteMatch) {
		if !rm.Exact {
			return
		}
		switch {
		case rs.Cancel != "":
			rm.Cancel(rs.Cancel)
		case rs.Fail != "":
			rm.Fail(errors.New(rs.Fail))
		}
	})
}
