package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vugu/vgnav/routerevents"
)

const dashboardScript = `
routes:
  - /dashboard
  - /reports
  - /error/:code
  - path: /admin
    cancel: not signed in
  - path: /broken
    fail: backend down
navigations:
  - path: /dashboard
  - path: /error/403
  - path: /admin
  - path: /broken
  - path: /reports
    query:
      tab: [summary]
  - path: /nowhere
`

const redirectScript = `{
  // jsonc allows comments
  "routes": ["/users/:id", "/error/:code"],
  "redirects": [{"from": "/u/:id", "to": "/users/:id"}],
  "not_found": true,
  "navigations": [
    {"path": "/u/7"},
    {"path": "/somewhere/else"},
  ],
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestParseScript(t *testing.T) {

	s, err := ParseScript([]byte(dashboardScript))
	require.NoError(t, err)

	require.Len(t, s.Routes, 5)
	assert.Equal(t, RouteSpec{Path: "/dashboard"}, s.Routes[0])
	assert.Equal(t, RouteSpec{Path: "/admin", Cancel: "not signed in"}, s.Routes[3])
	assert.Equal(t, []string{"summary"}, s.Navigations[4].Query["tab"])
}

func TestParseScriptInvalid(t *testing.T) {

	tlist := map[string]string{
		"no navigations":  "routes: [/]",
		"empty path":      "navigations: [{path: ''}]",
		"cancel and fail": "routes: [{path: /a, cancel: x, fail: y}]\nnavigations: [{path: /a}]",
		"not yaml":        "navigations: [",
	}

	for name, src := range tlist {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestReplay(t *testing.T) {

	s, err := ParseScript([]byte(dashboardScript))
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	res, err := Replay(s, logger, routerevents.AllNavigationEventKeys())
	require.NoError(t, err)

	assert.True(t, res.Recorded)
	assert.Equal(t, "/reports?tab=summary", res.LastNavigation)
	assert.Equal(t, 2, res.Failed) // /broken and /nowhere
	assert.Equal(t, 12, res.Events)
	assert.Contains(t, logs.String(), "NavigationCancel")
}

func TestReplayEndOnly(t *testing.T) {

	s, err := ParseScript([]byte(dashboardScript))
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	res, err := Replay(s, logger, []routerevents.NavigationEventKey{routerevents.NavEnd})
	require.NoError(t, err)

	// /dashboard, /error/403 and /reports
	assert.Equal(t, 3, res.Events)
}

func TestLoadScriptsJSONC(t *testing.T) {

	p := writeFile(t, "redirect.jsonc", redirectScript)

	scripts, err := loadScripts([]string{p})
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, p, scripts[0].Name)
	assert.True(t, scripts[0].NotFound)

	res, err := Replay(scripts[0], slog.New(slog.DiscardHandler), routerevents.AllNavigationEventKeys())
	require.NoError(t, err)
	assert.Equal(t, "/somewhere/else", res.LastNavigation)
	assert.Equal(t, 0, res.Failed)
}

func TestRun(t *testing.T) {

	p1 := writeFile(t, "dashboard.yaml", dashboardScript)
	p2 := writeFile(t, "redirect.jsonc", redirectScript)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--events", "end,error", p1, p2}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), p1+": last navigation /reports?tab=summary (5 events, 2 failed navigations)")
	assert.Contains(t, stdout.String(), p2+": last navigation /somewhere/else (2 events, 0 failed navigations)")
	assert.Contains(t, stderr.String(), "NavigationError")
}

func TestRunJSONQuiet(t *testing.T) {

	p := writeFile(t, "dashboard.yaml", dashboardScript)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-q", "--json", p}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Empty(t, stdout.String())
}

func TestRunErrors(t *testing.T) {

	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"--events", "finish", "x.yaml"}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr))
}
