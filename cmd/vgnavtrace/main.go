// Command vgnavtrace replays navigation scripts through a vgnav Router and logs
// the navigation events and the last successful navigation of each.
//
//	vgnavtrace [-q] [--json] [--log-level debug] [--events start,end] script.yaml...
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/vugu/vgnav/routerevents"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {

	flags := pflag.NewFlagSet("vgnavtrace", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	q := flags.BoolP("quiet", "q", false, "Only print information upon error (quiet mode)")
	jsonLogs := flags.Bool("json", false, "Write log output as JSON")
	logLevel := flags.String("log-level", "info", "Log level: debug, info, warn or error")
	eventNames := flags.StringSlice("events", nil, "Navigation events to log: start, end, cancel, error (default all)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	paths := flags.Args()
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "usage: vgnavtrace [flags] script...")
		flags.PrintDefaults()
		return 2
	}

	keys := routerevents.AllNavigationEventKeys()
	if len(*eventNames) > 0 {
		keys = keys[:0]
		for _, name := range *eventNames {
			k, err := routerevents.ParseNavigationEventKey(name)
			if err != nil {
				fmt.Fprintf(stderr, "error: %v\n", err)
				return 2
			}
			keys = append(keys, k)
		}
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(parseLevel(*logLevel))
	if *q {
		levelVar.Set(slog.LevelError)
	}
	handlerOpts := &slog.HandlerOptions{Level: levelVar}
	var handler slog.Handler = slog.NewTextHandler(stderr, handlerOpts)
	if *jsonLogs {
		handler = slog.NewJSONHandler(stderr, handlerOpts)
	}
	logger := slog.New(handler)

	scripts, err := loadScripts(paths)
	if err != nil {
		logger.Error("loading scripts failed", "error", err)
		return 1
	}

	for _, s := range scripts {

		slogger := logger.With("script", s.Name)
		slogger.Info("replaying script", "navigations", len(s.Navigations))

		res, err := Replay(s, slogger, keys)
		if err != nil {
			slogger.Error("replay failed", "error", err)
			return 1
		}

		if *q {
			continue
		}
		last := res.LastNavigation
		if !res.Recorded {
			last = "(none)"
		}
		fmt.Fprintf(stdout, "%s: last navigation %s (%d events, %d failed navigations)\n", s.Name, last, res.Events, res.Failed)
	}

	return 0
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
