// Package applog is the one place every task in the call appliance gets
// its logger from. It keeps a single charmbracelet/log instance per
// process and hands out named sub-loggers so log lines can be told apart
// by which task emitted them, the same way the upstream packet-radio
// engine tags output by subsystem.
package applog

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

var (
	once sync.Once
	root *log.Logger
)

const bannerFormat = "%Y-%m-%d %H:%M:%S"

// SetLevel adjusts the global log verbosity. Called once from cmd/voxlink
// after the configuration file's log_level has been parsed.
func SetLevel(level log.Level) {
	ensure()
	root.SetLevel(level)
}

// SetOutput redirects every logger's destination. Tests use this to
// capture output instead of writing to stderr.
func SetOutput(w io.Writer) {
	ensure()
	root.SetOutput(w)
}

func ensure() {
	once.Do(func() {
		root = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		})
	})
}

// For returns a logger tagged with the given task name, e.g. For("network")
// adds a task=network field to every line so a mixed stderr stream stays
// readable across five concurrently logging goroutines.
func For(task string) *log.Logger {
	ensure()
	return root.With("task", task)
}

// SessionBanner renders a one-line "voxlink session started ..." string for
// the initial log line emitted by cmd/voxlink, timestamped with strftime
// rather than a bare time.Format call.
func SessionBanner(start time.Time) string {
	formatted, err := strftime.Format(bannerFormat, start)
	if err != nil {
		return "voxlink session started"
	}
	return "voxlink session started " + formatted
}
