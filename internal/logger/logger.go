// Package logger configures logrus for the command-line front ends.
//
// Operational logs always go to stderr so stdout stays free for panel
// content. In text mode a compact [CLIFormatter] is used unless debug output
// is requested, in which case full timestamps and fields are shown.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Options control [Setup].
type Options struct {
	// Debug enables debug level and verbose formatting.
	Debug bool

	// JSON switches to one JSON object per line.
	JSON bool

	// Quiet limits output to errors. Debug wins when both are set.
	Quiet bool

	// Level is a logrus level name used when neither Debug nor Quiet is set.
	// Empty means info.
	Level string

	// Out receives log output. Defaults to os.Stderr.
	Out io.Writer
}

// Setup builds a logger from opts. LOG_MODE (quiet, verbose, debug) and
// LOG_FORMAT (json, text) in the environment override the flags.
func Setup(opts Options) (*logrus.Logger, error) {
	applyEnv(&opts)

	level := logrus.InfoLevel
	switch {
	case opts.Debug:
		level = logrus.DebugLevel
	case opts.Quiet:
		level = logrus.ErrorLevel
	case opts.Level != "":
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)

	switch {
	case opts.JSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	case opts.Debug:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   isTerminal(out),
		})
	default:
		log.SetFormatter(&CLIFormatter{DisableTimestamp: true, DisableColors: !isTerminal(out)})
	}
	return log, nil
}

func applyEnv(opts *Options) {
	switch os.Getenv("LOG_MODE") {
	case "quiet":
		opts.Quiet, opts.Debug = true, false
	case "verbose", "debug":
		opts.Debug, opts.Quiet = true, false
	}
	switch os.Getenv("LOG_FORMAT") {
	case "json":
		opts.JSON = true
	case "text":
		opts.JSON = false
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// CLIFormatter renders "LEVEL message key=value ..." lines.
type CLIFormatter struct {
	DisableTimestamp bool
	DisableColors    bool
}

// Format implements [logrus.Formatter].
func (f *CLIFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if !f.DisableTimestamp {
		b.WriteString(entry.Time.Format("15:04:05"))
		b.WriteByte(' ')
	}

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	if f.DisableColors {
		fmt.Fprintf(&b, "%-4s ", level)
	} else {
		fmt.Fprintf(&b, "\x1b[%dm%-4s\x1b[0m ", levelColor(entry.Level), level)
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return 37
	case logrus.WarnLevel:
		return 33
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return 31
	default:
		return 36
	}
}
