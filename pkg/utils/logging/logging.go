package logging

import (
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/masq"
)

// Format is the log output format
type Format int

const (
	FormatConsole Format = iota + 1
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatConsole:
		return "console"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel converts a level name to slog.Level
func ParseLevel(s string) (slog.Level, error) {
	level, ok := levels[strings.ToLower(s)]
	if !ok {
		return slog.LevelInfo, goerr.New("invalid log level",
			goerr.V("level", s),
			goerr.V("valid_levels", []string{"debug", "info", "warn", "error"}),
			goerr.T(apperr.ErrTagInvalidInput))
	}
	return level, nil
}

// ParseFormat converts a format name to Format. An empty name picks console
// output for color terminals and JSON otherwise.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "":
		return DetectFormat(os.Getenv("TERM")), nil
	case "console":
		return FormatConsole, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatConsole, goerr.New("invalid log format",
			goerr.V("format", s),
			goerr.V("valid_formats", []string{"console", "json"}),
			goerr.T(apperr.ErrTagInvalidInput))
	}
}

// DetectFormat chooses the format for the terminal type term
func DetectFormat(term string) Format {
	if strings.Contains(term, "color") || strings.Contains(term, "xterm") {
		return FormatConsole
	}
	return FormatJSON
}

// SetDefault replaces the process-wide slog logger
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

// Quiet returns a logger that discards everything and installs it as default
func Quiet() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	SetDefault(logger)
	return logger
}

// New creates a logger writing to w. Connection strings and secret fields
// are masked in both formats.
func New(w io.Writer, level slog.Level, format Format, stacktrace bool) *slog.Logger {
	filter := newFilter()

	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: filter,
		}))
	}

	hook := clog.GoerrHook
	if !stacktrace {
		hook = goerrWithoutStacktrace
	}
	return slog.New(clog.New(
		clog.WithWriter(w),
		clog.WithLevel(level),
		clog.WithReplaceAttr(filter),
		clog.WithAttrHook(hook),
		clog.WithColorMap(colorMap()),
	))
}

func newFilter() func([]string, slog.Attr) slog.Attr {
	return masq.New(
		masq.WithTag("secret"),
		masq.WithFieldPrefix("secret_"),
		masq.WithFieldName("DSN"),
		masq.WithFieldName("dsn"),
		masq.WithFieldName("postgres_dsn"),
		masq.WithFieldName("Password"),
		masq.WithFieldName("CredentialsFile"),
	)
}

func colorMap() *clog.ColorMap {
	return &clog.ColorMap{
		Level: map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgGreen, color.Bold),
			slog.LevelInfo:  color.New(color.FgCyan, color.Bold),
			slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
			slog.LevelError: color.New(color.FgRed, color.Bold),
		},
		LevelDefault: color.New(color.FgBlue, color.Bold),
		Time:         color.New(color.FgWhite),
		Message:      color.New(color.FgHiWhite),
		AttrKey:      color.New(color.FgHiCyan),
		AttrValue:    color.New(color.FgHiWhite),
	}
}

// goerrWithoutStacktrace renders a goerr error as a group of its message,
// values in key order, and cause
func goerrWithoutStacktrace(_ []string, attr slog.Attr) *clog.HandleAttr {
	goErr, ok := attr.Value.Any().(*goerr.Error)
	if !ok {
		return nil
	}

	values := goErr.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	attrs := []any{slog.String("message", goErr.Error())}
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, values[k]))
	}
	if cause := goErr.Unwrap(); cause != nil {
		attrs = append(attrs, slog.Any("cause", cause))
	}

	grouped := slog.Group(attr.Key, attrs...)
	return &clog.HandleAttr{NewAttr: &grouped}
}
