package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/utils/logging"
	"github.com/m-mizutani/inari/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// Logger holds the configuration for logging. Logs go to stderr by default
// so that command output on stdout stays machine readable.
type Logger struct {
	level      string
	format     string
	output     string
	quiet      bool
	stacktrace bool
}

// Flags returns CLI flags for logger configuration
func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Category:    "logging",
			Aliases:     []string{"l"},
			Sources:     cli.EnvVars("INARI_LOG_LEVEL"),
			Usage:       "Log level [debug|info|warn|error]",
			Value:       "info",
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Category:    "logging",
			Sources:     cli.EnvVars("INARI_LOG_FORMAT"),
			Usage:       "Log format [console|json], detected from TERM when empty",
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Category:    "logging",
			Sources:     cli.EnvVars("INARI_LOG_OUTPUT"),
			Usage:       "Log destination: 'stderr', 'stdout' ('-') or a file path",
			Value:       "stderr",
			Destination: &x.output,
		},
		&cli.BoolFlag{
			Name:        "log-quiet",
			Category:    "logging",
			Aliases:     []string{"q"},
			Sources:     cli.EnvVars("INARI_LOG_QUIET"),
			Usage:       "Discard all log output",
			Destination: &x.quiet,
		},
		&cli.BoolFlag{
			Name:        "log-stacktrace",
			Category:    "logging",
			Sources:     cli.EnvVars("INARI_LOG_STACKTRACE"),
			Usage:       "Print error stacktraces (console format only)",
			Value:       true,
			Destination: &x.stacktrace,
		},
	}
}

// LogValue returns the logger configuration as a slog.Value for logging
func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
		slog.Bool("quiet", x.quiet),
		slog.Bool("stacktrace", x.stacktrace),
	)
}

// Configure builds the logger and installs it as the slog default. The
// returned function closes the log file when output goes to one.
func (x *Logger) Configure() (*slog.Logger, func(), error) {
	if x.quiet {
		return logging.Quiet(), func() {}, nil
	}

	level, err := logging.ParseLevel(x.level)
	if err != nil {
		return nil, nil, err
	}
	format, err := logging.ParseFormat(x.format)
	if err != nil {
		return nil, nil, err
	}

	w, closer, err := openLogOutput(x.output)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(w, level, format, x.stacktrace)
	logging.SetDefault(logger)
	return logger, closer, nil
}

func openLogOutput(output string) (io.Writer, func(), error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, func() {}, nil
	case "stdout", "-":
		return os.Stdout, func() {}, nil
	}

	f, err := os.OpenFile(filepath.Clean(output), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to open log file",
			goerr.V("path", output),
			goerr.T(apperr.ErrTagInvalidInput))
	}
	return f, func() { safe.Close(context.Background(), f) }, nil
}
