package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/utils/async"
	"github.com/m-mizutani/inari/pkg/utils/errors"
	"github.com/urfave/cli/v3"
)

// asyncFlushTimeout bounds how long the process waits for background writes
const asyncFlushTimeout = 10 * time.Second

// Option configures Run
type Option func(*options)

type options struct {
	output io.Writer
}

// WithOutput sets where command results are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// Run executes the inari command line with args
func Run(ctx context.Context, args []string, opts ...Option) error {
	o := options{output: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		cfg         appConfig
		closeLogger = func() {}
	)

	flags := cfg.logger.Flags()
	flags = append(flags, cfg.database.Flags()...)
	flags = append(flags, cfg.cache.Flags()...)
	flags = append(flags, cfg.storage.Flags()...)

	app := &cli.Command{
		Name:   "inari",
		Usage:  "Agent definition and versioning registry",
		Flags:  flags,
		Writer: o.output,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := cfg.logger.Configure()
			if err != nil {
				return ctx, err
			}
			closeLogger = closer

			ctx = ctxlog.With(ctx, logger)
			ctxlog.From(ctx).Debug("base options",
				"logger", cfg.logger,
				"database", cfg.database,
				"cache", cfg.cache,
				"storage", cfg.storage)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			waitCtx, cancel := context.WithTimeout(ctx, asyncFlushTimeout)
			defer cancel()
			return async.Wait(waitCtx)
		},
		Commands: []*cli.Command{
			cmdResolve(&cfg),
			cmdDefinition(&cfg),
			cmdExtension(&cfg),
			cmdLogs(&cfg),
			cmdSeed(&cfg),
			cmdExport(&cfg),
			cmdMigrate(&cfg),
			cmdTool(),
		},
	}

	err := app.Run(ctx, args)
	if err != nil {
		errors.Handle(ctx, goerr.Wrap(err, "failed to run app"))
	}
	closeLogger()
	return err
}
