package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/utils/async"
	"github.com/urfave/cli/v3"
)

func cmdLogs(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Record and inspect agent invocation logs",
		Commands: []*cli.Command{
			cmdLogsList(cfg),
			cmdLogsRecord(cfg),
		},
	}
}

func cmdLogsList(cfg *appConfig) *cli.Command {
	var limit int

	return &cli.Command{
		Name:      "list",
		Usage:     "Print invocation logs of an agent, newest first",
		ArgsUsage: "AGENT_ID",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "Maximum number of logs (0 for all)",
				Value:       defaultHistoryLimit,
				Destination: &limit,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "AGENT_ID")
			if err != nil {
				return err
			}

			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			logs, err := rt.registry.GetLogs(ctx, args[0], limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd, logs)
		},
	}
}

func cmdLogsRecord(cfg *appConfig) *cli.Command {
	var (
		entry    agent.Log
		exts     []string
		duration time.Duration
		version  int
	)

	return &cli.Command{
		Name:  "record",
		Usage: "Append an invocation log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "agent",
				Aliases:     []string{"a"},
				Usage:       "Agent ID",
				Required:    true,
				Destination: &entry.AgentID,
			},
			&cli.StringSliceFlag{
				Name:        "ext",
				Aliases:     []string{"e"},
				Usage:       "Extension applied as type=key",
				Destination: &exts,
			},
			&cli.IntFlag{
				Name:        "definition-version",
				Usage:       "Version of the base definition used",
				Destination: &version,
			},
			&cli.StringFlag{
				Name:        "model",
				Usage:       "Model that served the invocation",
				Destination: &entry.Model,
			},
			&cli.StringFlag{
				Name:        "input",
				Usage:       "Invocation input",
				Destination: &entry.Input,
			},
			&cli.StringFlag{
				Name:        "output",
				Usage:       "Invocation output",
				Destination: &entry.Output,
			},
			&cli.StringFlag{
				Name:        "error",
				Usage:       "Error message if the invocation failed",
				Destination: &entry.Error,
			},
			&cli.DurationFlag{
				Name:        "duration",
				Usage:       "Invocation duration",
				Destination: &duration,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if version < 0 {
				return goerr.New("definition version must not be negative",
					goerr.V("definition_version", version),
					goerr.T(apperr.ErrTagInvalidInput))
			}
			refs, err := parseRefs(exts)
			if err != nil {
				return err
			}
			entry.Extensions = refs
			entry.DefinitionVersion = int64(version)
			entry.Duration = duration

			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.registry.RecordLog(ctx, &entry)

			// flush before the deferred Close releases the store
			waitCtx, cancel := context.WithTimeout(ctx, asyncFlushTimeout)
			defer cancel()
			return async.Wait(waitCtx)
		},
	}
}
