package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/inari/pkg/service/seed"
	"github.com/urfave/cli/v3"
)

const defaultHistoryLimit = 10

func cmdDefinition(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:    "definition",
		Aliases: []string{"def"},
		Usage:   "Manage agent definitions",
		Commands: []*cli.Command{
			cmdDefinitionGet(cfg),
			cmdDefinitionHistory(cfg),
			cmdDefinitionList(cfg),
			cmdDefinitionPut(cfg),
		},
	}
}

func cmdDefinitionGet(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the current definition of an agent",
		ArgsUsage: "AGENT_ID",
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

			def, err := rt.registry.GetDefinition(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, def)
		},
	}
}

func cmdDefinitionHistory(cfg *appConfig) *cli.Command {
	var limit int

	return &cli.Command{
		Name:      "history",
		Usage:     "Print stored versions of an agent definition, newest first",
		ArgsUsage: "AGENT_ID",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "Maximum number of versions (0 for all)",
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

			history, err := rt.registry.GetDefinitionHistory(ctx, args[0], limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd, history)
		},
	}
}

func cmdDefinitionList(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print every agent ID with a stored definition",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			ids, err := rt.registry.ListDefinitions(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd, ids)
		},
	}
}

func cmdDefinitionPut(cfg *appConfig) *cli.Command {
	var file string

	return &cli.Command{
		Name:  "put",
		Usage: "Store a new version of an agent definition from a YAML file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Usage:       "YAML file with one definition entry ('-' for stdin)",
				Destination: &file,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := readInput(file)
			if err != nil {
				return err
			}
			entry, err := seed.ParseDefinition(data)
			if err != nil {
				return err
			}
			def, err := entry.ToDefinition()
			if err != nil {
				return err
			}

			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			stored, err := rt.registry.PutDefinition(ctx, def)
			if err != nil {
				return err
			}
			ctxlog.From(ctx).Debug("definition put from file", "path", file)
			return writeJSON(cmd, stored)
		},
	}
}
