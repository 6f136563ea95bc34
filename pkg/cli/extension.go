package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/service/seed"
	"github.com/urfave/cli/v3"
)

func cmdExtension(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:    "extension",
		Aliases: []string{"ext"},
		Usage:   "Manage agent extensions",
		Commands: []*cli.Command{
			cmdExtensionGet(cfg),
			cmdExtensionHistory(cfg),
			cmdExtensionList(cfg),
			cmdExtensionPut(cfg),
		},
	}
}

func cmdExtensionGet(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the current version of an extension",
		ArgsUsage: "AGENT_ID TYPE KEY",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "AGENT_ID", "TYPE", "KEY")
			if err != nil {
				return err
			}

			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			ext, err := rt.registry.GetExtension(ctx, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if ext == nil {
				return goerr.New("extension not found",
					goerr.TV(apperr.AgentIDKey, args[0]),
					goerr.TV(apperr.ExtensionTypeKey, args[1]),
					goerr.TV(apperr.ExtensionKeyKey, args[2]),
					goerr.T(apperr.ErrTagNotFound))
			}
			return writeJSON(cmd, ext)
		},
	}
}

func cmdExtensionHistory(cfg *appConfig) *cli.Command {
	var limit int

	return &cli.Command{
		Name:      "history",
		Usage:     "Print stored versions of an extension, newest first",
		ArgsUsage: "AGENT_ID TYPE KEY",
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
			args, err := requireArgs(cmd, "AGENT_ID", "TYPE", "KEY")
			if err != nil {
				return err
			}

			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			history, err := rt.registry.GetExtensionHistory(ctx, args[0], args[1], args[2], limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd, history)
		},
	}
}

func cmdExtensionList(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the identity of every stored extension",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			ids, err := rt.registry.ListAllExtensions(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd, ids)
		},
	}
}

func cmdExtensionPut(cfg *appConfig) *cli.Command {
	var file string

	return &cli.Command{
		Name:  "put",
		Usage: "Store a new version of an extension from a YAML file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Usage:       "YAML file with one extension entry ('-' for stdin)",
				Destination: &file,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := readInput(file)
			if err != nil {
				return err
			}
			entry, err := seed.ParseExtension(data)
			if err != nil {
				return err
			}
			ext, err := entry.ToExtension()
			if err != nil {
				return err
			}

			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			stored, err := rt.registry.PutExtension(ctx, ext)
			if err != nil {
				return err
			}
			return writeJSON(cmd, stored)
		},
	}
}
