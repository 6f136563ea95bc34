package cli

import (
	"context"

	"github.com/m-mizutani/inari/pkg/service/seed"
	"github.com/urfave/cli/v3"
)

func cmdSeed(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Apply a seed document from storage and print what changed",
		ArgsUsage: "KEY",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "KEY")
			if err != nil {
				return err
			}
			if err := cfg.storage.Validate(); err != nil {
				return err
			}

			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			doc, err := seed.Load(ctx, rt.storage, args[0])
			if err != nil {
				return err
			}
			summary, err := seed.Apply(ctx, doc, rt.registry, rt.tools, rt.contexts)
			if err != nil {
				return err
			}
			return writeJSON(cmd, summary)
		},
	}
}

func cmdExport(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write the latest definitions and extensions as a seed document",
		ArgsUsage: "[KEY]",
		Description: "With KEY the snapshot is saved to the configured storage. " +
			"Without it the YAML document is printed.",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 1 {
				_, err := requireArgs(cmd, "KEY")
				return err
			}
			key := cmd.Args().First()
			if key != "" {
				if err := cfg.storage.Validate(); err != nil {
					return err
				}
			}

			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			doc, err := seed.Export(ctx, rt.registry, rt.tools, rt.contexts)
			if err != nil {
				return err
			}

			if key != "" {
				return seed.Save(ctx, rt.storage, key, doc)
			}

			data, err := seed.Marshal(doc)
			if err != nil {
				return err
			}
			return writeRaw(cmd, data)
		},
	}
}
