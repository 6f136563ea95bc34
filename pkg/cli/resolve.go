package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

func cmdResolve(cfg *appConfig) *cli.Command {
	var exts []string

	return &cli.Command{
		Name:      "resolve",
		Aliases:   []string{"r"},
		Usage:     "Print the effective config of an agent",
		ArgsUsage: "AGENT_ID",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "ext",
				Aliases:     []string{"e"},
				Usage:       "Extension to apply as type=key; repeat to apply several, in order",
				Destination: &exts,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "AGENT_ID")
			if err != nil {
				return err
			}
			refs, err := parseRefs(exts)
			if err != nil {
				return err
			}

			rt, err := cfg.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			resolved, err := rt.registry.Resolve(ctx, args[0], refs)
			if err != nil {
				return err
			}
			return writeJSON(cmd, resolved)
		},
	}
}
