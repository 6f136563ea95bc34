package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/cli/config"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate(cfg *appConfig) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending PostgreSQL schema migrations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cfg.database.Backend != config.BackendPostgres {
				return goerr.New("migrate requires the postgres backend",
					goerr.V("backend", cfg.database.Backend),
					goerr.T(apperr.ErrTagInvalidInput))
			}

			client, err := cfg.database.Postgres.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, client)

			applied, err := client.Migrate(ctx)
			if err != nil {
				return err
			}
			ctxlog.From(ctx).Info("migrations applied", "count", len(applied))
			if applied == nil {
				applied = []string{}
			}
			return writeJSON(cmd, applied)
		},
	}
}
