package postgres

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/repository/database/postgres/migrations"
)

// Migrate applies the embedded schema migrations
func (c *Client) Migrate(ctx context.Context) ([]string, error) {
	return c.RunMigrations(ctx, migrations.FS)
}

// RunMigrations executes unapplied .sql files from migrationsFS in name
// order and returns the names it applied. Applied files are tracked in
// schema_migrations so each runs at most once. Migrations only go forward.
func (c *Client) RunMigrations(ctx context.Context, migrationsFS fs.FS) ([]string, error) {
	logger := ctxlog.From(ctx)

	if _, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return nil, wrapMigrationErr(err, "failed to create schema_migrations")
	}

	applied, err := c.loadAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read migrations dir")
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var done []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		name := entry.Name()
		if applied[name] {
			logger.Debug("migration already applied, skipping", "file", name)
			continue
		}

		content, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return done, goerr.Wrap(err, "failed to read migration", goerr.V("file", name))
		}

		logger.Info("running migration", "file", name)
		if _, err := c.pool.Exec(ctx, string(content)); err != nil {
			return done, wrapMigrationErr(err, "failed to execute migration", goerr.V("file", name))
		}

		if _, err := c.pool.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING`, name,
		); err != nil {
			return done, wrapMigrationErr(err, "failed to record migration", goerr.V("file", name))
		}
		done = append(done, name)
	}

	return done, nil
}

func (c *Client) loadAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := c.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, wrapMigrationErr(err, "failed to load applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, wrapMigrationErr(err, "failed to scan applied migration")
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, wrapMigrationErr(err, "failed to iterate applied migrations")
	}
	return applied, nil
}

func wrapMigrationErr(err error, msg string, opts ...goerr.Option) error {
	opts = append(opts,
		goerr.TV(apperr.OperationKey, "migrate"),
		goerr.T(apperr.ErrTagStoreIO),
		goerr.T(apperr.ErrTagPostgres),
	)
	return goerr.Wrap(err, msg, opts...)
}
