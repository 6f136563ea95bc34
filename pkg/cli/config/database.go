package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/repository/database/memory"
	"github.com/m-mizutani/inari/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// Record store backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
)

// Database selects and configures the record store backend
type Database struct {
	Backend   string
	Firestore Firestore
	Postgres  Postgres
}

// Flags returns CLI flags for the backend selection and every backend
func (d *Database) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Category:    "database",
			Usage:       "Record store backend [memory|firestore|postgres]",
			Sources:     cli.EnvVars("INARI_DB"),
			Value:       BackendMemory,
			Destination: &d.Backend,
		},
	}
	flags = append(flags, d.Firestore.Flags()...)
	flags = append(flags, d.Postgres.Flags()...)
	return flags
}

// LogValue returns the database configuration as a slog.Value for logging
func (d Database) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("backend", d.Backend)}
	switch d.Backend {
	case BackendFirestore:
		attrs = append(attrs, slog.Any("firestore", d.Firestore))
	case BackendPostgres:
		attrs = append(attrs, slog.Any("postgres", d.Postgres))
	}
	return slog.GroupValue(attrs...)
}

// Validate checks the backend name and the selected backend's settings
func (d *Database) Validate() error {
	switch d.Backend {
	case BackendMemory:
		return nil
	case BackendFirestore:
		return d.Firestore.Validate()
	case BackendPostgres:
		return d.Postgres.Validate()
	default:
		return goerr.New("unknown database backend",
			goerr.V("backend", d.Backend),
			goerr.V("valid_backends", []string{BackendMemory, BackendFirestore, BackendPostgres}),
			goerr.T(apperr.ErrTagInvalidInput))
	}
}

// Configure creates the record store. The returned function releases it.
func (d *Database) Configure(ctx context.Context) (interfaces.RecordStore, func(), error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}

	switch d.Backend {
	case BackendFirestore:
		client, err := d.Firestore.Configure(ctx)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { safe.Close(ctx, client) }, nil

	case BackendPostgres:
		client, err := d.Postgres.Configure(ctx)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { safe.Close(ctx, client) }, nil

	default:
		ctxlog.From(ctx).Warn("using in-memory record store, data is lost when the process exits")
		return memory.New(), func() {}, nil
	}
}
