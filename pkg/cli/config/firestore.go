package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/repository/database/firestore"
	"github.com/urfave/cli/v3"
)

// Firestore contains configuration for Google Cloud Firestore
type Firestore struct {
	ProjectID        string
	DatabaseID       string
	CollectionPrefix string
}

// Flags returns CLI flags for Firestore configuration
func (f *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Category:    "firestore",
			Usage:       "Google Cloud Project ID for Firestore",
			Sources:     cli.EnvVars("INARI_FIRESTORE_PROJECT_ID"),
			Destination: &f.ProjectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Category:    "firestore",
			Usage:       "Firestore Database ID",
			Sources:     cli.EnvVars("INARI_FIRESTORE_DATABASE_ID"),
			Value:       "(default)",
			Destination: &f.DatabaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Category:    "firestore",
			Usage:       "Prefix of collection names, to share one database between environments",
			Sources:     cli.EnvVars("INARI_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &f.CollectionPrefix,
		},
	}
}

// LogValue returns the Firestore configuration as a slog.Value for logging
func (f Firestore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", f.ProjectID),
		slog.String("database_id", f.DatabaseID),
		slog.String("collection_prefix", f.CollectionPrefix),
	)
}

// Validate checks if the Firestore configuration is usable
func (f *Firestore) Validate() error {
	if f.ProjectID == "" {
		return goerr.New("--firestore-project-id is required for the firestore backend",
			goerr.T(apperr.ErrTagInvalidInput))
	}
	if f.DatabaseID == "" {
		f.DatabaseID = "(default)"
	}
	return nil
}

// Configure creates the Firestore record store
func (f *Firestore) Configure(ctx context.Context) (*firestore.Client, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var opts []firestore.Option
	if f.CollectionPrefix != "" {
		opts = append(opts, firestore.WithCollectionPrefix(f.CollectionPrefix))
	}
	return firestore.New(ctx, f.ProjectID, f.DatabaseID, opts...)
}
