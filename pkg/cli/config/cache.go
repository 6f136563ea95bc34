package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/service/cache"
	"github.com/urfave/cli/v3"
)

// Cache contains configuration for the resolution cache
type Cache struct {
	TTL             time.Duration
	Size            int
	CleanupInterval time.Duration
}

// Flags returns CLI flags for cache configuration
func (c *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Category:    "cache",
			Usage:       "Lifetime of a resolved agent config",
			Sources:     cli.EnvVars("INARI_CACHE_TTL"),
			Value:       cache.DefaultTTL,
			Destination: &c.TTL,
		},
		&cli.IntFlag{
			Name:        "cache-size",
			Category:    "cache",
			Usage:       "Maximum number of cached resolutions",
			Sources:     cli.EnvVars("INARI_CACHE_SIZE"),
			Value:       cache.DefaultMaxEntries,
			Destination: &c.Size,
		},
		&cli.DurationFlag{
			Name:        "cache-cleanup-interval",
			Category:    "cache",
			Usage:       "Interval of the expired entry sweep (0 disables it)",
			Sources:     cli.EnvVars("INARI_CACHE_CLEANUP_INTERVAL"),
			Destination: &c.CleanupInterval,
		},
	}
}

// LogValue returns the cache configuration as a slog.Value for logging
func (c Cache) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("ttl", c.TTL),
		slog.Int("size", c.Size),
		slog.Duration("cleanup_interval", c.CleanupInterval),
	)
}

// Validate checks the cache limits
func (c *Cache) Validate() error {
	if c.TTL <= 0 {
		return goerr.New("--cache-ttl must be positive", goerr.V("ttl", c.TTL), goerr.T(apperr.ErrTagInvalidInput))
	}
	if c.Size <= 0 {
		return goerr.New("--cache-size must be positive", goerr.V("size", c.Size), goerr.T(apperr.ErrTagInvalidInput))
	}
	if c.CleanupInterval < 0 {
		return goerr.New("--cache-cleanup-interval cannot be negative",
			goerr.V("cleanup_interval", c.CleanupInterval),
			goerr.T(apperr.ErrTagInvalidInput))
	}
	return nil
}

// Configure creates the cache and starts its sweep until ctx is done
func (c *Cache) Configure(ctx context.Context) (*cache.ResolutionCache, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rc, err := cache.New(cache.WithTTL(c.TTL), cache.WithMaxEntries(c.Size))
	if err != nil {
		return nil, err
	}
	if c.CleanupInterval > 0 {
		rc.StartCleanupWorker(ctx, c.CleanupInterval)
	}
	return rc, nil
}
