package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// Client is a PostgreSQL implementation of RecordStore. All tables share the
// versioned_records table and are distinguished by table_name.
type Client struct {
	pool     *pgxpool.Pool
	maxConns int32
	now      func() time.Time
}

// Option configures Client
type Option func(*Client)

// WithMaxConns limits the size of the connection pool
func WithMaxConns(n int32) Option {
	return func(c *Client) {
		c.maxConns = n
	}
}

// WithClock replaces the time source used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New connects to PostgreSQL and verifies the connection
func New(ctx context.Context, dsn string, opts ...Option) (*Client, error) {
	if dsn == "" {
		return nil, goerr.New("postgres DSN is required", goerr.T(apperr.ErrTagInvalidInput))
	}

	c := &Client{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		// The DSN may carry a password; do not attach it to the error
		return nil, goerr.Wrap(err, "failed to parse postgres DSN", goerr.T(apperr.ErrTagInvalidInput))
	}
	if c.maxConns > 0 {
		cfg.MaxConns = c.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool",
			goerr.T(apperr.ErrTagStoreIO), goerr.T(apperr.ErrTagPostgres))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres",
			goerr.V("host", cfg.ConnConfig.Host),
			goerr.V("database", cfg.ConnConfig.Database),
			goerr.T(apperr.ErrTagStoreIO), goerr.T(apperr.ErrTagPostgres))
	}

	c.pool = pool
	return c, nil
}

// Close releases every pooled connection
func (c *Client) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}

func wrapErr(err error, msg string, table string, opts ...goerr.Option) error {
	opts = append(opts,
		goerr.TV(apperr.TableKey, table),
		goerr.V("repository", "postgres"),
		goerr.T(apperr.ErrTagStoreIO),
		goerr.T(apperr.ErrTagPostgres),
	)
	return goerr.Wrap(err, msg, opts...)
}
