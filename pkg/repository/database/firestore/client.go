package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

const (
	// Versions of a key are stored under its head document
	subCollectionVersions = "versions"
)

// Client is a Firestore implementation of RecordStore.
//
// Each table is a collection holding one head document per key. The head
// tracks the latest version and the latest active version, and the versions
// themselves live in its "versions" subcollection. No composite index is
// required.
type Client struct {
	client           *firestore.Client
	projectID        string
	databaseID       string
	collectionPrefix string
	now              func() time.Time
}

// Option configures Client
type Option func(*Client)

// WithCollectionPrefix prepends prefix to every collection name so that
// several environments can share one database.
func WithCollectionPrefix(prefix string) Option {
	return func(c *Client) {
		c.collectionPrefix = prefix
	}
}

// WithClock replaces the time source used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new Firestore client using Application Default Credentials
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Client, error) {
	if projectID == "" {
		return nil, goerr.New("project ID is required", goerr.T(apperr.ErrTagInvalidInput))
	}
	if databaseID == "" {
		databaseID = "(default)"
	}

	// Create Firestore client with ADC
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.TV(apperr.ProjectIDKey, projectID),
			goerr.V("database_id", databaseID),
			goerr.T(apperr.ErrTagFirestore))
	}

	c := &Client{
		client:     client,
		projectID:  projectID,
		databaseID: databaseID,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close closes the Firestore client
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *Client) collection(table string) *firestore.CollectionRef {
	return c.client.Collection(c.collectionPrefix + table)
}

// wrapErr tags a Firestore failure so callers can tell store I/O errors
// from validation and not-found conditions.
func wrapErr(err error, msg string, table string, opts ...goerr.Option) error {
	opts = append(opts,
		goerr.TV(apperr.TableKey, table),
		goerr.V("repository", "firestore"),
		goerr.T(apperr.ErrTagStoreIO),
		goerr.T(apperr.ErrTagFirestore),
	)
	return goerr.Wrap(err, msg, opts...)
}
