package cs

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/utils/safe"
)

// Client stores seed and snapshot documents in a Cloud Storage bucket
type Client struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.StorageAdapter = (*Client)(nil)

// Option is a functional option for Client
type Option func(*Client)

// WithPrefix sets the prefix for all storage keys
func WithPrefix(prefix string) Option {
	return func(c *Client) {
		c.prefix = prefix
	}
}

// New creates a new Cloud Storage client
func New(ctx context.Context, bucketName string, opts ...Option) (*Client, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required", goerr.T(apperr.ErrTagValidation))
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.T(apperr.ErrTagStorage))
	}

	c := &Client{
		client: client,
		bucket: bucketName,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close closes the Cloud Storage client
func (c *Client) Close() error {
	return c.client.Close()
}

// ObjectPath returns the object name used for key
func (c *Client) ObjectPath(key string) string {
	return c.prefix + key
}

// Put stores data with the given key
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return goerr.Wrap(interfaces.ErrStorageInvalidKey, "key cannot be empty")
	}

	path := c.ObjectPath(key)
	w := c.client.Bucket(c.bucket).Object(path).NewWriter(ctx)
	w.ContentType = "application/yaml"

	if _, err := w.Write(data); err != nil {
		safe.Close(ctx, w)
		return goerr.Wrap(err, "failed to write data to Cloud Storage", c.values(key, path)...)
	}

	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to close Cloud Storage writer", c.values(key, path)...)
	}

	return nil
}

// Get retrieves data by the given key
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	path := c.ObjectPath(key)

	r, err := c.client.Bucket(c.bucket).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(interfaces.ErrStorageKeyNotFound, "object does not exist", c.values(key, path)...)
		}
		return nil, goerr.Wrap(err, "failed to create Cloud Storage reader", c.values(key, path)...)
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read data from Cloud Storage", c.values(key, path)...)
	}

	return data, nil
}

func (c *Client) values(key, path string) []goerr.Option {
	return []goerr.Option{
		goerr.TV(apperr.StorageKeyKey, key),
		goerr.V("bucket", c.bucket),
		goerr.V("path", path),
		goerr.T(apperr.ErrTagStorage),
	}
}
