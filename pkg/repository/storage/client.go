package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// CompressedSuffix marks keys whose content is stored gzip compressed
const CompressedSuffix = ".gz"

// Client wraps a StorageAdapter and compresses documents whose key ends
// with CompressedSuffix. Other keys pass through unchanged.
type Client struct {
	adapter interfaces.StorageAdapter
}

var _ interfaces.StorageAdapter = (*Client)(nil)

// New creates a new storage client
func New(adapter interfaces.StorageAdapter) *Client {
	return &Client{
		adapter: adapter,
	}
}

// Put stores data under key, compressing it for .gz keys
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	if isCompressed(key) {
		compressed, err := compressData(data)
		if err != nil {
			return goerr.Wrap(err, "failed to compress document", goerr.TV(apperr.StorageKeyKey, key))
		}
		data = compressed
	}

	if err := c.adapter.Put(ctx, key, data); err != nil {
		return goerr.Wrap(err, "failed to save document to storage", goerr.TV(apperr.StorageKeyKey, key))
	}
	return nil
}

// Get loads the document under key, decompressing it for .gz keys
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.adapter.Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load document from storage", goerr.TV(apperr.StorageKeyKey, key))
	}
	if !isCompressed(key) {
		return data, nil
	}

	decompressed, err := decompressData(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decompress document",
			goerr.TV(apperr.StorageKeyKey, key),
			goerr.T(apperr.ErrTagInvalidInput))
	}
	return decompressed, nil
}

func isCompressed(key string) bool {
	return strings.HasSuffix(key, CompressedSuffix)
}

func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return nil, goerr.Wrap(err, "failed to write data to gzip writer")
	}
	if err := writer.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to close gzip writer")
	}
	return buf.Bytes(), nil
}

func decompressData(compressed []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gzip reader")
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from gzip reader")
	}
	return data, nil
}
