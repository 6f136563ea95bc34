package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// Client provides filesystem storage implementation
type Client struct {
	baseDir     string
	permissions os.FileMode
	mu          sync.RWMutex
}

var _ interfaces.StorageAdapter = (*Client)(nil)

// New creates a new filesystem storage client
func New(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid filesystem storage config")
	}

	if err := config.EnsureDirectory(); err != nil {
		return nil, err
	}

	return &Client{
		baseDir:     config.BaseDirectory,
		permissions: config.Permissions,
	}, nil
}

// Put stores data with the given key
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	filePath := c.getFilePath(key)

	if err := os.MkdirAll(filepath.Dir(filePath), c.permissions); err != nil {
		return goerr.Wrap(err, "failed to create directory",
			goerr.TV(apperr.StorageKeyKey, key),
			goerr.T(apperr.ErrTagStorage))
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write file",
			goerr.TV(apperr.StorageKeyKey, key),
			goerr.T(apperr.ErrTagStorage))
	}

	return nil
}

// Get retrieves data by the given key
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	// #nosec G304 - Path is validated by validateKey() function to prevent path traversal
	data, err := os.ReadFile(c.getFilePath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(interfaces.ErrStorageKeyNotFound, "file does not exist",
				goerr.TV(apperr.StorageKeyKey, key))
		}
		return nil, goerr.Wrap(err, "failed to read file",
			goerr.TV(apperr.StorageKeyKey, key),
			goerr.T(apperr.ErrTagStorage))
	}

	return data, nil
}

// validateKey rejects keys that could escape the base directory
func validateKey(key string) error {
	if key == "" {
		return goerr.Wrap(interfaces.ErrStorageInvalidKey, "key cannot be empty")
	}

	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return goerr.Wrap(interfaces.ErrStorageInvalidKey, "key must be a relative path inside the base directory",
			goerr.TV(apperr.StorageKeyKey, key))
	}

	for _, char := range key {
		if char < 32 || char == 127 {
			return goerr.Wrap(interfaces.ErrStorageInvalidKey, "key contains control characters",
				goerr.TV(apperr.StorageKeyKey, key))
		}
	}

	return nil
}

func (c *Client) getFilePath(key string) string {
	return filepath.Join(c.baseDir, key)
}
