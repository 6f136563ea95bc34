package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// Client provides in-memory storage implementation
type Client struct {
	data map[string][]byte
	mu   sync.RWMutex
}

var _ interfaces.StorageAdapter = (*Client)(nil)

// New creates a new memory storage client
func New() *Client {
	return &Client{
		data: make(map[string][]byte),
	}
}

// Put stores a copy of data with the given key
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return goerr.Wrap(interfaces.ErrStorageInvalidKey, "key cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte{}, data...)
	return nil
}

// Get retrieves a copy of the data stored with the given key
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, exists := c.data[key]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrStorageKeyNotFound, "key is not stored in memory",
			goerr.TV(apperr.StorageKeyKey, key))
	}
	return append([]byte{}, data...), nil
}

// Keys returns the stored keys, sorted
func (c *Client) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
