package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/record"
	"github.com/m-mizutani/inari/pkg/domain/types"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// Client is an in-memory implementation of RecordStore. Versions of each key
// are kept in insertion order, which is also version order.
type Client struct {
	mu     sync.RWMutex
	tables map[string]map[string][]*record.Record // table -> encoded key -> versions
	now    func() time.Time
}

// Option configures Client
type Option func(*Client)

// WithClock replaces the time source used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new in-memory client
func New(opts ...Option) *Client {
	c := &Client{
		tables: make(map[string]map[string][]*record.Record),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Insert stores a new version of rec.Key and returns the stored row
func (c *Client) Insert(ctx context.Context, rec *record.Record) (*record.Record, error) {
	if rec == nil {
		return nil, goerr.New("record cannot be nil", goerr.T(apperr.ErrTagInvalidInput))
	}
	if err := rec.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid record", goerr.T(apperr.ErrTagInvalidInput))
	}

	id := types.NewVersionID(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	table, ok := c.tables[rec.Table]
	if !ok {
		table = make(map[string][]*record.Record)
		c.tables[rec.Table] = table
	}

	encoded := rec.Key.String()
	chain := table[encoded]
	var prev *record.Record
	if len(chain) > 0 {
		prev = chain[len(chain)-1]
	}

	// Deep copy to avoid external modifications
	stored := rec.Copy()
	stored.ID = id
	stored.Version = record.NextVersion(prev)
	stored.CreatedAt = record.NextCreatedAt(c.now(), prev)
	table[encoded] = append(chain, stored)

	return stored.Copy(), nil
}

// GetLatest returns the newest version of key, or nil if none exists
func (c *Client) GetLatest(ctx context.Context, tableName string, key record.Key, activeOnly bool) (*record.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	chain := c.tables[tableName][key.String()]
	for i := len(chain) - 1; i >= 0; i-- {
		if activeOnly && !chain[i].Active {
			continue
		}
		return chain[i].Copy(), nil
	}

	return nil, nil
}

// GetHistory returns up to limit versions of key, newest first
func (c *Client) GetHistory(ctx context.Context, tableName string, key record.Key, limit int) ([]*record.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	chain := c.tables[tableName][key.String()]
	n := len(chain)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]*record.Record, 0, n)
	for i := len(chain) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, chain[i].Copy())
	}
	return result, nil
}

// ListKeys returns every key stored in table, sorted by encoded form
func (c *Client) ListKeys(ctx context.Context, tableName string) ([]record.Key, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	encoded := make([]string, 0, len(c.tables[tableName]))
	for k := range c.tables[tableName] {
		encoded = append(encoded, k)
	}
	sort.Strings(encoded)

	keys := make([]record.Key, len(encoded))
	for i, k := range encoded {
		keys[i] = record.ParseKey(k)
	}
	return keys, nil
}
