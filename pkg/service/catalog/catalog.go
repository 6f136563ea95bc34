package catalog

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/model/capability"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// Catalog maps tool or context type names to their descriptors. It is
// populated at startup and read on every resolution.
type Catalog struct {
	kind string

	mu     sync.RWMutex
	byName map[string]capability.Descriptor
	order  []string
}

var _ interfaces.Catalog = (*Catalog)(nil)

// New creates an empty catalog. kind names what it holds ("tool" or
// "context") and is used in error messages.
func New(kind string, descs ...capability.Descriptor) (*Catalog, error) {
	c := &Catalog{
		kind:   kind,
		byName: make(map[string]capability.Descriptor),
	}
	for _, d := range descs {
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Kind returns what the catalog holds
func (c *Catalog) Kind() string {
	return c.kind
}

// Register adds a descriptor. Empty and duplicate names are rejected.
func (c *Catalog) Register(desc capability.Descriptor) error {
	if desc.Name == "" {
		return goerr.New(c.kind+" name cannot be empty", goerr.T(apperr.ErrTagInvalidInput))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byName[desc.Name]; ok {
		return goerr.New(c.kind+" is already registered",
			goerr.V("name", desc.Name),
			goerr.T(apperr.ErrTagInvalidInput))
	}
	c.byName[desc.Name] = desc
	c.order = append(c.order, desc.Name)
	return nil
}

// Has reports whether name is registered
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.byName[name]
	return ok
}

// Get returns the descriptor for name
func (c *Catalog) Get(name string) (capability.Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byName[name]
	return d, ok
}

// List returns all descriptors in registration order
func (c *Catalog) List() []capability.Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]capability.Descriptor, 0, len(c.order))
	for _, name := range c.order {
		result = append(result, c.byName[name])
	}
	return result
}
