package usecase

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/service/cache"
	"github.com/m-mizutani/inari/pkg/service/catalog"
	"golang.org/x/sync/singleflight"
)

// maxParallelFetches bounds concurrent extension reads in one resolution
const maxParallelFetches = 8

// Registry resolves agent configurations and manages their versions
type Registry struct {
	definitions interfaces.DefinitionRepository
	extensions  interfaces.ExtensionRepository
	logs        interfaces.LogRepository

	cache    *cache.ResolutionCache
	cacheTTL time.Duration
	tools    interfaces.Catalog
	contexts interfaces.Catalog

	// collapses concurrent misses for the same cache key
	flight singleflight.Group
}

var _ interfaces.Registry = (*Registry)(nil)

// Option is a functional option for Registry
type Option func(*Registry)

// WithDefinitionRepository sets the definition repository
func WithDefinitionRepository(repo interfaces.DefinitionRepository) Option {
	return func(r *Registry) {
		r.definitions = repo
	}
}

// WithExtensionRepository sets the extension repository
func WithExtensionRepository(repo interfaces.ExtensionRepository) Option {
	return func(r *Registry) {
		r.extensions = repo
	}
}

// WithLogRepository sets the repository for invocation logs. Logging is
// skipped when it is not set.
func WithLogRepository(repo interfaces.LogRepository) Option {
	return func(r *Registry) {
		r.logs = repo
	}
}

// WithCache sets the resolution cache
func WithCache(c *cache.ResolutionCache) Option {
	return func(r *Registry) {
		r.cache = c
	}
}

// WithCacheTTL sets the TTL of resolved configs. Zero uses the cache default.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.cacheTTL = ttl
	}
}

// WithTools sets the catalog of registered tools
func WithTools(c interfaces.Catalog) Option {
	return func(r *Registry) {
		r.tools = c
	}
}

// WithContexts sets the catalog of registered context types
func WithContexts(c interfaces.Catalog) Option {
	return func(r *Registry) {
		r.contexts = c
	}
}

// New creates a new Registry. Definition and extension repositories are
// required; a cache and empty catalogs are created when not given.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}

	if r.definitions == nil {
		return nil, goerr.New("definition repository is required", goerr.T(apperr.ErrTagInvalidInput))
	}
	if r.extensions == nil {
		return nil, goerr.New("extension repository is required", goerr.T(apperr.ErrTagInvalidInput))
	}

	if r.cache == nil {
		c, err := cache.New()
		if err != nil {
			return nil, err
		}
		r.cache = c
	}
	if r.tools == nil {
		r.tools = mustEmptyCatalog(agent.DependencyTool)
	}
	if r.contexts == nil {
		r.contexts = mustEmptyCatalog(agent.DependencyContext)
	}

	return r, nil
}

// Tools returns the tool catalog
func (r *Registry) Tools() interfaces.Catalog {
	return r.tools
}

// Contexts returns the context type catalog
func (r *Registry) Contexts() interfaces.Catalog {
	return r.contexts
}

// CacheStats returns resolution cache statistics
func (r *Registry) CacheStats() cache.Stats {
	return r.cache.Stats()
}

func mustEmptyCatalog(kind string) *catalog.Catalog {
	c, err := catalog.New(kind)
	if err != nil {
		// no descriptors, so registration cannot fail
		panic(err)
	}
	return c
}
