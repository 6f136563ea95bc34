package cli

import (
	"context"

	"github.com/m-mizutani/inari/pkg/cli/config"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/repository/registry"
	"github.com/m-mizutani/inari/pkg/repository/storage"
	"github.com/m-mizutani/inari/pkg/service/catalog"
	"github.com/m-mizutani/inari/pkg/service/seed"
	"github.com/m-mizutani/inari/pkg/usecase"
)

// appConfig holds the global flags shared by every command
type appConfig struct {
	logger   config.Logger
	database config.Database
	cache    config.Cache
	storage  config.Storage
}

// runtime is the wired registry and its resources for one command
type runtime struct {
	registry *usecase.Registry
	tools    *catalog.Catalog
	contexts *catalog.Catalog
	storage  interfaces.StorageAdapter

	closers []func()
}

// newRuntime connects the record store, builds the registry and applies the
// startup seed document when one is configured
func (x *appConfig) newRuntime(ctx context.Context) (rt *runtime, err error) {
	rt = &runtime{}
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	store, closeStore, err := x.database.Configure(ctx)
	if err != nil {
		return rt, err
	}
	rt.closers = append(rt.closers, closeStore)

	rc, err := x.cache.Configure(ctx)
	if err != nil {
		return rt, err
	}

	if rt.tools, err = catalog.New(agent.DependencyTool); err != nil {
		return rt, err
	}
	if rt.contexts, err = catalog.New(agent.DependencyContext); err != nil {
		return rt, err
	}

	rt.registry, err = usecase.New(
		usecase.WithDefinitionRepository(registry.NewDefinitionRegistry(store)),
		usecase.WithExtensionRepository(registry.NewExtensionRegistry(store)),
		usecase.WithLogRepository(registry.NewLogRegistry(store)),
		usecase.WithCache(rc),
		usecase.WithCacheTTL(x.cache.TTL),
		usecase.WithTools(rt.tools),
		usecase.WithContexts(rt.contexts),
	)
	if err != nil {
		return rt, err
	}

	if x.storage.IsConfigured() {
		adapter, closeStorage, err := x.storage.CreateAdapter(ctx)
		if err != nil {
			return rt, err
		}
		rt.closers = append(rt.closers, closeStorage)
		rt.storage = storage.New(adapter)
	}

	if x.storage.Seed != "" {
		if rt.storage == nil {
			return rt, x.storage.Validate()
		}
		if err := rt.applySeed(ctx, x.storage.Seed); err != nil {
			return rt, err
		}
	}

	return rt, nil
}

func (rt *runtime) applySeed(ctx context.Context, key string) error {
	doc, err := seed.Load(ctx, rt.storage, key)
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, doc, rt.registry, rt.tools, rt.contexts)
	return err
}

// Close releases resources in reverse order of acquisition
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
