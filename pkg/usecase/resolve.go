package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Resolve returns the effective configuration of agentID with refs applied
// in the given order.
//
// A cached result is returned when present. Otherwise the current base
// definition and each requested extension are read, merged and checked
// against the tool and context catalogs. Missing extensions are skipped;
// a missing base definition or an unregistered dependency fails the
// resolution, and failures are never cached.
//
// Concurrent misses for the same key share one resolution. The shared work
// is detached from every caller's cancellation; each caller stops waiting
// when its own ctx is done.
func (r *Registry) Resolve(ctx context.Context, agentID string, refs []agent.Ref) (*agent.EffectiveConfig, error) {
	// An ID that could never be stored has no definition
	if err := agent.ValidateAgentID(agentID); err != nil {
		return nil, goerr.Wrap(agent.ErrDefinitionNotFound, "agent is not configured",
			goerr.TV(apperr.AgentIDKey, agentID),
			goerr.V("reason", err.Error()),
			goerr.T(apperr.ErrTagAgentNotConfigured))
	}

	logger := ctxlog.From(ctx).With("agent_id", agentID)
	key := agent.CacheKey(agentID, refs)

	if cfg, ok := r.cache.Get(key); ok {
		logger.Debug("resolution cache hit", "cache_key", key)
		return cfg, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := r.flight.DoChan(key, func() (any, error) {
		// Taken before any read so that a write landing during this
		// resolution keeps its result out of the cache.
		gen := r.cache.Generation(agentID)

		started := time.Now()
		cfg, err := r.resolve(flightCtx, agentID, refs)
		if err != nil {
			return nil, err
		}

		stored := r.cache.PutIfGeneration(key, cfg, r.cacheTTL, gen)
		logger.Debug("resolved agent config",
			"cache_key", key,
			"definition_version", cfg.DefinitionVersion,
			"applied_extensions", len(cfg.Extensions),
			"cached", stored,
			"duration", time.Since(started))
		return cfg, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, goerr.Wrap(ctx.Err(), "resolution abandoned",
			goerr.TV(apperr.AgentIDKey, agentID))
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		logger.Debug("joined in-flight resolution", "cache_key", key)
	}

	// Callers sharing one flight must not share the value
	return res.Val.(*agent.EffectiveConfig).Clone(), nil
}

func (r *Registry) resolve(ctx context.Context, agentID string, refs []agent.Ref) (*agent.EffectiveConfig, error) {
	def, err := r.definitions.GetCurrent(ctx, agentID)
	if err != nil {
		if errors.Is(err, agent.ErrDefinitionNotFound) {
			return nil, goerr.Wrap(err, "agent is not configured",
				goerr.TV(apperr.AgentIDKey, agentID),
				goerr.T(apperr.ErrTagAgentNotConfigured))
		}
		return nil, goerr.Wrap(err, "failed to get base definition", goerr.TV(apperr.AgentIDKey, agentID))
	}

	exts, err := r.fetchExtensions(ctx, agentID, refs)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.From(ctx)
	cfg := agent.NewEffectiveConfig(def)
	for i, ext := range exts {
		if ext == nil {
			logger.Debug("extension not found, skipping",
				"agent_id", agentID,
				"extension", refs[i].String())
			continue
		}
		cfg.Apply(ext)
	}

	if err := r.validateDependencies(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fetchExtensions reads the current version of each ref concurrently. The
// result is index-aligned with refs; missing extensions are nil.
func (r *Registry) fetchExtensions(ctx context.Context, agentID string, refs []agent.Ref) ([]*agent.Extension, error) {
	exts := make([]*agent.Extension, len(refs))
	if len(refs) == 0 {
		return exts, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelFetches)
	for i, ref := range refs {
		// A ref that could never be stored names no extension
		if err := agent.ValidateRef(ref); err != nil {
			continue
		}
		eg.Go(func() error {
			ext, err := r.extensions.GetCurrent(ctx, agentID, ref.Type, ref.Key)
			if err != nil {
				return goerr.Wrap(err, "failed to get extension",
					goerr.TV(apperr.AgentIDKey, agentID),
					goerr.TV(apperr.ExtensionTypeKey, ref.Type),
					goerr.TV(apperr.ExtensionKeyKey, ref.Key))
			}
			exts[i] = ext
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return exts, nil
}

func (r *Registry) validateDependencies(cfg *agent.EffectiveConfig) error {
	for _, id := range cfg.ToolIDs {
		if !r.tools.Has(id) {
			return goerr.Wrap(&agent.DependencyError{Kind: agent.DependencyTool, Name: id},
				"unresolved agent dependency",
				goerr.TV(apperr.AgentIDKey, cfg.AgentID),
				goerr.TV(apperr.DependencyKey, agent.DependencyTool),
				goerr.TV(apperr.ToolIDKey, id),
				goerr.T(apperr.ErrTagUnresolvedDependency))
		}
	}
	for _, ct := range cfg.ContextTypes {
		if !r.contexts.Has(ct) {
			return goerr.Wrap(&agent.DependencyError{Kind: agent.DependencyContext, Name: ct},
				"unresolved agent dependency",
				goerr.TV(apperr.AgentIDKey, cfg.AgentID),
				goerr.TV(apperr.DependencyKey, agent.DependencyContext),
				goerr.TV(apperr.ContextTypeKey, ct),
				goerr.T(apperr.ErrTagUnresolvedDependency))
		}
	}
	return nil
}
