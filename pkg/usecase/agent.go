package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
)

// GetDefinition returns the current definition of agentID
func (r *Registry) GetDefinition(ctx context.Context, agentID string) (*agent.Definition, error) {
	return r.definitions.GetCurrent(ctx, agentID)
}

// GetDefinitionHistory returns up to limit versions of agentID, newest first
func (r *Registry) GetDefinitionHistory(ctx context.Context, agentID string, limit int) ([]*agent.Definition, error) {
	return r.definitions.GetHistory(ctx, agentID, limit)
}

// PutDefinition stores def as a new version and drops cached resolutions of
// the agent
func (r *Registry) PutDefinition(ctx context.Context, def *agent.Definition) (*agent.Definition, error) {
	stored, err := r.definitions.Put(ctx, def)
	if err != nil {
		return nil, err
	}
	r.InvalidateCache(stored.AgentID)

	ctxlog.From(ctx).Info("agent definition stored",
		"agent_id", stored.AgentID,
		"version", stored.Version,
		"version_id", stored.VersionID,
		"active", stored.IsActive)
	return stored, nil
}

// ListDefinitions returns every agent ID with a stored definition
func (r *Registry) ListDefinitions(ctx context.Context) ([]string, error) {
	return r.definitions.List(ctx)
}

// GetExtension returns the current version of an extension, or nil if it
// does not exist
func (r *Registry) GetExtension(ctx context.Context, agentID, extensionType, extensionKey string) (*agent.Extension, error) {
	return r.extensions.GetCurrent(ctx, agentID, extensionType, extensionKey)
}

// GetExtensionHistory returns up to limit versions of an extension, newest first
func (r *Registry) GetExtensionHistory(ctx context.Context, agentID, extensionType, extensionKey string, limit int) ([]*agent.Extension, error) {
	return r.extensions.GetHistory(ctx, agentID, extensionType, extensionKey, limit)
}

// PutExtension stores ext as a new version and drops cached resolutions of
// its agent
func (r *Registry) PutExtension(ctx context.Context, ext *agent.Extension) (*agent.Extension, error) {
	stored, err := r.extensions.Put(ctx, ext)
	if err != nil {
		return nil, err
	}
	r.InvalidateCache(stored.AgentID)

	ctxlog.From(ctx).Info("agent extension stored",
		"agent_id", stored.AgentID,
		"extension", stored.ID().Ref().String(),
		"version", stored.Version,
		"version_id", stored.VersionID)
	return stored, nil
}

// ListAllExtensions returns the identity of every stored extension
func (r *Registry) ListAllExtensions(ctx context.Context) ([]agent.ExtensionID, error) {
	return r.extensions.ListAll(ctx)
}

// InvalidateCache drops every cached resolution of agentID
func (r *Registry) InvalidateCache(agentID string) {
	r.cache.Invalidate(agentID)
}

// ClearCache drops every cached resolution
func (r *Registry) ClearCache() {
	r.cache.Clear()
}
