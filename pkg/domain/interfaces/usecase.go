package interfaces

import (
	"context"

	"github.com/m-mizutani/inari/pkg/domain/model/agent"
)

// Registry is the interface exposed to agent callers and admin tooling
type Registry interface {
	// Resolve merges the current definition of agentID with the requested
	// extensions, in order, and validates its dependencies.
	Resolve(ctx context.Context, agentID string, refs []agent.Ref) (*agent.EffectiveConfig, error)

	GetDefinition(ctx context.Context, agentID string) (*agent.Definition, error)
	GetDefinitionHistory(ctx context.Context, agentID string, limit int) ([]*agent.Definition, error)
	PutDefinition(ctx context.Context, def *agent.Definition) (*agent.Definition, error)
	ListDefinitions(ctx context.Context) ([]string, error)

	GetExtension(ctx context.Context, agentID, extensionType, extensionKey string) (*agent.Extension, error)
	GetExtensionHistory(ctx context.Context, agentID, extensionType, extensionKey string, limit int) ([]*agent.Extension, error)
	PutExtension(ctx context.Context, ext *agent.Extension) (*agent.Extension, error)
	ListAllExtensions(ctx context.Context) ([]agent.ExtensionID, error)

	InvalidateCache(agentID string)
	ClearCache()

	RecordLog(ctx context.Context, log *agent.Log)
	GetLogs(ctx context.Context, agentID string, limit int) ([]*agent.Log, error)
}
