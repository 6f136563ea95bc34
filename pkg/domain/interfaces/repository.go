package interfaces

import (
	"context"

	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/model/record"
)

// RecordStore is append-only persistence of versioned records. Rows are
// never updated or deleted; every change is a new version of its key.
type RecordStore interface {
	// Insert always creates a new row and returns it with ID, Version and
	// CreatedAt assigned.
	Insert(ctx context.Context, rec *record.Record) (*record.Record, error)

	// GetLatest returns the newest version of key, or nil if there is none.
	// With activeOnly, inactive versions are skipped.
	GetLatest(ctx context.Context, table string, key record.Key, activeOnly bool) (*record.Record, error)

	// GetHistory returns up to limit versions of key, newest first. A limit
	// of zero or less returns every version.
	GetHistory(ctx context.Context, table string, key record.Key, limit int) ([]*record.Record, error)

	// ListKeys returns the distinct keys stored in table, sorted
	ListKeys(ctx context.Context, table string) ([]record.Key, error)
}

// DefinitionRepository manages versions of agent definitions
type DefinitionRepository interface {
	Put(ctx context.Context, def *agent.Definition) (*agent.Definition, error)
	GetCurrent(ctx context.Context, agentID string) (*agent.Definition, error)
	GetHistory(ctx context.Context, agentID string, limit int) ([]*agent.Definition, error)
	List(ctx context.Context) ([]string, error)
}

// ExtensionRepository manages versions of agent extensions
type ExtensionRepository interface {
	Put(ctx context.Context, ext *agent.Extension) (*agent.Extension, error)
	// GetCurrent returns nil without error when the extension does not exist
	GetCurrent(ctx context.Context, agentID, extensionType, extensionKey string) (*agent.Extension, error)
	GetHistory(ctx context.Context, agentID, extensionType, extensionKey string, limit int) ([]*agent.Extension, error)
	ListAll(ctx context.Context) ([]agent.ExtensionID, error)
}

// LogRepository manages agent invocation logs
type LogRepository interface {
	Put(ctx context.Context, log *agent.Log) (*agent.Log, error)
	List(ctx context.Context, agentID string, limit int) ([]*agent.Log, error)
}
