package apperr

import "github.com/m-mizutani/goerr/v2"

// Agent related keys
var (
	AgentIDKey       = goerr.NewTypedKey[string]("agent_id")
	ExtensionTypeKey = goerr.NewTypedKey[string]("extension_type")
	ExtensionKeyKey  = goerr.NewTypedKey[string]("extension_key")
	ToolIDKey        = goerr.NewTypedKey[string]("tool_id")
	ContextTypeKey   = goerr.NewTypedKey[string]("context_type")
	DependencyKey    = goerr.NewTypedKey[string]("dependency_kind")
)

// Record related keys
var (
	TableKey     = goerr.NewTypedKey[string]("table")
	RecordKeyKey = goerr.NewTypedKey[string]("record_key")
	VersionIDKey = goerr.NewTypedKey[string]("version_id")
	VersionKey   = goerr.NewTypedKey[int64]("version")
	LimitKey     = goerr.NewTypedKey[int]("limit")
)

// Backend related keys
var (
	CollectionKey = goerr.NewTypedKey[string]("collection")
	DocumentIDKey = goerr.NewTypedKey[string]("document_id")
	ProjectIDKey  = goerr.NewTypedKey[string]("project_id")
	StorageKeyKey = goerr.NewTypedKey[string]("storage_key")
	OperationKey  = goerr.NewTypedKey[string]("operation")
)
