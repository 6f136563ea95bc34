package agent

import (
	"time"

	"github.com/m-mizutani/inari/pkg/domain/types"
)

// Log records a single invocation of a resolved agent. Logs are append-only.
type Log struct {
	ID                types.LogID     `json:"id"`
	AgentID           string          `json:"agent_id"`
	Extensions        []Ref           `json:"extensions,omitempty"`
	DefinitionVersion int64           `json:"definition_version"`
	Model             string          `json:"model"`
	Input             string          `json:"input,omitempty"`
	Output            string          `json:"output,omitempty"`
	Error             string          `json:"error,omitempty"`
	Duration          time.Duration   `json:"duration"`
	VersionID         types.VersionID `json:"version_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at,omitzero"`
}

// Succeeded reports whether the invocation completed without error
func (l *Log) Succeeded() bool {
	return l.Error == ""
}
