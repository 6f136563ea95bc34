package agent

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/inari/pkg/domain/types"
)

// Definition is one version of an agent's base configuration. A definition
// is never updated in place; every change is stored as a new version.
type Definition struct {
	AgentID            string          `json:"agent_id"`
	SystemPrompt       string          `json:"system_prompt"`
	UserPromptTemplate string          `json:"user_prompt_template,omitempty"`
	EvalPrompt         string          `json:"eval_prompt,omitempty"`
	Model              string          `json:"model"`
	Temperature        float64         `json:"temperature"`
	MaxTokens          int             `json:"max_tokens"`
	MaxIterations      int             `json:"max_iterations"`
	MaxRetries         int             `json:"max_retries"`
	ToolIDs            []string        `json:"tool_ids,omitempty"`
	ContextTypes       []string        `json:"context_types,omitempty"`
	SchemaJSON         json.RawMessage `json:"schema_json,omitempty"`
	ValidationRules    json.RawMessage `json:"validation_rules,omitempty"`
	SubAgents          []string        `json:"sub_agents,omitempty"`
	Examples           json.RawMessage `json:"examples,omitempty"`
	IsActive           bool            `json:"is_active"`

	// Assigned by the store on insert
	VersionID types.VersionID `json:"version_id,omitempty"`
	Version   int64           `json:"version,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitzero"`
}

// Copy returns a deep copy of the definition
func (d *Definition) Copy() *Definition {
	if d == nil {
		return nil
	}
	c := *d
	c.ToolIDs = cloneStrings(d.ToolIDs)
	c.ContextTypes = cloneStrings(d.ContextTypes)
	c.SubAgents = cloneStrings(d.SubAgents)
	c.SchemaJSON = cloneRaw(d.SchemaJSON)
	c.ValidationRules = cloneRaw(d.ValidationRules)
	c.Examples = cloneRaw(d.Examples)
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	return append(json.RawMessage{}, r...)
}
