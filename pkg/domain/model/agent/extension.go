package agent

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// Ref names one extension variant to apply during resolution
type Ref struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// String returns the ref as "type=key"
func (r Ref) String() string {
	return r.Type + "=" + r.Key
}

// ParseRef parses a ref written as "type=key"
func ParseRef(s string) (Ref, error) {
	typ, key, ok := strings.Cut(s, "=")
	if !ok {
		return Ref{}, goerr.New("extension reference must be written as type=key",
			goerr.V("ref", s),
			goerr.T(apperr.ErrTagInvalidInput))
	}

	ref := Ref{Type: strings.TrimSpace(typ), Key: strings.TrimSpace(key)}
	if err := ValidateRef(ref); err != nil {
		return Ref{}, goerr.Wrap(err, "invalid extension reference",
			goerr.V("ref", s),
			goerr.T(apperr.ErrTagInvalidInput))
	}
	return ref, nil
}

// ExtensionID is the identity of an extension version chain
type ExtensionID struct {
	AgentID string `json:"agent_id"`
	Type    string `json:"extension_type"`
	Key     string `json:"extension_key"`
}

// Ref returns the (type, key) part of the identity
func (id ExtensionID) Ref() Ref {
	return Ref{Type: id.Type, Key: id.Key}
}

// Extension is one version of an overlay on an agent's configuration,
// scoped by (AgentID, ExtensionType, ExtensionKey). Unset overrides inherit
// the value from the base definition or an earlier extension.
type Extension struct {
	AgentID       string `json:"agent_id"`
	ExtensionType string `json:"extension_type"`
	ExtensionKey  string `json:"extension_key"`

	SystemPrompt           Override[string] `json:"system_prompt"`
	SystemPromptMode       Mode             `json:"system_prompt_mode,omitempty"`
	UserPromptTemplate     Override[string] `json:"user_prompt_template"`
	UserPromptTemplateMode Mode             `json:"user_prompt_template_mode,omitempty"`
	EvalPrompt             Override[string] `json:"eval_prompt"`
	EvalPromptMode         Mode             `json:"eval_prompt_mode,omitempty"`

	Model         Override[string]  `json:"model"`
	Temperature   Override[float64] `json:"temperature"`
	MaxTokens     Override[int]     `json:"max_tokens"`
	MaxIterations Override[int]     `json:"max_iterations"`
	MaxRetries    Override[int]     `json:"max_retries"`

	ToolIDs      Override[[]string] `json:"tool_ids"`
	ContextTypes Override[[]string] `json:"context_types"`

	SchemaJSON        Override[json.RawMessage] `json:"schema_json"`
	ValidationRules   Override[json.RawMessage] `json:"validation_rules"`
	SubAgents         Override[[]string]        `json:"sub_agents"`
	Examples          Override[json.RawMessage] `json:"examples"`
	TriggerConditions Override[json.RawMessage] `json:"trigger_conditions"`

	Description string `json:"description,omitempty"`

	// Assigned by the store on insert
	VersionID types.VersionID `json:"version_id,omitempty"`
	Version   int64           `json:"version,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitzero"`
}

// ID returns the identity of the extension's version chain
func (e *Extension) ID() ExtensionID {
	return ExtensionID{AgentID: e.AgentID, Type: e.ExtensionType, Key: e.ExtensionKey}
}
