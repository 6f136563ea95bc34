package agent

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/m-mizutani/inari/pkg/domain/types"
)

// textSeparator joins text fragments in append and prepend modes
const textSeparator = "\n"

// AppliedExtension records which extension version contributed to an effective config
type AppliedExtension struct {
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	VersionID types.VersionID `json:"version_id"`
	Version   int64           `json:"version"`
}

// EffectiveConfig is the merged configuration for one resolution of an
// agent. Values handed to callers are snapshots and must not be mutated.
type EffectiveConfig struct {
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

	DefinitionVersionID types.VersionID    `json:"definition_version_id,omitempty"`
	DefinitionVersion   int64              `json:"definition_version,omitempty"`
	Extensions          []AppliedExtension `json:"extensions,omitempty"`
}

// NewEffectiveConfig starts a resolution from a base definition. Collection
// fields are copied, and tool and context lists are deduplicated in order.
func NewEffectiveConfig(def *Definition) *EffectiveConfig {
	return &EffectiveConfig{
		AgentID:             def.AgentID,
		SystemPrompt:        def.SystemPrompt,
		UserPromptTemplate:  def.UserPromptTemplate,
		EvalPrompt:          def.EvalPrompt,
		Model:               def.Model,
		Temperature:         def.Temperature,
		MaxTokens:           def.MaxTokens,
		MaxIterations:       def.MaxIterations,
		MaxRetries:          def.MaxRetries,
		ToolIDs:             union(nil, def.ToolIDs),
		ContextTypes:        union(nil, def.ContextTypes),
		SchemaJSON:          cloneRaw(def.SchemaJSON),
		ValidationRules:     cloneRaw(def.ValidationRules),
		SubAgents:           cloneStrings(def.SubAgents),
		Examples:            cloneRaw(def.Examples),
		DefinitionVersionID: def.VersionID,
		DefinitionVersion:   def.Version,
	}
}

// Apply merges one extension into the config in place.
//
// Text fields follow their mode, scalar overrides replace, tool and context
// lists are unioned, and opaque blobs are replaced wholesale.
func (c *EffectiveConfig) Apply(ext *Extension) {
	c.SystemPrompt = mergeText(c.SystemPrompt, ext.SystemPrompt, ext.SystemPromptMode)
	c.UserPromptTemplate = mergeText(c.UserPromptTemplate, ext.UserPromptTemplate, ext.UserPromptTemplateMode)
	c.EvalPrompt = mergeText(c.EvalPrompt, ext.EvalPrompt, ext.EvalPromptMode)

	if v, ok := ext.Model.Get(); ok {
		c.Model = v
	}
	if v, ok := ext.Temperature.Get(); ok {
		c.Temperature = v
	}
	if v, ok := ext.MaxTokens.Get(); ok {
		c.MaxTokens = v
	}
	if v, ok := ext.MaxIterations.Get(); ok {
		c.MaxIterations = v
	}
	if v, ok := ext.MaxRetries.Get(); ok {
		c.MaxRetries = v
	}

	if v, ok := ext.ToolIDs.Get(); ok {
		c.ToolIDs = union(c.ToolIDs, v)
	}
	if v, ok := ext.ContextTypes.Get(); ok {
		c.ContextTypes = union(c.ContextTypes, v)
	}

	if v, ok := ext.SchemaJSON.Get(); ok {
		c.SchemaJSON = cloneRaw(v)
	}
	if v, ok := ext.ValidationRules.Get(); ok {
		c.ValidationRules = cloneRaw(v)
	}
	if v, ok := ext.SubAgents.Get(); ok {
		c.SubAgents = cloneStrings(v)
	}
	if v, ok := ext.Examples.Get(); ok {
		c.Examples = cloneRaw(v)
	}

	c.Extensions = append(c.Extensions, AppliedExtension{
		Type:      ext.ExtensionType,
		Key:       ext.ExtensionKey,
		VersionID: ext.VersionID,
		Version:   ext.Version,
	})
}

// Clone returns a deep copy of the config
func (c *EffectiveConfig) Clone() *EffectiveConfig {
	if c == nil {
		return nil
	}
	n := *c
	n.ToolIDs = cloneStrings(c.ToolIDs)
	n.ContextTypes = cloneStrings(c.ContextTypes)
	n.SchemaJSON = cloneRaw(c.SchemaJSON)
	n.ValidationRules = cloneRaw(c.ValidationRules)
	n.SubAgents = cloneStrings(c.SubAgents)
	n.Examples = cloneRaw(c.Examples)
	if c.Extensions != nil {
		n.Extensions = append([]AppliedExtension{}, c.Extensions...)
	}
	return &n
}

func mergeText(current string, ext Override[string], mode Mode) string {
	v, ok := ext.Get()
	if !ok {
		return current
	}

	switch mode {
	case ModeReplace:
		return v
	case ModePrepend:
		if current == "" {
			return v
		}
		return v + textSeparator + current
	default:
		if current == "" {
			return v
		}
		return current + textSeparator + v
	}
}

// union returns base followed by entries of add not already present. The
// result never aliases either input.
func union(base, add []string) []string {
	if base == nil && add == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(base)+len(add))
	out := make([]string, 0, len(base)+len(add))
	for _, list := range [][]string{base, add} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// CacheKey builds the resolution cache key for an agent and its requested
// extensions. Refs are kept in request order because merges are order
// sensitive.
func CacheKey(agentID string, refs []Ref) string {
	var b strings.Builder
	b.WriteString(strconv.Quote(agentID))
	for _, ref := range refs {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(ref.Type))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(ref.Key))
	}
	return b.String()
}
