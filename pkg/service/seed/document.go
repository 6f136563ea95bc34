package seed

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/model/capability"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"gopkg.in/yaml.v3"
)

// Document is the YAML seed and snapshot format. Opaque JSON fields
// (schema_json, validation_rules, examples, trigger_conditions) are written
// as plain YAML and stored as JSON.
type Document struct {
	Tools       []capability.Descriptor `yaml:"tools,omitempty"`
	Contexts    []capability.Descriptor `yaml:"contexts,omitempty"`
	Definitions []Definition            `yaml:"definitions,omitempty"`
	Extensions  []Extension             `yaml:"extensions,omitempty"`
}

// Definition is the seed form of agent.Definition
type Definition struct {
	AgentID            string   `yaml:"agent_id"`
	SystemPrompt       string   `yaml:"system_prompt"`
	UserPromptTemplate string   `yaml:"user_prompt_template,omitempty"`
	EvalPrompt         string   `yaml:"eval_prompt,omitempty"`
	Model              string   `yaml:"model"`
	Temperature        float64  `yaml:"temperature"`
	MaxTokens          int      `yaml:"max_tokens,omitempty"`
	MaxIterations      int      `yaml:"max_iterations,omitempty"`
	MaxRetries         int      `yaml:"max_retries,omitempty"`
	ToolIDs            []string `yaml:"tool_ids,omitempty"`
	ContextTypes       []string `yaml:"context_types,omitempty"`
	SchemaJSON         any      `yaml:"schema_json,omitempty"`
	ValidationRules    any      `yaml:"validation_rules,omitempty"`
	SubAgents          []string `yaml:"sub_agents,omitempty"`
	Examples           any      `yaml:"examples,omitempty"`
	// nil means active
	IsActive *bool `yaml:"is_active,omitempty"`
}

// Extension is the seed form of agent.Extension. A nil field inherits; an
// explicit empty list is an override.
type Extension struct {
	AgentID       string `yaml:"agent_id"`
	ExtensionType string `yaml:"extension_type"`
	ExtensionKey  string `yaml:"extension_key"`
	Description   string `yaml:"description,omitempty"`

	SystemPrompt           *string `yaml:"system_prompt,omitempty"`
	SystemPromptMode       string  `yaml:"system_prompt_mode,omitempty"`
	UserPromptTemplate     *string `yaml:"user_prompt_template,omitempty"`
	UserPromptTemplateMode string  `yaml:"user_prompt_template_mode,omitempty"`
	EvalPrompt             *string `yaml:"eval_prompt,omitempty"`
	EvalPromptMode         string  `yaml:"eval_prompt_mode,omitempty"`

	Model         *string  `yaml:"model,omitempty"`
	Temperature   *float64 `yaml:"temperature,omitempty"`
	MaxTokens     *int     `yaml:"max_tokens,omitempty"`
	MaxIterations *int     `yaml:"max_iterations,omitempty"`
	MaxRetries    *int     `yaml:"max_retries,omitempty"`

	ToolIDs      *[]string `yaml:"tool_ids,omitempty"`
	ContextTypes *[]string `yaml:"context_types,omitempty"`
	SubAgents    *[]string `yaml:"sub_agents,omitempty"`

	SchemaJSON        any `yaml:"schema_json,omitempty"`
	ValidationRules   any `yaml:"validation_rules,omitempty"`
	Examples          any `yaml:"examples,omitempty"`
	TriggerConditions any `yaml:"trigger_conditions,omitempty"`
}

// Parse decodes a seed document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := decodeStrict(data, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse seed document")
	}
	return &doc, nil
}

// ParseDefinition decodes a single definition entry
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := decodeStrict(data, &def); err != nil {
		return nil, goerr.Wrap(err, "failed to parse agent definition")
	}
	return &def, nil
}

// ParseExtension decodes a single extension entry
func ParseExtension(data []byte) (*Extension, error) {
	var ext Extension
	if err := decodeStrict(data, &ext); err != nil {
		return nil, goerr.Wrap(err, "failed to parse agent extension")
	}
	return &ext, nil
}

// decodeStrict decodes YAML into v rejecting unknown fields. Empty input
// leaves v untouched.
func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return goerr.Wrap(err, "invalid YAML", goerr.T(apperr.ErrTagInvalidInput))
	}
	return nil
}

// Marshal encodes a seed document as YAML
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, goerr.Wrap(err, "failed to encode seed document")
	}
	if err := enc.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to encode seed document")
	}
	return buf.Bytes(), nil
}

// ToDefinition converts the seed entry to a definition ready to store
func (d *Definition) ToDefinition() (*agent.Definition, error) {
	values := []goerr.Option{goerr.TV(apperr.AgentIDKey, d.AgentID)}

	schema, err := toJSON(d.SchemaJSON)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid schema_json", values...)
	}
	rules, err := toJSON(d.ValidationRules)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid validation_rules", values...)
	}
	examples, err := toJSON(d.Examples)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid examples", values...)
	}

	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}

	return &agent.Definition{
		AgentID:            d.AgentID,
		SystemPrompt:       d.SystemPrompt,
		UserPromptTemplate: d.UserPromptTemplate,
		EvalPrompt:         d.EvalPrompt,
		Model:              d.Model,
		Temperature:        d.Temperature,
		MaxTokens:          d.MaxTokens,
		MaxIterations:      d.MaxIterations,
		MaxRetries:         d.MaxRetries,
		ToolIDs:            d.ToolIDs,
		ContextTypes:       d.ContextTypes,
		SchemaJSON:         schema,
		ValidationRules:    rules,
		SubAgents:          d.SubAgents,
		Examples:           examples,
		IsActive:           active,
	}, nil
}

// ToExtension converts the seed entry to an extension ready to store
func (e *Extension) ToExtension() (*agent.Extension, error) {
	values := []goerr.Option{
		goerr.TV(apperr.AgentIDKey, e.AgentID),
		goerr.TV(apperr.ExtensionTypeKey, e.ExtensionType),
		goerr.TV(apperr.ExtensionKeyKey, e.ExtensionKey),
	}

	ext := &agent.Extension{
		AgentID:                e.AgentID,
		ExtensionType:          e.ExtensionType,
		ExtensionKey:           e.ExtensionKey,
		Description:            e.Description,
		SystemPrompt:           fromPtr(e.SystemPrompt),
		SystemPromptMode:       agent.Mode(e.SystemPromptMode),
		UserPromptTemplate:     fromPtr(e.UserPromptTemplate),
		UserPromptTemplateMode: agent.Mode(e.UserPromptTemplateMode),
		EvalPrompt:             fromPtr(e.EvalPrompt),
		EvalPromptMode:         agent.Mode(e.EvalPromptMode),
		Model:                  fromPtr(e.Model),
		Temperature:            fromPtr(e.Temperature),
		MaxTokens:              fromPtr(e.MaxTokens),
		MaxIterations:          fromPtr(e.MaxIterations),
		MaxRetries:             fromPtr(e.MaxRetries),
		ToolIDs:                listOverride(e.ToolIDs),
		ContextTypes:           listOverride(e.ContextTypes),
		SubAgents:              listOverride(e.SubAgents),
	}

	for _, f := range []struct {
		name string
		src  any
		dst  *agent.Override[json.RawMessage]
	}{
		{"schema_json", e.SchemaJSON, &ext.SchemaJSON},
		{"validation_rules", e.ValidationRules, &ext.ValidationRules},
		{"examples", e.Examples, &ext.Examples},
		{"trigger_conditions", e.TriggerConditions, &ext.TriggerConditions},
	} {
		raw, err := toJSON(f.src)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid "+f.name, values...)
		}
		if raw != nil {
			*f.dst = agent.Set(raw)
		}
	}

	return ext, nil
}

func fromDefinition(def *agent.Definition) (Definition, error) {
	out := Definition{
		AgentID:            def.AgentID,
		SystemPrompt:       def.SystemPrompt,
		UserPromptTemplate: def.UserPromptTemplate,
		EvalPrompt:         def.EvalPrompt,
		Model:              def.Model,
		Temperature:        def.Temperature,
		MaxTokens:          def.MaxTokens,
		MaxIterations:      def.MaxIterations,
		MaxRetries:         def.MaxRetries,
		ToolIDs:            def.ToolIDs,
		ContextTypes:       def.ContextTypes,
		SubAgents:          def.SubAgents,
	}
	if !def.IsActive {
		inactive := false
		out.IsActive = &inactive
	}

	var err error
	if out.SchemaJSON, err = fromJSON(def.SchemaJSON); err != nil {
		return Definition{}, err
	}
	if out.ValidationRules, err = fromJSON(def.ValidationRules); err != nil {
		return Definition{}, err
	}
	if out.Examples, err = fromJSON(def.Examples); err != nil {
		return Definition{}, err
	}
	return out, nil
}

func fromExtension(ext *agent.Extension) (Extension, error) {
	out := Extension{
		AgentID:                ext.AgentID,
		ExtensionType:          ext.ExtensionType,
		ExtensionKey:           ext.ExtensionKey,
		Description:            ext.Description,
		SystemPrompt:           toPtr(ext.SystemPrompt),
		SystemPromptMode:       string(ext.SystemPromptMode),
		UserPromptTemplate:     toPtr(ext.UserPromptTemplate),
		UserPromptTemplateMode: string(ext.UserPromptTemplateMode),
		EvalPrompt:             toPtr(ext.EvalPrompt),
		EvalPromptMode:         string(ext.EvalPromptMode),
		Model:                  toPtr(ext.Model),
		Temperature:            toPtr(ext.Temperature),
		MaxTokens:              toPtr(ext.MaxTokens),
		MaxIterations:          toPtr(ext.MaxIterations),
		MaxRetries:             toPtr(ext.MaxRetries),
		ToolIDs:                toPtr(ext.ToolIDs),
		ContextTypes:           toPtr(ext.ContextTypes),
		SubAgents:              toPtr(ext.SubAgents),
	}

	for _, f := range []struct {
		src agent.Override[json.RawMessage]
		dst *any
	}{
		{ext.SchemaJSON, &out.SchemaJSON},
		{ext.ValidationRules, &out.ValidationRules},
		{ext.Examples, &out.Examples},
		{ext.TriggerConditions, &out.TriggerConditions},
	} {
		raw, ok := f.src.Get()
		if !ok {
			continue
		}
		v, err := fromJSON(raw)
		if err != nil {
			return Extension{}, err
		}
		*f.dst = v
	}
	return out, nil
}

func fromPtr[T any](p *T) agent.Override[T] {
	if p == nil {
		return agent.Inherit[T]()
	}
	return agent.Set(*p)
}

// listOverride keeps an explicit empty list distinct from inherit
func listOverride(p *[]string) agent.Override[[]string] {
	if p == nil {
		return agent.Inherit[[]string]()
	}
	if *p == nil {
		return agent.Set([]string{})
	}
	return agent.Set(*p)
}

func toPtr[T any](o agent.Override[T]) *T {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}

// toJSON converts a decoded YAML value to JSON. nil stays nil.
func toJSON(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "value cannot be represented as JSON", goerr.T(apperr.ErrTagInvalidInput))
	}
	return data, nil
}

func fromJSON(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, goerr.Wrap(err, "stored JSON value is malformed", goerr.T(apperr.ErrTagInternal))
	}
	return v, nil
}
