package agent

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

const (
	maxAgentIDLength      = 128
	maxExtensionPartLen   = 64
	maxTemperature        = 2.0
	maxSystemPromptLength = 100000
)

var (
	// AgentID format: alphanumeric characters + '_', '-', '.', ':' allowed except at the beginning and end
	// Examples: "workout:message", "plan-generator", "chat.reply_v2"
	agentIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._:-]*[a-zA-Z0-9])?$`)

	// Extension type and key: alphanumeric start, then alphanumeric + '_', '-', '.'
	// Examples: "dayFormat", "TRAINING", "REST", "week-3"
	extensionPartRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)
)

// ValidateAgentID validates the format of an agent ID
func ValidateAgentID(agentID string) error {
	if agentID == "" {
		return goerr.New("agent ID cannot be empty")
	}

	if len(agentID) > maxAgentIDLength {
		return goerr.New("agent ID is too long",
			goerr.V("max", maxAgentIDLength),
			goerr.V("agentID", agentID))
	}

	if !agentIDRegex.MatchString(agentID) {
		return goerr.New("agent ID format is invalid",
			goerr.V("format", "alphanumeric characters with '_', '-', '.', ':' allowed except at beginning and end"),
			goerr.V("agentID", agentID))
	}

	return nil
}

// ValidateRef validates the type and key of an extension reference
func ValidateRef(ref Ref) error {
	if err := validateExtensionPart("extension type", ref.Type); err != nil {
		return err
	}
	return validateExtensionPart("extension key", ref.Key)
}

func validateExtensionPart(name, v string) error {
	if v == "" {
		return goerr.New(name+" cannot be empty")
	}
	if len(v) > maxExtensionPartLen {
		return goerr.New(name+" is too long", goerr.V("value", v), goerr.V("max", maxExtensionPartLen))
	}
	if !extensionPartRegex.MatchString(v) {
		return goerr.New(name+" format is invalid", goerr.V("value", v))
	}
	return nil
}

// ValidateDefinition validates an agent definition before it is stored
func ValidateDefinition(def *Definition) error {
	if def == nil {
		return goerr.Wrap(ErrInvalidDefinition, "definition cannot be nil")
	}

	if err := ValidateAgentID(def.AgentID); err != nil {
		return goerr.Wrap(ErrInvalidDefinition, err.Error(), goerr.V("agent_id", def.AgentID))
	}

	if def.SystemPrompt == "" {
		return goerr.Wrap(ErrInvalidDefinition, "system prompt cannot be empty", goerr.V("agent_id", def.AgentID))
	}

	if len(def.SystemPrompt) > maxSystemPromptLength {
		return goerr.Wrap(ErrInvalidDefinition, "system prompt is too long",
			goerr.V("agent_id", def.AgentID),
			goerr.V("length", len(def.SystemPrompt)))
	}

	if def.Model == "" {
		return goerr.Wrap(ErrInvalidDefinition, "model cannot be empty", goerr.V("agent_id", def.AgentID))
	}

	if err := validateLimits(def.Temperature, def.MaxTokens, def.MaxIterations, def.MaxRetries); err != nil {
		return goerr.Wrap(ErrInvalidDefinition, err.Error(), goerr.V("agent_id", def.AgentID))
	}

	if err := validateNames("tool ID", def.ToolIDs); err != nil {
		return goerr.Wrap(ErrInvalidDefinition, err.Error(), goerr.V("agent_id", def.AgentID))
	}
	if err := validateNames("context type", def.ContextTypes); err != nil {
		return goerr.Wrap(ErrInvalidDefinition, err.Error(), goerr.V("agent_id", def.AgentID))
	}
	for _, sub := range def.SubAgents {
		if err := ValidateAgentID(sub); err != nil {
			return goerr.Wrap(ErrInvalidDefinition, "invalid sub-agent reference",
				goerr.V("agent_id", def.AgentID),
				goerr.V("sub_agent", sub))
		}
	}

	return nil
}

// ValidateExtension validates an agent extension before it is stored
func ValidateExtension(ext *Extension) error {
	if ext == nil {
		return goerr.Wrap(ErrInvalidExtension, "extension cannot be nil")
	}

	id := ext.ID()
	values := []goerr.Option{
		goerr.V("agent_id", id.AgentID),
		goerr.V("extension_type", id.Type),
		goerr.V("extension_key", id.Key),
	}

	if err := ValidateAgentID(ext.AgentID); err != nil {
		return goerr.Wrap(ErrInvalidExtension, err.Error(), values...)
	}
	if err := ValidateRef(id.Ref()); err != nil {
		return goerr.Wrap(ErrInvalidExtension, err.Error(), values...)
	}

	for _, m := range []Mode{ext.SystemPromptMode, ext.UserPromptTemplateMode, ext.EvalPromptMode} {
		if err := ValidateMode(m); err != nil {
			return goerr.Wrap(ErrInvalidExtension, err.Error(), values...)
		}
	}

	temperature, _ := ext.Temperature.Get()
	maxTokens, _ := ext.MaxTokens.Get()
	maxIterations, _ := ext.MaxIterations.Get()
	maxRetries, _ := ext.MaxRetries.Get()
	if err := validateLimits(temperature, maxTokens, maxIterations, maxRetries); err != nil {
		return goerr.Wrap(ErrInvalidExtension, err.Error(), values...)
	}

	if v, ok := ext.Model.Get(); ok && v == "" {
		return goerr.Wrap(ErrInvalidExtension, "model override cannot be empty", values...)
	}

	if v, ok := ext.ToolIDs.Get(); ok {
		if err := validateNames("tool ID", v); err != nil {
			return goerr.Wrap(ErrInvalidExtension, err.Error(), values...)
		}
	}
	if v, ok := ext.ContextTypes.Get(); ok {
		if err := validateNames("context type", v); err != nil {
			return goerr.Wrap(ErrInvalidExtension, err.Error(), values...)
		}
	}

	return nil
}

func validateLimits(temperature float64, maxTokens, maxIterations, maxRetries int) error {
	if temperature < 0 || temperature > maxTemperature {
		return goerr.New("temperature out of range",
			goerr.V("temperature", temperature),
			goerr.V("min", 0),
			goerr.V("max", maxTemperature))
	}
	if maxTokens < 0 {
		return goerr.New("max tokens cannot be negative", goerr.V("max_tokens", maxTokens))
	}
	if maxIterations < 0 {
		return goerr.New("max iterations cannot be negative", goerr.V("max_iterations", maxIterations))
	}
	if maxRetries < 0 {
		return goerr.New("max retries cannot be negative", goerr.V("max_retries", maxRetries))
	}
	return nil
}

func validateNames(kind string, names []string) error {
	for i, n := range names {
		if n == "" {
			return goerr.New(kind+" cannot be empty", goerr.V("index", i))
		}
	}
	return nil
}
