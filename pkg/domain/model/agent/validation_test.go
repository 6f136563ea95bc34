package agent_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
)

func validDefinition() *agent.Definition {
	return &agent.Definition{
		AgentID:       "workout:message",
		SystemPrompt:  "Format the workout.",
		Model:         "gpt-4o-mini",
		Temperature:   0.7,
		MaxTokens:     1024,
		MaxIterations: 3,
		MaxRetries:    2,
		ToolIDs:       []string{"get_workout"},
		ContextTypes:  []string{"user_profile"},
		IsActive:      true,
	}
}

func TestValidateDefinition(t *testing.T) {
	testCases := []struct {
		name      string
		modify    func(d *agent.Definition)
		shouldErr bool
		errMsg    string
	}{
		{
			name:      "valid definition",
			modify:    func(d *agent.Definition) {},
			shouldErr: false,
		},
		{
			name:      "invalid agent ID",
			modify:    func(d *agent.Definition) { d.AgentID = "bad agent" },
			shouldErr: true,
			errMsg:    "agent ID format is invalid",
		},
		{
			name:      "empty system prompt",
			modify:    func(d *agent.Definition) { d.SystemPrompt = "" },
			shouldErr: true,
			errMsg:    "system prompt cannot be empty",
		},
		{
			name:      "too long system prompt",
			modify:    func(d *agent.Definition) { d.SystemPrompt = strings.Repeat("a", 100001) },
			shouldErr: true,
			errMsg:    "system prompt is too long",
		},
		{
			name:      "empty model",
			modify:    func(d *agent.Definition) { d.Model = "" },
			shouldErr: true,
			errMsg:    "model cannot be empty",
		},
		{
			name:      "temperature above range",
			modify:    func(d *agent.Definition) { d.Temperature = 2.5 },
			shouldErr: true,
			errMsg:    "temperature out of range",
		},
		{
			name:      "negative max tokens",
			modify:    func(d *agent.Definition) { d.MaxTokens = -1 },
			shouldErr: true,
			errMsg:    "max tokens cannot be negative",
		},
		{
			name:      "empty tool ID",
			modify:    func(d *agent.Definition) { d.ToolIDs = []string{"a", ""} },
			shouldErr: true,
			errMsg:    "tool ID cannot be empty",
		},
		{
			name:      "invalid sub-agent",
			modify:    func(d *agent.Definition) { d.SubAgents = []string{"-bad"} },
			shouldErr: true,
			errMsg:    "invalid sub-agent reference",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			def := validDefinition()
			tc.modify(def)
			err := agent.ValidateDefinition(def)
			if tc.shouldErr {
				gt.Error(t, err)
				gt.True(t, errors.Is(err, agent.ErrInvalidDefinition))
				gt.S(t, err.Error()).Contains(tc.errMsg)
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestValidateExtension(t *testing.T) {
	valid := func() *agent.Extension {
		return &agent.Extension{
			AgentID:          "workout:message",
			ExtensionType:    "dayFormat",
			ExtensionKey:     "REST",
			SystemPrompt:     agent.Set("Keep it brief and restful."),
			SystemPromptMode: agent.ModeAppend,
		}
	}

	testCases := []struct {
		name      string
		modify    func(e *agent.Extension)
		shouldErr bool
	}{
		{name: "valid extension", modify: func(e *agent.Extension) {}, shouldErr: false},
		{name: "unset mode is valid", modify: func(e *agent.Extension) { e.SystemPromptMode = agent.ModeUnset }, shouldErr: false},
		{name: "unknown mode", modify: func(e *agent.Extension) { e.EvalPromptMode = "merge" }, shouldErr: true},
		{name: "empty extension type", modify: func(e *agent.Extension) { e.ExtensionType = "" }, shouldErr: true},
		{name: "empty extension key", modify: func(e *agent.Extension) { e.ExtensionKey = "" }, shouldErr: true},
		{name: "invalid extension key", modify: func(e *agent.Extension) { e.ExtensionKey = "a b" }, shouldErr: true},
		{name: "empty model override", modify: func(e *agent.Extension) { e.Model = agent.Set("") }, shouldErr: true},
		{name: "temperature override out of range", modify: func(e *agent.Extension) { e.Temperature = agent.Set(-0.1) }, shouldErr: true},
		{name: "explicit empty tool list is valid", modify: func(e *agent.Extension) { e.ToolIDs = agent.Set([]string{}) }, shouldErr: false},
		{name: "empty tool name", modify: func(e *agent.Extension) { e.ToolIDs = agent.Set([]string{""}) }, shouldErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ext := valid()
			tc.modify(ext)
			err := agent.ValidateExtension(ext)
			if tc.shouldErr {
				gt.Error(t, err)
				gt.True(t, errors.Is(err, agent.ErrInvalidExtension))
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestValidateAgentID(t *testing.T) {
	testCases := []struct {
		name      string
		agentID   string
		shouldErr bool
	}{
		{
			name:      "valid simple agent ID",
			agentID:   "agent1",
			shouldErr: false,
		},
		{
			name:      "valid namespaced agent ID",
			agentID:   "workout:message",
			shouldErr: false,
		},
		{
			name:      "valid complex agent ID",
			agentID:   "plan:generate-1.2_3",
			shouldErr: false,
		},
		{
			name:      "empty agent ID should be invalid",
			agentID:   "",
			shouldErr: true,
		},
		{
			name:      "agent ID starting with colon should be invalid",
			agentID:   ":agent",
			shouldErr: true,
		},
		{
			name:      "agent ID ending with dash should be invalid",
			agentID:   "agent-",
			shouldErr: true,
		},
		{
			name:      "agent ID with special characters should be invalid",
			agentID:   "agent@test",
			shouldErr: true,
		},
		{
			name:      "too long agent ID should be invalid",
			agentID:   strings.Repeat("a", 129),
			shouldErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := agent.ValidateAgentID(tc.agentID)
			if tc.shouldErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestMode_IsValid(t *testing.T) {
	for _, m := range []agent.Mode{agent.ModeUnset, agent.ModeAppend, agent.ModePrepend, agent.ModeReplace} {
		gt.True(t, m.IsValid())
	}
	gt.False(t, agent.Mode("APPEND").IsValid())
	gt.Error(t, agent.ValidateMode("merge"))
}

func TestParseRef(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  agent.Ref
		shouldErr bool
	}{
		{name: "type and key", input: "tone=rest_day", expected: agent.Ref{Type: "tone", Key: "rest_day"}},
		{name: "surrounding spaces", input: " tone = rest_day ", expected: agent.Ref{Type: "tone", Key: "rest_day"}},
		{name: "round trips String", input: agent.Ref{Type: "week", Key: "week-3"}.String(), expected: agent.Ref{Type: "week", Key: "week-3"}},
		{name: "missing separator", input: "tone", shouldErr: true},
		{name: "empty key", input: "tone=", shouldErr: true},
		{name: "empty type", input: "=rest_day", shouldErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := agent.ParseRef(tc.input)
			if tc.shouldErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, ref, tc.expected)
		})
	}
}
