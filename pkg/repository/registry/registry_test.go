package registry_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/repository/database/memory"
	"github.com/m-mizutani/inari/pkg/repository/registry"
)

func newDefinition(agentID, prompt string) *agent.Definition {
	return &agent.Definition{
		AgentID:      agentID,
		SystemPrompt: prompt,
		Model:        "gpt-4o-mini",
		Temperature:  0.3,
		MaxTokens:    512,
		ToolIDs:      []string{"get_workout"},
		SchemaJSON:   json.RawMessage(`{"type":"object"}`),
		IsActive:     true,
	}
}

func TestDefinitionRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("put and get current", func(t *testing.T) {
		reg := registry.NewDefinitionRegistry(memory.New())

		stored, err := reg.Put(ctx, newDefinition("workout:message", "Format the workout."))
		gt.NoError(t, err).Required()
		gt.True(t, stored.VersionID.IsValid())
		gt.Equal(t, stored.Version, int64(1))
		gt.False(t, stored.CreatedAt.IsZero())

		current, err := reg.GetCurrent(ctx, "workout:message")
		gt.NoError(t, err).Required()
		gt.Equal(t, current, stored)
		gt.Equal(t, current.SystemPrompt, "Format the workout.")
		gt.Equal(t, string(current.SchemaJSON), `{"type":"object"}`)
	})

	t.Run("every put is a new version", func(t *testing.T) {
		reg := registry.NewDefinitionRegistry(memory.New())

		v1, err := reg.Put(ctx, newDefinition("workout:message", "A"))
		gt.NoError(t, err).Required()
		v2, err := reg.Put(ctx, newDefinition("workout:message", "B"))
		gt.NoError(t, err).Required()
		gt.NotEqual(t, v1.VersionID, v2.VersionID)

		current, err := reg.GetCurrent(ctx, "workout:message")
		gt.NoError(t, err).Required()
		gt.Equal(t, current.SystemPrompt, "B")

		history, err := reg.GetHistory(ctx, "workout:message", 0)
		gt.NoError(t, err).Required()
		gt.A(t, history).Length(2)
		gt.Equal(t, history[0].VersionID, v2.VersionID)
		gt.Equal(t, history[1].SystemPrompt, "A")
	})

	t.Run("inactive latest version falls back to previous active", func(t *testing.T) {
		reg := registry.NewDefinitionRegistry(memory.New())

		_, err := reg.Put(ctx, newDefinition("workout:message", "A"))
		gt.NoError(t, err).Required()
		inactive := newDefinition("workout:message", "B")
		inactive.IsActive = false
		_, err = reg.Put(ctx, inactive)
		gt.NoError(t, err).Required()

		current, err := reg.GetCurrent(ctx, "workout:message")
		gt.NoError(t, err).Required()
		gt.Equal(t, current.SystemPrompt, "A")
		gt.True(t, current.IsActive)
	})

	t.Run("missing agent is not found", func(t *testing.T) {
		reg := registry.NewDefinitionRegistry(memory.New())

		_, err := reg.GetCurrent(ctx, "unknown")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, agent.ErrDefinitionNotFound))
		gt.True(t, goerr.HasTag(err, apperr.ErrTagNotFound))
	})

	t.Run("invalid definition is rejected", func(t *testing.T) {
		store := memory.New()
		reg := registry.NewDefinitionRegistry(store)

		def := newDefinition("workout:message", "")
		_, err := reg.Put(ctx, def)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, agent.ErrInvalidDefinition))

		ids, err := reg.List(ctx)
		gt.NoError(t, err)
		gt.A(t, ids).Length(0)
	})

	t.Run("list agent IDs", func(t *testing.T) {
		reg := registry.NewDefinitionRegistry(memory.New())
		for _, id := range []string{"plan:generate", "workout:message", "chat:reply"} {
			_, err := reg.Put(ctx, newDefinition(id, "prompt"))
			gt.NoError(t, err).Required()
		}

		ids, err := reg.List(ctx)
		gt.NoError(t, err)
		gt.Equal(t, ids, []string{"chat:reply", "plan:generate", "workout:message"})
	})

	t.Run("store-assigned fields in input are ignored", func(t *testing.T) {
		reg := registry.NewDefinitionRegistry(memory.New())
		def := newDefinition("workout:message", "A")
		def.Version = 42
		def.CreatedAt = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

		stored, err := reg.Put(ctx, def)
		gt.NoError(t, err).Required()
		gt.Equal(t, stored.Version, int64(1))
		gt.NotEqual(t, stored.CreatedAt, def.CreatedAt)
	})
}

func TestExtensionRegistry(t *testing.T) {
	ctx := context.Background()

	newExtension := func(extType, extKey, prompt string) *agent.Extension {
		return &agent.Extension{
			AgentID:          "workout:message",
			ExtensionType:    extType,
			ExtensionKey:     extKey,
			SystemPrompt:     agent.Set(prompt),
			SystemPromptMode: agent.ModeAppend,
		}
	}

	t.Run("missing extension is nil without error", func(t *testing.T) {
		reg := registry.NewExtensionRegistry(memory.New())

		ext, err := reg.GetCurrent(ctx, "workout:message", "dayFormat", "REST")
		gt.NoError(t, err)
		gt.True(t, ext == nil)
	})

	t.Run("put and get current", func(t *testing.T) {
		reg := registry.NewExtensionRegistry(memory.New())

		_, err := reg.Put(ctx, newExtension("dayFormat", "REST", "Keep it brief."))
		gt.NoError(t, err).Required()
		v2, err := reg.Put(ctx, newExtension("dayFormat", "REST", "Keep it brief and restful."))
		gt.NoError(t, err).Required()

		current, err := reg.GetCurrent(ctx, "workout:message", "dayFormat", "REST")
		gt.NoError(t, err).Required()
		gt.Equal(t, current.VersionID, v2.VersionID)
		gt.Equal(t, current.Version, int64(2))
		v, ok := current.SystemPrompt.Get()
		gt.True(t, ok)
		gt.Equal(t, v, "Keep it brief and restful.")
		gt.Equal(t, current.SystemPromptMode, agent.ModeAppend)

		history, err := reg.GetHistory(ctx, "workout:message", "dayFormat", "REST", 1)
		gt.NoError(t, err)
		gt.A(t, history).Length(1)
	})

	t.Run("overrides survive storage", func(t *testing.T) {
		reg := registry.NewExtensionRegistry(memory.New())

		ext := newExtension("dayFormat", "TRAINING", "Be specific.")
		ext.ToolIDs = agent.Set([]string{})
		ext.Temperature = agent.Set(0.0)
		_, err := reg.Put(ctx, ext)
		gt.NoError(t, err).Required()

		current, err := reg.GetCurrent(ctx, "workout:message", "dayFormat", "TRAINING")
		gt.NoError(t, err).Required()

		tools, ok := current.ToolIDs.Get()
		gt.True(t, ok)
		gt.A(t, tools).Length(0)

		temp, ok := current.Temperature.Get()
		gt.True(t, ok)
		gt.Equal(t, temp, 0.0)

		gt.False(t, current.Model.IsSet())
		gt.False(t, current.ContextTypes.IsSet())
	})

	t.Run("invalid extension is rejected", func(t *testing.T) {
		reg := registry.NewExtensionRegistry(memory.New())

		ext := newExtension("dayFormat", "REST", "x")
		ext.SystemPromptMode = "merge"
		_, err := reg.Put(ctx, ext)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, agent.ErrInvalidExtension))
	})

	t.Run("list all", func(t *testing.T) {
		reg := registry.NewExtensionRegistry(memory.New())
		_, err := reg.Put(ctx, newExtension("dayFormat", "REST", "a"))
		gt.NoError(t, err).Required()
		_, err = reg.Put(ctx, newExtension("dayFormat", "TRAINING", "b"))
		gt.NoError(t, err).Required()
		_, err = reg.Put(ctx, newExtension("dayFormat", "REST", "c"))
		gt.NoError(t, err).Required()

		ids, err := reg.ListAll(ctx)
		gt.NoError(t, err)
		gt.Equal(t, ids, []agent.ExtensionID{
			{AgentID: "workout:message", Type: "dayFormat", Key: "REST"},
			{AgentID: "workout:message", Type: "dayFormat", Key: "TRAINING"},
		})
	})
}

func TestLogRegistry(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewLogRegistry(memory.New())

	for _, out := range []string{"first", "second"} {
		_, err := reg.Put(ctx, &agent.Log{
			AgentID:    "workout:message",
			Extensions: []agent.Ref{{Type: "dayFormat", Key: "REST"}},
			Model:      "gpt-4o-mini",
			Output:     out,
			Duration:   time.Second,
		})
		gt.NoError(t, err).Required()
	}

	logs, err := reg.List(ctx, "workout:message", 0)
	gt.NoError(t, err).Required()
	gt.A(t, logs).Length(2)
	gt.Equal(t, logs[0].Output, "second")
	gt.True(t, logs[0].ID.IsValid())
	gt.True(t, logs[0].VersionID.IsValid())
	gt.NotEqual(t, logs[0].ID, logs[1].ID)
	gt.Equal(t, logs[1].Extensions, []agent.Ref{{Type: "dayFormat", Key: "REST"}})

	_, err = reg.Put(ctx, &agent.Log{AgentID: ""})
	gt.Error(t, err)
}
