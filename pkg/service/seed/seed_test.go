package seed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	storage "github.com/m-mizutani/inari/pkg/adapters/memory"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/repository/database/memory"
	"github.com/m-mizutani/inari/pkg/repository/registry"
	"github.com/m-mizutani/inari/pkg/service/catalog"
	"github.com/m-mizutani/inari/pkg/service/seed"
	"github.com/m-mizutani/inari/pkg/usecase"
)

const seedYAML = `
tools:
  - name: get_workout
    description: Fetch the scheduled workout
  - name: get_plan
contexts:
  - name: user_profile
definitions:
  - agent_id: workout:message
    system_prompt: Format the workout.
    model: gpt-4o-mini
    temperature: 0.3
    max_tokens: 512
    tool_ids: [get_workout]
    context_types: [user_profile]
    schema_json:
      type: object
      required: [message]
  - agent_id: plan:generate
    system_prompt: Generate a plan.
    model: gpt-4o
    temperature: 0.7
    is_active: false
extensions:
  - agent_id: workout:message
    extension_type: tone
    extension_key: rest_day
    description: Rest day wording
    system_prompt: Keep it brief and restful.
    system_prompt_mode: append
  - agent_id: workout:message
    extension_type: channel
    extension_key: plain
    tool_ids: []
    max_tokens: 160
`

type env struct {
	registry *usecase.Registry
	tools    *catalog.Catalog
	contexts *catalog.Catalog
	storage  *storage.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()
	tools, err := catalog.New(agent.DependencyTool)
	gt.NoError(t, err).Required()
	contexts, err := catalog.New(agent.DependencyContext)
	gt.NoError(t, err).Required()

	store := memory.New()
	reg, err := usecase.New(
		usecase.WithDefinitionRepository(registry.NewDefinitionRegistry(store)),
		usecase.WithExtensionRepository(registry.NewExtensionRegistry(store)),
		usecase.WithTools(tools),
		usecase.WithContexts(contexts),
	)
	gt.NoError(t, err).Required()

	return &env{registry: reg, tools: tools, contexts: contexts, storage: storage.New()}
}

func TestParse(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc, err := seed.Parse([]byte(seedYAML))
		gt.NoError(t, err).Required()
		gt.A(t, doc.Tools).Length(2)
		gt.A(t, doc.Contexts).Length(1)
		gt.A(t, doc.Definitions).Length(2)
		gt.A(t, doc.Extensions).Length(2)
	})

	t.Run("empty document", func(t *testing.T) {
		doc, err := seed.Parse([]byte(""))
		gt.NoError(t, err).Required()
		gt.A(t, doc.Definitions).Length(0)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := seed.Parse([]byte("definitions:\n  - agent_id: a\n    prompt: x\n"))
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, apperr.ErrTagInvalidInput))
	})
}

func TestDefinitionConversion(t *testing.T) {
	doc, err := seed.Parse([]byte(seedYAML))
	gt.NoError(t, err).Required()

	active, err := doc.Definitions[0].ToDefinition()
	gt.NoError(t, err).Required()
	gt.True(t, active.IsActive)
	gt.Equal(t, string(active.SchemaJSON), `{"required":["message"],"type":"object"}`)

	inactive, err := doc.Definitions[1].ToDefinition()
	gt.NoError(t, err).Required()
	gt.False(t, inactive.IsActive)
}

func TestExtensionConversion(t *testing.T) {
	doc, err := seed.Parse([]byte(seedYAML))
	gt.NoError(t, err).Required()

	tone, err := doc.Extensions[0].ToExtension()
	gt.NoError(t, err).Required()
	prompt, ok := tone.SystemPrompt.Get()
	gt.True(t, ok)
	gt.Equal(t, prompt, "Keep it brief and restful.")
	gt.Equal(t, tone.SystemPromptMode, agent.ModeAppend)
	gt.False(t, tone.ToolIDs.IsSet())
	gt.False(t, tone.Model.IsSet())

	plain, err := doc.Extensions[1].ToExtension()
	gt.NoError(t, err).Required()
	tools, ok := plain.ToolIDs.Get()
	gt.True(t, ok)
	gt.A(t, tools).Length(0)
	maxTokens, ok := plain.MaxTokens.Get()
	gt.True(t, ok)
	gt.Equal(t, maxTokens, 160)
}

func TestLoadAndApply(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	gt.NoError(t, e.storage.Put(ctx, "seed.yaml", []byte(seedYAML))).Required()

	doc, err := seed.Load(ctx, e.storage, "seed.yaml")
	gt.NoError(t, err).Required()

	summary, err := seed.Apply(ctx, doc, e.registry, e.tools, e.contexts)
	gt.NoError(t, err).Required()
	gt.Equal(t, *summary, seed.Summary{
		Tools:              2,
		Contexts:           1,
		DefinitionsWritten: 2,
		ExtensionsWritten:  2,
	})

	cfg, err := e.registry.Resolve(ctx, "workout:message", []agent.Ref{{Type: "tone", Key: "rest_day"}})
	gt.NoError(t, err).Required()
	gt.Equal(t, cfg.SystemPrompt, "Format the workout.\nKeep it brief and restful.")
	gt.Equal(t, cfg.ToolIDs, []string{"get_workout"})

	_, err = e.registry.Resolve(ctx, "plan:generate", nil)
	gt.True(t, errors.Is(err, agent.ErrDefinitionNotFound))

	t.Run("second apply writes nothing", func(t *testing.T) {
		again, err := seed.Apply(ctx, doc, e.registry, e.tools, e.contexts)
		gt.NoError(t, err).Required()
		gt.Equal(t, *again, seed.Summary{
			DefinitionsUnchanged: 2,
			ExtensionsUnchanged:  2,
		})

		history, err := e.registry.GetDefinitionHistory(ctx, "workout:message", 0)
		gt.NoError(t, err).Required()
		gt.A(t, history).Length(1)
	})

	t.Run("changed entry is a new version", func(t *testing.T) {
		doc.Definitions[0].SystemPrompt = "Format the workout briefly."
		again, err := seed.Apply(ctx, doc, e.registry, e.tools, e.contexts)
		gt.NoError(t, err).Required()
		gt.Equal(t, again.DefinitionsWritten, 1)
		gt.Equal(t, again.DefinitionsUnchanged, 1)

		def, err := e.registry.GetDefinition(ctx, "workout:message")
		gt.NoError(t, err).Required()
		gt.Equal(t, def.Version, int64(2))
	})
}

func TestLoad_MissingKey(t *testing.T) {
	e := newEnv(t)
	_, err := seed.Load(context.Background(), e.storage, "missing.yaml")
	gt.True(t, errors.Is(err, interfaces.ErrStorageKeyNotFound))
}

func TestApply_InvalidDefinition(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	doc, err := seed.Parse([]byte("definitions:\n  - agent_id: workout:message\n    model: gpt-4o\n"))
	gt.NoError(t, err).Required()

	_, err = seed.Apply(ctx, doc, e.registry, e.tools, e.contexts)
	gt.True(t, errors.Is(err, agent.ErrInvalidDefinition))
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newEnv(t)

	doc, err := seed.Parse([]byte(seedYAML))
	gt.NoError(t, err).Required()
	_, err = seed.Apply(ctx, doc, src.registry, src.tools, src.contexts)
	gt.NoError(t, err).Required()

	exported, err := seed.Export(ctx, src.registry, src.tools, src.contexts)
	gt.NoError(t, err).Required()
	gt.A(t, exported.Definitions).Length(2)
	gt.A(t, exported.Extensions).Length(2)
	gt.NoError(t, seed.Save(ctx, src.storage, "snapshot.yaml", exported)).Required()

	dst := newEnv(t)
	loaded, err := seed.Load(ctx, src.storage, "snapshot.yaml")
	gt.NoError(t, err).Required()
	_, err = seed.Apply(ctx, loaded, dst.registry, dst.tools, dst.contexts)
	gt.NoError(t, err).Required()

	// The restored registry holds the same content, so re-applying the
	// original document changes nothing.
	summary, err := seed.Apply(ctx, doc, dst.registry, dst.tools, dst.contexts)
	gt.NoError(t, err).Required()
	gt.Equal(t, summary.DefinitionsWritten, 0)
	gt.Equal(t, summary.ExtensionsWritten, 0)

	plain, err := dst.registry.GetExtension(ctx, "workout:message", "channel", "plain")
	gt.NoError(t, err).Required()
	tools, ok := plain.ToolIDs.Get()
	gt.True(t, ok)
	gt.A(t, tools).Length(0)
}

func TestParseSingleEntries(t *testing.T) {
	def, err := seed.ParseDefinition([]byte("agent_id: chat:reply\nsystem_prompt: Reply.\nmodel: gpt-4o\n"))
	gt.NoError(t, err).Required()
	converted, err := def.ToDefinition()
	gt.NoError(t, err).Required()
	gt.Equal(t, converted.AgentID, "chat:reply")
	gt.True(t, converted.IsActive)

	ext, err := seed.ParseExtension([]byte("agent_id: chat:reply\nextension_type: tone\nextension_key: warm\nsystem_prompt: Be warm.\nsystem_prompt_mode: prepend\n"))
	gt.NoError(t, err).Required()
	convertedExt, err := ext.ToExtension()
	gt.NoError(t, err).Required()
	gt.Equal(t, convertedExt.SystemPromptMode, agent.ModePrepend)

	_, err = seed.ParseExtension([]byte("agent_id: chat:reply\nunknown: 1\n"))
	gt.True(t, goerr.HasTag(err, apperr.ErrTagInvalidInput))
}
