package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/model/record"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// DefinitionRegistry stores agent definitions in the agent_definitions table,
// keyed by agent ID.
type DefinitionRegistry struct {
	store interfaces.RecordStore
}

var _ interfaces.DefinitionRepository = (*DefinitionRegistry)(nil)

// NewDefinitionRegistry creates a registry backed by store
func NewDefinitionRegistry(store interfaces.RecordStore) *DefinitionRegistry {
	return &DefinitionRegistry{store: store}
}

// Put validates def and stores it as a new version
func (r *DefinitionRegistry) Put(ctx context.Context, def *agent.Definition) (*agent.Definition, error) {
	if err := agent.ValidateDefinition(def); err != nil {
		return nil, err
	}

	// Store-assigned fields are not part of the payload
	payload := def.Copy()
	payload.VersionID = ""
	payload.Version = 0
	payload.CreatedAt = time.Time{}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode agent definition",
			goerr.TV(apperr.AgentIDKey, def.AgentID),
			goerr.T(apperr.ErrTagInternal))
	}

	rec, err := r.store.Insert(ctx, &record.Record{
		Table:  record.TableAgentDefinitions,
		Key:    definitionKey(def.AgentID),
		Active: def.IsActive,
		Data:   data,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put agent definition", goerr.TV(apperr.AgentIDKey, def.AgentID))
	}

	return decodeDefinition(rec)
}

// GetCurrent returns the latest active definition of agentID. It fails with
// agent.ErrDefinitionNotFound if the agent has no active version.
func (r *DefinitionRegistry) GetCurrent(ctx context.Context, agentID string) (*agent.Definition, error) {
	rec, err := r.store.GetLatest(ctx, record.TableAgentDefinitions, definitionKey(agentID), true)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get agent definition", goerr.TV(apperr.AgentIDKey, agentID))
	}
	if rec == nil {
		return nil, goerr.Wrap(agent.ErrDefinitionNotFound, "no active agent definition",
			goerr.TV(apperr.AgentIDKey, agentID))
	}

	return decodeDefinition(rec)
}

// GetHistory returns up to limit versions of agentID, newest first,
// including inactive ones
func (r *DefinitionRegistry) GetHistory(ctx context.Context, agentID string, limit int) ([]*agent.Definition, error) {
	recs, err := r.store.GetHistory(ctx, record.TableAgentDefinitions, definitionKey(agentID), limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get agent definition history",
			goerr.TV(apperr.AgentIDKey, agentID),
			goerr.TV(apperr.LimitKey, limit))
	}

	defs := make([]*agent.Definition, 0, len(recs))
	for _, rec := range recs {
		def, err := decodeDefinition(rec)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// List returns every agent ID that has at least one definition version
func (r *DefinitionRegistry) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.ListKeys(ctx, record.TableAgentDefinitions)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list agent definitions")
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(k) != 1 {
			continue
		}
		ids = append(ids, k[0])
	}
	return ids, nil
}

func definitionKey(agentID string) record.Key {
	return record.NewKey(agentID)
}

func decodeDefinition(rec *record.Record) (*agent.Definition, error) {
	var def agent.Definition
	if err := json.Unmarshal(rec.Data, &def); err != nil {
		return nil, goerr.Wrap(err, "failed to decode agent definition",
			goerr.TV(apperr.VersionIDKey, rec.ID.String()),
			goerr.T(apperr.ErrTagInternal))
	}
	def.VersionID = rec.ID
	def.Version = rec.Version
	def.CreatedAt = rec.CreatedAt
	def.IsActive = rec.Active
	return &def, nil
}
