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

// ExtensionRegistry stores agent extensions in the agent_extensions table,
// keyed by (agent ID, extension type, extension key).
type ExtensionRegistry struct {
	store interfaces.RecordStore
}

var _ interfaces.ExtensionRepository = (*ExtensionRegistry)(nil)

// NewExtensionRegistry creates a registry backed by store
func NewExtensionRegistry(store interfaces.RecordStore) *ExtensionRegistry {
	return &ExtensionRegistry{store: store}
}

// Put validates ext and stores it as a new version
func (r *ExtensionRegistry) Put(ctx context.Context, ext *agent.Extension) (*agent.Extension, error) {
	if err := agent.ValidateExtension(ext); err != nil {
		return nil, err
	}

	payload := *ext
	payload.VersionID = ""
	payload.Version = 0
	payload.CreatedAt = time.Time{}

	data, err := json.Marshal(&payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode agent extension",
			extensionValues(ext.ID(), goerr.T(apperr.ErrTagInternal))...)
	}

	rec, err := r.store.Insert(ctx, &record.Record{
		Table:  record.TableAgentExtensions,
		Key:    extensionKey(ext.AgentID, ext.ExtensionType, ext.ExtensionKey),
		Active: true,
		Data:   data,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put agent extension", extensionValues(ext.ID())...)
	}

	return decodeExtension(rec)
}

// GetCurrent returns the latest version of the extension, or nil if it does
// not exist. Absence is not an error.
func (r *ExtensionRegistry) GetCurrent(ctx context.Context, agentID, extensionType, extKey string) (*agent.Extension, error) {
	rec, err := r.store.GetLatest(ctx, record.TableAgentExtensions, extensionKey(agentID, extensionType, extKey), false)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get agent extension",
			extensionValues(agent.ExtensionID{AgentID: agentID, Type: extensionType, Key: extKey})...)
	}
	if rec == nil {
		return nil, nil
	}
	return decodeExtension(rec)
}

// GetHistory returns up to limit versions of the extension, newest first
func (r *ExtensionRegistry) GetHistory(ctx context.Context, agentID, extensionType, extKey string, limit int) ([]*agent.Extension, error) {
	id := agent.ExtensionID{AgentID: agentID, Type: extensionType, Key: extKey}
	recs, err := r.store.GetHistory(ctx, record.TableAgentExtensions, extensionKey(agentID, extensionType, extKey), limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get agent extension history",
			extensionValues(id, goerr.TV(apperr.LimitKey, limit))...)
	}

	exts := make([]*agent.Extension, 0, len(recs))
	for _, rec := range recs {
		ext, err := decodeExtension(rec)
		if err != nil {
			return nil, err
		}
		exts = append(exts, ext)
	}
	return exts, nil
}

// ListAll returns the identity of every stored extension
func (r *ExtensionRegistry) ListAll(ctx context.Context) ([]agent.ExtensionID, error) {
	keys, err := r.store.ListKeys(ctx, record.TableAgentExtensions)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list agent extensions")
	}

	ids := make([]agent.ExtensionID, 0, len(keys))
	for _, k := range keys {
		if len(k) != 3 {
			continue
		}
		ids = append(ids, agent.ExtensionID{AgentID: k[0], Type: k[1], Key: k[2]})
	}
	return ids, nil
}

func extensionKey(agentID, extensionType, extKey string) record.Key {
	return record.NewKey(agentID, extensionType, extKey)
}

func extensionValues(id agent.ExtensionID, extra ...goerr.Option) []goerr.Option {
	return append([]goerr.Option{
		goerr.TV(apperr.AgentIDKey, id.AgentID),
		goerr.TV(apperr.ExtensionTypeKey, id.Type),
		goerr.TV(apperr.ExtensionKeyKey, id.Key),
	}, extra...)
}

func decodeExtension(rec *record.Record) (*agent.Extension, error) {
	var ext agent.Extension
	if err := json.Unmarshal(rec.Data, &ext); err != nil {
		return nil, goerr.Wrap(err, "failed to decode agent extension",
			goerr.TV(apperr.VersionIDKey, rec.ID.String()),
			goerr.T(apperr.ErrTagInternal))
	}
	ext.VersionID = rec.ID
	ext.Version = rec.Version
	ext.CreatedAt = rec.CreatedAt
	return &ext, nil
}
