package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/model/record"
	"github.com/m-mizutani/inari/pkg/domain/types"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// LogRegistry stores agent invocation logs in the agent_logs table. Each
// agent's logs form one append-only chain.
type LogRegistry struct {
	store interfaces.RecordStore
}

var _ interfaces.LogRepository = (*LogRegistry)(nil)

// NewLogRegistry creates a registry backed by store
func NewLogRegistry(store interfaces.RecordStore) *LogRegistry {
	return &LogRegistry{store: store}
}

// Put stores a log entry. An ID is generated when the log has none.
func (r *LogRegistry) Put(ctx context.Context, log *agent.Log) (*agent.Log, error) {
	if log == nil {
		return nil, goerr.New("log cannot be nil", goerr.T(apperr.ErrTagInvalidInput))
	}
	if err := agent.ValidateAgentID(log.AgentID); err != nil {
		return nil, goerr.Wrap(err, "invalid agent log",
			goerr.TV(apperr.AgentIDKey, log.AgentID),
			goerr.T(apperr.ErrTagValidation))
	}

	payload := *log
	if !payload.ID.IsValid() {
		payload.ID = types.NewLogID(ctx)
	}
	payload.VersionID = ""
	payload.CreatedAt = time.Time{}

	data, err := json.Marshal(&payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode agent log",
			goerr.TV(apperr.AgentIDKey, log.AgentID),
			goerr.T(apperr.ErrTagInternal))
	}

	rec, err := r.store.Insert(ctx, &record.Record{
		Table:  record.TableAgentLogs,
		Key:    record.NewKey(log.AgentID),
		Active: true,
		Data:   data,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put agent log", goerr.TV(apperr.AgentIDKey, log.AgentID))
	}
	return decodeLog(rec)
}

// List returns up to limit logs of agentID, newest first
func (r *LogRegistry) List(ctx context.Context, agentID string, limit int) ([]*agent.Log, error) {
	recs, err := r.store.GetHistory(ctx, record.TableAgentLogs, record.NewKey(agentID), limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list agent logs",
			goerr.TV(apperr.AgentIDKey, agentID),
			goerr.TV(apperr.LimitKey, limit))
	}

	logs := make([]*agent.Log, 0, len(recs))
	for _, rec := range recs {
		l, err := decodeLog(rec)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func decodeLog(rec *record.Record) (*agent.Log, error) {
	var l agent.Log
	if err := json.Unmarshal(rec.Data, &l); err != nil {
		return nil, goerr.Wrap(err, "failed to decode agent log",
			goerr.TV(apperr.VersionIDKey, rec.ID.String()),
			goerr.T(apperr.ErrTagInternal))
	}
	l.VersionID = rec.ID
	l.CreatedAt = rec.CreatedAt
	return &l, nil
}
