package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/utils/async"
)

// RecordLog stores an invocation log in the background. Failures are logged
// and never reach the caller.
func (r *Registry) RecordLog(ctx context.Context, log *agent.Log) {
	if r.logs == nil || log == nil {
		return
	}

	entry := *log
	entry.Extensions = append([]agent.Ref(nil), log.Extensions...)

	async.Dispatch(ctx, func(ctx context.Context) error {
		stored, err := r.logs.Put(ctx, &entry)
		if err != nil {
			return goerr.Wrap(err, "failed to record agent log", goerr.TV(apperr.AgentIDKey, entry.AgentID))
		}
		ctxlog.From(ctx).Debug("agent log recorded",
			"agent_id", stored.AgentID,
			"log_id", stored.ID,
			"succeeded", stored.Succeeded())
		return nil
	})
}

// GetLogs returns up to limit invocation logs of agentID, newest first
func (r *Registry) GetLogs(ctx context.Context, agentID string, limit int) ([]*agent.Log, error) {
	if r.logs == nil {
		return nil, goerr.New("agent log repository is not configured", goerr.T(apperr.ErrTagInvalidInput))
	}
	return r.logs.List(ctx, agentID, limit)
}
