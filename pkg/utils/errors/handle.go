package errors

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// Handle logs errors with context. Errors caused by caller input are logged
// as warnings; everything else is logged as an error.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	logger := ctxlog.From(ctx)
	if isClientError(err) {
		logger.Warn("request failed", "error", err)
		return
	}
	logger.Error("error occurred", "error", err)
}

func isClientError(err error) bool {
	return goerr.HasTag(err, apperr.ErrTagNotFound) ||
		goerr.HasTag(err, apperr.ErrTagAgentNotConfigured) ||
		goerr.HasTag(err, apperr.ErrTagValidation) ||
		goerr.HasTag(err, apperr.ErrTagInvalidInput)
}
