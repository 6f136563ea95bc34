package apperr

import "github.com/m-mizutani/goerr/v2"

// Process exit codes returned by the CLI
const (
	ExitOK                   = 0
	ExitFailure              = 1
	ExitNotFound             = 3
	ExitInvalidInput         = 4
	ExitUnresolvedDependency = 5
	ExitStoreIO              = 6
)

// ExitCodeFromError returns the process exit code based on error tags
func ExitCodeFromError(err error) int {
	switch {
	case err == nil:
		return ExitOK

	case goerr.HasTag(err, ErrTagNotFound),
		goerr.HasTag(err, ErrTagAgentNotConfigured):
		return ExitNotFound

	case goerr.HasTag(err, ErrTagValidation),
		goerr.HasTag(err, ErrTagInvalidInput):
		return ExitInvalidInput

	case goerr.HasTag(err, ErrTagUnresolvedDependency):
		return ExitUnresolvedDependency

	case goerr.HasTag(err, ErrTagStoreIO),
		goerr.HasTag(err, ErrTagFirestore),
		goerr.HasTag(err, ErrTagPostgres),
		goerr.HasTag(err, ErrTagStorage):
		return ExitStoreIO

	default:
		return ExitFailure
	}
}
