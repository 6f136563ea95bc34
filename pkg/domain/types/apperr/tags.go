package apperr

import "github.com/m-mizutani/goerr/v2"

// NotFound errors
var (
	ErrTagNotFound           = goerr.NewTag("not_found")
	ErrTagAgentNotConfigured = goerr.NewTag("agent_not_configured")
)

// Configuration integrity errors
var (
	ErrTagUnresolvedDependency = goerr.NewTag("unresolved_dependency")
	ErrTagValidation           = goerr.NewTag("validation")
	ErrTagInvalidInput         = goerr.NewTag("invalid_input")
)

// Persistence errors
var (
	ErrTagStoreIO   = goerr.NewTag("store_io")
	ErrTagFirestore = goerr.NewTag("firestore")
	ErrTagPostgres  = goerr.NewTag("postgres")
	ErrTagStorage   = goerr.NewTag("storage")
)

// System errors
var (
	ErrTagInternal = goerr.NewTag("internal")
)
