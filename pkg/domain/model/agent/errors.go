package agent

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// Error definitions for agent-related operations
var (
	// ErrDefinitionNotFound is returned when no active definition exists for an agent ID
	ErrDefinitionNotFound = goerr.New("agent definition not found",
		goerr.T(apperr.ErrTagNotFound)).ID("ERR_AGENT_DEFINITION_NOT_FOUND")

	// ErrUnresolvedDependency is returned when a resolved config names a tool
	// or context type that is not registered in the running process
	ErrUnresolvedDependency = goerr.New("unresolved agent dependency",
		goerr.T(apperr.ErrTagUnresolvedDependency)).ID("ERR_UNRESOLVED_DEPENDENCY")

	// ErrInvalidDefinition is returned when a definition fails validation
	ErrInvalidDefinition = goerr.New("invalid agent definition",
		goerr.T(apperr.ErrTagValidation)).ID("ERR_INVALID_AGENT_DEFINITION")

	// ErrInvalidExtension is returned when an extension fails validation
	ErrInvalidExtension = goerr.New("invalid agent extension",
		goerr.T(apperr.ErrTagValidation)).ID("ERR_INVALID_AGENT_EXTENSION")
)

// Dependency kinds reported with ErrUnresolvedDependency
const (
	DependencyTool    = "tool"
	DependencyContext = "context"
)

// DependencyError names a tool or context type that a resolved config
// requires but that is not registered. It matches ErrUnresolvedDependency
// with errors.Is.
type DependencyError struct {
	Kind string
	Name string
}

func (e *DependencyError) Error() string {
	return e.Kind + " is not registered: " + e.Name
}

func (e *DependencyError) Unwrap() error {
	return ErrUnresolvedDependency
}
