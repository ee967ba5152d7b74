package gitrepo

import (
	"errors"
	"fmt"
)

const (
	executorNotConfiguredMessageConstant       = "git command executor not configured"
	repositoryPathNotConfiguredMessageConstant = "repository path not configured"
	operationErrorTemplateConstant             = "git %s failed in %s: %v"
)

// Exported sentinel errors describing manager construction failures.
var (
	// ErrExecutorNotConfigured indicates the manager was constructed without a command executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrRepositoryPathNotConfigured indicates the manager was constructed without a repository path.
	ErrRepositoryPathNotConfigured = errors.New(repositoryPathNotConfiguredMessageConstant)
)

// OperationError reports a failed backend operation against one repository.
type OperationError struct {
	RepositoryPath string
	Operation      string
	Cause          error
}

// Error describes the failed operation and its repository.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.RepositoryPath, operationError.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}
