package gitrepo

import (
	"go.uber.org/zap"
)

// BackendFactory creates a Backend bound to a repository working tree.
type BackendFactory interface {
	CreateBackend(repositoryPath string) (Backend, error)
}

// ManagerFactory builds Manager instances sharing one executor and logger.
type ManagerFactory struct {
	executor CommandExecutor
	logger   *zap.Logger
}

// NewManagerFactory validates collaborators and constructs a manager factory.
func NewManagerFactory(executor CommandExecutor, logger *zap.Logger) (*ManagerFactory, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagerFactory{executor: executor, logger: logger}, nil
}

// CreateBackend builds a Manager for the supplied repository path.
func (factory *ManagerFactory) CreateBackend(repositoryPath string) (Backend, error) {
	return NewManager(repositoryPath, factory.executor, factory.logger)
}
