package hierarchy

import (
	"fmt"

	"github.com/temirov/lockstep/internal/backup"
	"github.com/temirov/lockstep/internal/conflict"
	"github.com/temirov/lockstep/internal/gitrepo"
)

// RepositoryNode is one repository in the discovered tree, root or submodule.
// Children are owned; the parent pointer is a non-owning back-reference used
// only for read-only name and path resolution.
type RepositoryNode struct {
	Name         string
	Path         string
	RelativePath string
	Depth        int
	IsSubmodule  bool
	Parent       *RepositoryNode
	Children     []*RepositoryNode

	Backend       gitrepo.Backend
	BackupManager *backup.Manager
	Resolver      *conflict.Resolver
}

// HierarchyEntry is a flattened, read-only projection of a RepositoryNode for presentation.
type HierarchyEntry struct {
	Name        string
	Path        string
	Depth       int
	IsSubmodule bool
	ParentName  string
}

const discoveryErrorTemplateConstant = "hierarchy discovery failed at %s: %s: %v"

// DiscoveryError reports a failure while walking the repository tree.
type DiscoveryError struct {
	RepositoryPath string
	Reason         string
	Cause          error
}

// Error describes the discovery failure.
func (discoveryError DiscoveryError) Error() string {
	return fmt.Sprintf(discoveryErrorTemplateConstant, discoveryError.RepositoryPath, discoveryError.Reason, discoveryError.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (discoveryError DiscoveryError) Unwrap() error {
	return discoveryError.Cause
}
