package hierarchy

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/backup"
	"github.com/temirov/lockstep/internal/conflict"
	"github.com/temirov/lockstep/internal/gitrepo"
	"github.com/temirov/lockstep/internal/tracker"
)

const (
	rootPathResolutionReasonConstant       = "root path resolution"
	backendCreationReasonConstant          = "backend creation"
	backupManagerCreationReasonConstant    = "backup manager creation"
	conflictResolverCreationReasonConstant = "conflict resolver creation"
	submoduleListingReasonConstant         = "submodule listing"
	gitDirectoryNameConstant               = ".git"
	repositoryPathLogFieldConstant         = "repository_path"
	submodulePathLogFieldConstant          = "submodule_path"
	depthLogFieldConstant                  = "depth"
	nodeCountLogFieldConstant              = "node_count"
	uninitializedSubmoduleMessageConstant  = "Skipping uninitialized submodule"
	revisitedRepositoryMessageConstant     = "Skipping already visited repository"
	discoveredNodeMessageConstant          = "Discovered repository"
	discoveryCompleteMessageConstant       = "Hierarchy discovery complete"
)

// Discoverer walks submodule declarations and assembles the repository tree.
type Discoverer struct {
	backendFactory gitrepo.BackendFactory
	globalTracker  *tracker.GlobalTracker
	conflictPrompt conflict.Prompt
	logger         *zap.Logger
}

// NewDiscoverer constructs a discoverer binding every node's conflict resolver
// to the shared global tracker and the given conflict prompt.
func NewDiscoverer(backendFactory gitrepo.BackendFactory, globalTracker *tracker.GlobalTracker, conflictPrompt conflict.Prompt, logger *zap.Logger) (*Discoverer, error) {
	if backendFactory == nil {
		return nil, gitrepo.ErrExecutorNotConfigured
	}
	if globalTracker == nil {
		return nil, conflict.ErrTrackerNotConfigured
	}
	if conflictPrompt == nil {
		conflictPrompt = conflict.NoOpPrompt{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Discoverer{
		backendFactory: backendFactory,
		globalTracker:  globalTracker,
		conflictPrompt: conflictPrompt,
		logger:         logger,
	}, nil
}

// Discover walks the tree rooted at rootPath and returns the root node with
// children, backends, backup managers, and conflict resolvers attached.
func (discoverer *Discoverer) Discover(executionContext context.Context, rootPath string) (*RepositoryNode, error) {
	absoluteRootPath, resolutionError := filepath.Abs(rootPath)
	if resolutionError != nil {
		return nil, DiscoveryError{RepositoryPath: rootPath, Reason: rootPathResolutionReasonConstant, Cause: resolutionError}
	}

	visitedPaths := map[string]bool{}
	rootNode, discoveryError := discoverer.discoverNode(executionContext, absoluteRootPath, "", 0, nil, visitedPaths)
	if discoveryError != nil {
		return nil, discoveryError
	}

	discoverer.logger.Info(discoveryCompleteMessageConstant,
		zap.String(repositoryPathLogFieldConstant, absoluteRootPath),
		zap.Int(nodeCountLogFieldConstant, len(visitedPaths)),
	)
	return rootNode, nil
}

func (discoverer *Discoverer) discoverNode(executionContext context.Context, repositoryPath string, relativePath string, depth int, parentNode *RepositoryNode, visitedPaths map[string]bool) (*RepositoryNode, error) {
	if visitedPaths[repositoryPath] {
		discoverer.logger.Warn(revisitedRepositoryMessageConstant, zap.String(repositoryPathLogFieldConstant, repositoryPath))
		return nil, nil
	}
	visitedPaths[repositoryPath] = true

	nodeBackend, backendError := discoverer.backendFactory.CreateBackend(repositoryPath)
	if backendError != nil {
		return nil, DiscoveryError{RepositoryPath: repositoryPath, Reason: backendCreationReasonConstant, Cause: backendError}
	}

	backupManager, backupError := backup.NewManager(nodeBackend, discoverer.logger)
	if backupError != nil {
		return nil, DiscoveryError{RepositoryPath: repositoryPath, Reason: backupManagerCreationReasonConstant, Cause: backupError}
	}

	conflictResolver, resolverError := conflict.NewResolver(nodeBackend, discoverer.globalTracker, discoverer.conflictPrompt, discoverer.logger)
	if resolverError != nil {
		return nil, DiscoveryError{RepositoryPath: repositoryPath, Reason: conflictResolverCreationReasonConstant, Cause: resolverError}
	}

	repositoryNode := &RepositoryNode{
		Name:          filepath.Base(repositoryPath),
		Path:          repositoryPath,
		RelativePath:  relativePath,
		Depth:         depth,
		IsSubmodule:   parentNode != nil,
		Parent:        parentNode,
		Backend:       nodeBackend,
		BackupManager: backupManager,
		Resolver:      conflictResolver,
	}

	discoverer.logger.Debug(discoveredNodeMessageConstant,
		zap.String(repositoryPathLogFieldConstant, repositoryPath),
		zap.Int(depthLogFieldConstant, depth),
	)

	submoduleDeclarations, listingError := nodeBackend.ListSubmodules(executionContext)
	if listingError != nil {
		return nil, DiscoveryError{RepositoryPath: repositoryPath, Reason: submoduleListingReasonConstant, Cause: listingError}
	}

	for _, submoduleDeclaration := range submoduleDeclarations {
		submodulePath := filepath.Join(repositoryPath, filepath.FromSlash(submoduleDeclaration.Path))
		if !submoduleWorkingTreeInitialized(submodulePath) {
			discoverer.logger.Warn(uninitializedSubmoduleMessageConstant,
				zap.String(repositoryPathLogFieldConstant, repositoryPath),
				zap.String(submodulePathLogFieldConstant, submoduleDeclaration.Path),
			)
			continue
		}

		childRelativePath := submoduleDeclaration.Path
		if relativePath != "" {
			childRelativePath = path.Join(relativePath, submoduleDeclaration.Path)
		}

		childNode, childError := discoverer.discoverNode(executionContext, submodulePath, childRelativePath, depth+1, repositoryNode, visitedPaths)
		if childError != nil {
			return nil, childError
		}
		if childNode == nil {
			continue
		}

		repositoryNode.Children = append(repositoryNode.Children, childNode)
		conflictResolver.RegisterSubmoduleBackend(submoduleDeclaration.Path, childNode.Backend)
	}

	return repositoryNode, nil
}

// submoduleWorkingTreeInitialized reports whether the submodule checkout holds
// git metadata. git writes either a .git directory or a .git gitdir file.
func submoduleWorkingTreeInitialized(submodulePath string) bool {
	_, statError := os.Stat(filepath.Join(submodulePath, gitDirectoryNameConstant))
	return statError == nil
}

// RebaseOrder flattens the tree deepest depth first, preserving discovery
// order within each depth. A child always precedes its parent.
func RebaseOrder(rootNode *RepositoryNode) []*RepositoryNode {
	if rootNode == nil {
		return nil
	}

	nodesByDepth := map[int][]*RepositoryNode{}
	maximumDepth := 0
	collectByDepth(rootNode, nodesByDepth, &maximumDepth)

	orderedNodes := []*RepositoryNode{}
	for depth := maximumDepth; depth >= 0; depth-- {
		orderedNodes = append(orderedNodes, nodesByDepth[depth]...)
	}
	return orderedNodes
}

func collectByDepth(repositoryNode *RepositoryNode, nodesByDepth map[int][]*RepositoryNode, maximumDepth *int) {
	nodesByDepth[repositoryNode.Depth] = append(nodesByDepth[repositoryNode.Depth], repositoryNode)
	if repositoryNode.Depth > *maximumDepth {
		*maximumDepth = repositoryNode.Depth
	}
	for _, childNode := range repositoryNode.Children {
		collectByDepth(childNode, nodesByDepth, maximumDepth)
	}
}

// Entries projects the tree into flat presentation rows in pre-order.
func Entries(rootNode *RepositoryNode) []HierarchyEntry {
	if rootNode == nil {
		return nil
	}

	parentName := ""
	if rootNode.Parent != nil {
		parentName = rootNode.Parent.Name
	}

	flattenedEntries := []HierarchyEntry{{
		Name:        rootNode.Name,
		Path:        rootNode.Path,
		Depth:       rootNode.Depth,
		IsSubmodule: rootNode.IsSubmodule,
		ParentName:  parentName,
	}}
	for _, childNode := range rootNode.Children {
		flattenedEntries = append(flattenedEntries, Entries(childNode)...)
	}
	return flattenedEntries
}
