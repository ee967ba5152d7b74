package rebase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/backup"
	"github.com/temirov/lockstep/internal/hierarchy"
	"github.com/temirov/lockstep/internal/tracker"
)

const (
	defaultRemoteNameConstant         = "origin"
	repositoryPathLogFieldConstant    = "repository_path"
	branchNameLogFieldConstant        = "branch_name"
	backupBranchLogFieldConstant      = "backup_branch"
	sessionLogFieldConstant           = "session"
	remoteNameLogFieldConstant        = "remote_name"
	backupsCreatedMessageConstant     = "Backups ensured for operation"
	backupsDeletedMessageConstant     = "Deleted session backups"
	forcePushDeclinedMessageConstant  = "Force push declined by operator"
	branchPushedMessageConstant       = "Pushed rewritten branch"
	dirtyWorkingTreeIssueTemplate     = "working tree has %d uncommitted change(s)"
	rebaseInProgressIssueConstant     = "a rebase is already in progress"
	stagedChangesIssueConstant        = "index holds staged but uncommitted changes"
	missingSourceBranchIssueTemplate  = "source branch %s does not exist locally"
	missingTargetBranchIssueTemplate  = "target branch %s does not exist locally"
	backupListingReasonConstant       = "backup listing"
	backupCreationReasonConstant      = "backup creation"
	backupDeletionReasonConstant      = "backup deletion"
	backupRestoreReasonConstant       = "backup restore"
	statusInspectionReasonConstant    = "status inspection"
	validationReasonConstant          = "precondition validation"
	branchPushReasonConstant          = "branch push"
	noBackupForBranchTemplateConstant = "no backup found for branch %s"
)

// Orchestrator coordinates discovery, planning, and execution of lockstep rebases.
type Orchestrator struct {
	discoverer    *hierarchy.Discoverer
	globalTracker *tracker.GlobalTracker
	userPrompt    UserPrompt
	logger        *zap.Logger
	remoteName    string
	clock         func() time.Time
}

// NewOrchestrator validates collaborators and constructs an orchestrator.
func NewOrchestrator(discoverer *hierarchy.Discoverer, globalTracker *tracker.GlobalTracker, userPrompt UserPrompt, logger *zap.Logger) (*Orchestrator, error) {
	if discoverer == nil {
		return nil, ErrDiscovererNotConfigured
	}
	if globalTracker == nil {
		return nil, ErrTrackerNotConfigured
	}
	if userPrompt == nil {
		userPrompt = NoOpUserPrompt{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		discoverer:    discoverer,
		globalTracker: globalTracker,
		userPrompt:    userPrompt,
		logger:        logger,
		remoteName:    defaultRemoteNameConstant,
		clock:         time.Now,
	}, nil
}

// SetRemoteName overrides the remote consulted for branch sync and pushes.
func (orchestrator *Orchestrator) SetRemoteName(remoteName string) {
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if trimmedRemoteName == "" {
		return
	}
	orchestrator.remoteName = trimmedRemoteName
}

// trackerRepositoryName keys a node's commit tracker. Relative paths are
// unique within one hierarchy; the root falls back to its short name.
func trackerRepositoryName(repositoryNode *hierarchy.RepositoryNode) string {
	if repositoryNode.RelativePath == "" {
		return repositoryNode.Name
	}
	return repositoryNode.RelativePath
}

// CreateBackups snapshots every planned repository's source branch under the
// operation's backup session. The session is assigned on the first call and
// repositories already recorded in the operation's branch map are skipped, so
// repeated calls create no duplicate backups.
func (orchestrator *Orchestrator) CreateBackups(executionContext context.Context, operation *RebaseOperation) error {
	if operation.BackupSession == "" {
		operation.BackupSession = backup.NewSession(orchestrator.clock())
	}
	if operation.BackupBranches == nil {
		operation.BackupBranches = map[string]string{}
	}

	for _, repositoryState := range operation.States {
		repositoryPath := repositoryState.Node.Path
		if _, alreadyRecorded := operation.BackupBranches[repositoryPath]; alreadyRecorded {
			continue
		}

		backupEntry, creationError := repositoryState.Node.BackupManager.CreateBackup(executionContext, repositoryState.SourceBranch, operation.BackupSession)
		if creationError != nil {
			return ExecutionError{RepositoryPath: repositoryPath, Reason: backupCreationReasonConstant, Cause: creationError}
		}
		operation.BackupBranches[repositoryPath] = backupEntry.BranchName
	}

	orchestrator.logger.Info(backupsCreatedMessageConstant,
		zap.String(sessionLogFieldConstant, operation.BackupSession),
	)
	return nil
}

// ListBackups walks the hierarchy and returns every repository's backup entries.
func (orchestrator *Orchestrator) ListBackups(executionContext context.Context, rootPath string) ([]RepositoryBackups, error) {
	rootNode, discoveryError := orchestrator.discoverer.Discover(executionContext, rootPath)
	if discoveryError != nil {
		return nil, discoveryError
	}

	listings := []RepositoryBackups{}
	for _, repositoryNode := range hierarchy.RebaseOrder(rootNode) {
		backupEntries, listingError := repositoryNode.BackupManager.ListBackups(executionContext)
		if listingError != nil {
			return nil, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: backupListingReasonConstant, Cause: listingError}
		}

		repositoryListing := RepositoryBackups{
			RepositoryName: repositoryNode.Name,
			RepositoryPath: repositoryNode.Path,
		}
		for _, backupEntry := range backupEntries {
			repositoryListing.Entries = append(repositoryListing.Entries, BackupListing{
				BranchName:     backupEntry.BranchName,
				OriginalBranch: backupEntry.OriginalBranch,
				Session:        backupEntry.Session,
			})
		}
		listings = append(listings, repositoryListing)
	}
	return listings, nil
}

// RestoreBackups restores the named branch in every repository that holds a
// matching backup. An empty session selects each repository's latest backup;
// an explicit session restores exactly that backup and fails when absent.
func (orchestrator *Orchestrator) RestoreBackups(executionContext context.Context, rootPath string, originalBranch string, session string) error {
	rootNode, discoveryError := orchestrator.discoverer.Discover(executionContext, rootPath)
	if discoveryError != nil {
		return discoveryError
	}

	for _, repositoryNode := range hierarchy.RebaseOrder(rootNode) {
		backupEntry, entryFound, selectionError := orchestrator.selectBackupEntry(executionContext, repositoryNode, originalBranch, session)
		if selectionError != nil {
			return selectionError
		}
		if !entryFound {
			if session == "" {
				continue
			}
			return ExecutionError{
				RepositoryPath: repositoryNode.Path,
				Reason:         backupRestoreReasonConstant,
				Cause:          fmt.Errorf(noBackupForBranchTemplateConstant, originalBranch),
			}
		}

		if restoreError := repositoryNode.BackupManager.RestoreFromBackup(executionContext, backupEntry); restoreError != nil {
			return ExecutionError{RepositoryPath: repositoryNode.Path, Reason: backupRestoreReasonConstant, Cause: restoreError}
		}
	}
	return nil
}

func (orchestrator *Orchestrator) selectBackupEntry(executionContext context.Context, repositoryNode *hierarchy.RepositoryNode, originalBranch string, session string) (backup.Entry, bool, error) {
	if session == "" {
		latestEntry, entryFound, selectionError := repositoryNode.BackupManager.LatestBackup(executionContext, originalBranch)
		if selectionError != nil {
			return backup.Entry{}, false, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: backupListingReasonConstant, Cause: selectionError}
		}
		return latestEntry, entryFound, nil
	}

	branchEntries, listingError := repositoryNode.BackupManager.ListBackupsForBranch(executionContext, originalBranch)
	if listingError != nil {
		return backup.Entry{}, false, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: backupListingReasonConstant, Cause: listingError}
	}
	for _, candidateEntry := range branchEntries {
		if candidateEntry.Session == session {
			return candidateEntry, true, nil
		}
	}
	return backup.Entry{}, false, nil
}

// DeleteSessionBackups removes every backup branch belonging to the session
// across the hierarchy. An empty session removes all backup branches.
func (orchestrator *Orchestrator) DeleteSessionBackups(executionContext context.Context, rootPath string, session string) error {
	rootNode, discoveryError := orchestrator.discoverer.Discover(executionContext, rootPath)
	if discoveryError != nil {
		return discoveryError
	}

	for _, repositoryNode := range hierarchy.RebaseOrder(rootNode) {
		backupEntries, listingError := repositoryNode.BackupManager.ListBackups(executionContext)
		if listingError != nil {
			return ExecutionError{RepositoryPath: repositoryNode.Path, Reason: backupListingReasonConstant, Cause: listingError}
		}

		for _, backupEntry := range backupEntries {
			if session != "" && backupEntry.Session != session {
				continue
			}
			if deletionError := repositoryNode.BackupManager.DeleteBackup(executionContext, backupEntry); deletionError != nil {
				return ExecutionError{RepositoryPath: repositoryNode.Path, Reason: backupDeletionReasonConstant, Cause: deletionError}
			}
		}
	}

	orchestrator.logger.Info(backupsDeletedMessageConstant, zap.String(sessionLogFieldConstant, session))
	return nil
}

// Status reports each repository's current branch, dirty paths, and rebase
// state in hierarchy pre-order.
func (orchestrator *Orchestrator) Status(executionContext context.Context, rootPath string) ([]RepositoryStatus, error) {
	rootNode, discoveryError := orchestrator.discoverer.Discover(executionContext, rootPath)
	if discoveryError != nil {
		return nil, discoveryError
	}

	statuses := []RepositoryStatus{}
	for _, hierarchyEntry := range hierarchy.Entries(rootNode) {
		repositoryNode := findNodeByPath(rootNode, hierarchyEntry.Path)

		currentBranch, branchError := repositoryNode.Backend.CurrentBranch(executionContext)
		if branchError != nil {
			return nil, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: statusInspectionReasonConstant, Cause: branchError}
		}
		dirtyPaths, dirtyError := repositoryNode.Backend.DirtyPaths(executionContext)
		if dirtyError != nil {
			return nil, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: statusInspectionReasonConstant, Cause: dirtyError}
		}
		rebaseInProgress, rebaseError := repositoryNode.Backend.RebaseInProgress(executionContext)
		if rebaseError != nil {
			return nil, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: statusInspectionReasonConstant, Cause: rebaseError}
		}

		statuses = append(statuses, RepositoryStatus{
			Name:             repositoryNode.Name,
			Path:             repositoryNode.Path,
			Depth:            repositoryNode.Depth,
			CurrentBranch:    currentBranch,
			DirtyPaths:       dirtyPaths,
			RebaseInProgress: rebaseInProgress,
		})
	}
	return statuses, nil
}

// Validate checks rebase preconditions across the hierarchy without mutating
// anything: clean working trees, no in-flight rebases, and both branches
// present locally. Findings are returned and shown through the prompt surface.
func (orchestrator *Orchestrator) Validate(executionContext context.Context, rootPath string, branches BranchPair) ([]ValidationIssue, error) {
	rootNode, discoveryError := orchestrator.discoverer.Discover(executionContext, rootPath)
	if discoveryError != nil {
		return nil, discoveryError
	}

	issues := []ValidationIssue{}
	for _, repositoryNode := range hierarchy.RebaseOrder(rootNode) {
		dirtyPaths, dirtyError := repositoryNode.Backend.DirtyPaths(executionContext)
		if dirtyError != nil {
			return nil, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: validationReasonConstant, Cause: dirtyError}
		}
		if len(dirtyPaths) > 0 {
			issues = append(issues, ValidationIssue{
				RepositoryPath: repositoryNode.Path,
				Description:    fmt.Sprintf(dirtyWorkingTreeIssueTemplate, len(dirtyPaths)),
			})
		}

		indexClean, indexError := repositoryNode.Backend.IndexClean(executionContext)
		if indexError != nil {
			return nil, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: validationReasonConstant, Cause: indexError}
		}
		if !indexClean {
			issues = append(issues, ValidationIssue{RepositoryPath: repositoryNode.Path, Description: stagedChangesIssueConstant})
		}

		rebaseInProgress, rebaseError := repositoryNode.Backend.RebaseInProgress(executionContext)
		if rebaseError != nil {
			return nil, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: validationReasonConstant, Cause: rebaseError}
		}
		if rebaseInProgress {
			issues = append(issues, ValidationIssue{RepositoryPath: repositoryNode.Path, Description: rebaseInProgressIssueConstant})
		}

		sourceExists, sourceError := repositoryNode.Backend.BranchExists(executionContext, branches.Source)
		if sourceError != nil {
			return nil, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: validationReasonConstant, Cause: sourceError}
		}
		if !sourceExists {
			issues = append(issues, ValidationIssue{
				RepositoryPath: repositoryNode.Path,
				Description:    fmt.Sprintf(missingSourceBranchIssueTemplate, branches.Source),
			})
		}

		targetExists, targetError := repositoryNode.Backend.BranchExists(executionContext, branches.Target)
		if targetError != nil {
			return nil, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: validationReasonConstant, Cause: targetError}
		}
		if !targetExists {
			issues = append(issues, ValidationIssue{
				RepositoryPath: repositoryNode.Path,
				Description:    fmt.Sprintf(missingTargetBranchIssueTemplate, branches.Target),
			})
		}
	}

	orchestrator.userPrompt.ShowValidationSummary(issues)
	return issues, nil
}

// PushRebasedBranches offers to force-push every completed repository's
// rewritten source branch. Each push is confirmed individually and a declined
// confirmation skips that repository without failing the pass.
func (orchestrator *Orchestrator) PushRebasedBranches(executionContext context.Context, operation *RebaseOperation) error {
	for _, repositoryState := range operation.States {
		if !repositoryState.Completed {
			continue
		}

		confirmed, promptError := orchestrator.userPrompt.ConfirmForcePush(repositoryState.Node.Path, repositoryState.SourceBranch, orchestrator.remoteName)
		if promptError != nil {
			return ExecutionError{RepositoryPath: repositoryState.Node.Path, Reason: branchPushReasonConstant, Cause: promptError}
		}
		if !confirmed {
			orchestrator.logger.Info(forcePushDeclinedMessageConstant,
				zap.String(repositoryPathLogFieldConstant, repositoryState.Node.Path),
				zap.String(branchNameLogFieldConstant, repositoryState.SourceBranch),
			)
			continue
		}

		if pushError := repositoryState.Node.Backend.PushBranch(executionContext, orchestrator.remoteName, repositoryState.SourceBranch, true); pushError != nil {
			return ExecutionError{RepositoryPath: repositoryState.Node.Path, Reason: branchPushReasonConstant, Cause: pushError}
		}
		orchestrator.logger.Info(branchPushedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryState.Node.Path),
			zap.String(branchNameLogFieldConstant, repositoryState.SourceBranch),
			zap.String(remoteNameLogFieldConstant, orchestrator.remoteName),
		)
	}
	return nil
}

func findNodeByPath(rootNode *hierarchy.RepositoryNode, repositoryPath string) *hierarchy.RepositoryNode {
	if rootNode.Path == repositoryPath {
		return rootNode
	}
	for _, childNode := range rootNode.Children {
		if foundNode := findNodeByPath(childNode, repositoryPath); foundNode != nil {
			return foundNode
		}
	}
	return nil
}
