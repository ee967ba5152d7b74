package backup

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/gitrepo"
)

const (
	backendNotConfiguredMessageConstant = "repository backend not configured"
	repositoryPathLogFieldConstant      = "repository_path"
	branchNameLogFieldConstant          = "branch_name"
	backupBranchLogFieldConstant        = "backup_branch"
	sessionLogFieldConstant             = "session"
	backupCreatedMessageConstant        = "Created backup branch"
	backupExistsMessageConstant         = "Backup branch already exists"
	backupRestoredMessageConstant       = "Restored branch from backup"
	backupDeletedMessageConstant        = "Deleted backup branch"
	rebaseAbortedMessageConstant        = "Aborted in-flight rebase before restore"
)

// ErrBackendNotConfigured indicates the manager was constructed without a repository backend.
var ErrBackendNotConfigured = errors.New(backendNotConfiguredMessageConstant)

// Manager creates, lists, restores, and deletes backup branches in one repository.
type Manager struct {
	backend gitrepo.Backend
	logger  *zap.Logger
}

// NewManager validates collaborators and constructs a backup manager.
func NewManager(backend gitrepo.Backend, logger *zap.Logger) (*Manager, error) {
	if backend == nil {
		return nil, ErrBackendNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{backend: backend, logger: logger}, nil
}

// CreateBackup snapshots the branch under the session's backup name.
// Creating the same backup twice within one session is a no-op, so repeated
// backup passes over the same operation stay idempotent.
func (manager *Manager) CreateBackup(executionContext context.Context, originalBranch string, session string) (Entry, error) {
	backupEntry := Entry{
		OriginalBranch: originalBranch,
		Session:        session,
		BranchName:     BackupBranchName(originalBranch, session),
	}

	backupExists, existenceError := manager.backend.BranchExists(executionContext, backupEntry.BranchName)
	if existenceError != nil {
		return Entry{}, existenceError
	}
	if backupExists {
		manager.logger.Debug(backupExistsMessageConstant,
			zap.String(repositoryPathLogFieldConstant, manager.backend.RepositoryPath()),
			zap.String(backupBranchLogFieldConstant, backupEntry.BranchName),
		)
		return backupEntry, nil
	}

	creationError := manager.backend.CreateOrUpdateBranch(executionContext, backupEntry.BranchName, originalBranch)
	if creationError != nil {
		return Entry{}, creationError
	}

	manager.logger.Info(backupCreatedMessageConstant,
		zap.String(repositoryPathLogFieldConstant, manager.backend.RepositoryPath()),
		zap.String(branchNameLogFieldConstant, originalBranch),
		zap.String(backupBranchLogFieldConstant, backupEntry.BranchName),
		zap.String(sessionLogFieldConstant, session),
	)
	return backupEntry, nil
}

// ListBackups returns every backup entry in the repository, ordered by branch name.
func (manager *Manager) ListBackups(executionContext context.Context) ([]Entry, error) {
	localBranches, listingError := manager.backend.ListLocalBranches(executionContext)
	if listingError != nil {
		return nil, listingError
	}

	entries := []Entry{}
	for _, branchName := range localBranches {
		parsedEntry, isBackup := ParseBackupBranchName(branchName)
		if !isBackup {
			continue
		}
		entries = append(entries, parsedEntry)
	}

	sort.Slice(entries, func(firstIndex, secondIndex int) bool {
		return entries[firstIndex].BranchName < entries[secondIndex].BranchName
	})
	return entries, nil
}

// ListBackupsForBranch returns the backup entries for one original branch.
func (manager *Manager) ListBackupsForBranch(executionContext context.Context, originalBranch string) ([]Entry, error) {
	allEntries, listingError := manager.ListBackups(executionContext)
	if listingError != nil {
		return nil, listingError
	}

	matchingEntries := []Entry{}
	for _, candidateEntry := range allEntries {
		if candidateEntry.OriginalBranch == originalBranch {
			matchingEntries = append(matchingEntries, candidateEntry)
		}
	}
	return matchingEntries, nil
}

// LatestBackup returns the entry with the lexicographically greatest session for the branch.
func (manager *Manager) LatestBackup(executionContext context.Context, originalBranch string) (Entry, bool, error) {
	matchingEntries, listingError := manager.ListBackupsForBranch(executionContext, originalBranch)
	if listingError != nil {
		return Entry{}, false, listingError
	}
	if len(matchingEntries) == 0 {
		return Entry{}, false, nil
	}

	latestEntry := matchingEntries[0]
	for _, candidateEntry := range matchingEntries[1:] {
		if candidateEntry.Session > latestEntry.Session {
			latestEntry = candidateEntry
		}
	}
	return latestEntry, true, nil
}

// RestoreFromBackup force-updates the original branch to the backup commit.
// An in-flight rebase is aborted first. When the original branch is checked
// out the working tree is hard-reset so the restore also lands in the worktree.
func (manager *Manager) RestoreFromBackup(executionContext context.Context, backupEntry Entry) error {
	rebaseInProgress, inspectionError := manager.backend.RebaseInProgress(executionContext)
	if inspectionError != nil {
		return inspectionError
	}
	if rebaseInProgress {
		if abortError := manager.backend.AbortRebase(executionContext); abortError != nil {
			return abortError
		}
		manager.logger.Info(rebaseAbortedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, manager.backend.RepositoryPath()),
		)
	}

	currentBranch, currentBranchError := manager.backend.CurrentBranch(executionContext)
	if currentBranchError != nil {
		return currentBranchError
	}

	if currentBranch == backupEntry.OriginalBranch {
		if resetError := manager.backend.HardResetTo(executionContext, backupEntry.BranchName); resetError != nil {
			return resetError
		}
	} else {
		if updateError := manager.backend.CreateOrUpdateBranch(executionContext, backupEntry.OriginalBranch, backupEntry.BranchName); updateError != nil {
			return updateError
		}
	}

	manager.logger.Info(backupRestoredMessageConstant,
		zap.String(repositoryPathLogFieldConstant, manager.backend.RepositoryPath()),
		zap.String(branchNameLogFieldConstant, backupEntry.OriginalBranch),
		zap.String(backupBranchLogFieldConstant, backupEntry.BranchName),
	)
	return nil
}

// DeleteBackup removes the backup branch. Deletion is forced because backup
// branches are not expected to be merged anywhere.
func (manager *Manager) DeleteBackup(executionContext context.Context, backupEntry Entry) error {
	deletionError := manager.backend.DeleteBranch(executionContext, backupEntry.BranchName, true)
	if deletionError != nil {
		return deletionError
	}

	manager.logger.Info(backupDeletedMessageConstant,
		zap.String(repositoryPathLogFieldConstant, manager.backend.RepositoryPath()),
		zap.String(backupBranchLogFieldConstant, backupEntry.BranchName),
	)
	return nil
}
