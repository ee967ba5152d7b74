package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/execshell"
)

const (
	revParseSubcommandConstant       = "rev-parse"
	forEachRefSubcommandConstant     = "for-each-ref"
	checkoutSubcommandConstant       = "checkout"
	branchSubcommandConstant         = "branch"
	logSubcommandConstant            = "log"
	rebaseSubcommandConstant         = "rebase"
	diffSubcommandConstant           = "diff"
	statusSubcommandConstant         = "status"
	addSubcommandConstant            = "add"
	lsFilesSubcommandConstant        = "ls-files"
	lsTreeSubcommandConstant         = "ls-tree"
	fetchSubcommandConstant          = "fetch"
	remoteSubcommandConstant         = "remote"
	revListSubcommandConstant        = "rev-list"
	mergeSubcommandConstant          = "merge"
	pushSubcommandConstant           = "push"
	resetSubcommandConstant          = "reset"
	hardFlagConstant                 = "--hard"
	verifyFlagConstant               = "--verify"
	quietFlagConstant                = "--quiet"
	abbrevRefFlagConstant            = "--abbrev-ref"
	shortFlagConstant                = "--short"
	gitPathFlagConstant              = "--git-path"
	forceFlagConstant                = "--force"
	deleteFlagConstant               = "--delete"
	trackFlagConstant                = "--track"
	continueFlagConstant             = "--continue"
	abortFlagConstant                = "--abort"
	nameOnlyFlagConstant             = "--name-only"
	cachedFlagConstant               = "--cached"
	porcelainFlagConstant            = "--porcelain"
	diffFilterUnmergedFlagConstant   = "--diff-filter=U"
	unmergedFlagConstant             = "-u"
	pruneFlagConstant                = "--prune"
	leftRightCountFlagConstant       = "--left-right"
	countFlagConstant                = "--count"
	ffOnlyFlagConstant               = "--ff-only"
	forceWithLeaseFlagConstant       = "--force-with-lease"
	pointsAtFlagConstant             = "--points-at"
	containsFlagConstant             = "--contains"
	maxCountFlagConstant             = "--max-count"
	pathspecSeparatorConstant        = "--"
	headReferenceConstant            = "HEAD"
	localBranchRefPrefixConstant     = "refs/heads/"
	remoteBranchRefPrefixConstant    = "refs/remotes/"
	localBranchRefNamespaceConstant  = "refs/heads"
	remoteBranchRefNamespaceConstant = "refs/remotes"
	refNameFormatFlagConstant        = "--format=%(refname:short)\t%(symref)"
	commitLogFormatFlagConstant      = "--format=%H%x1f%an%x1f%ae%x1f%aI%x1f%P%x1f%B%x1e"
	subjectFormatFlagConstant        = "--format=%s"
	singleCommitFlagConstant         = "-1"
	rebaseMergeGitPathConstant       = "rebase-merge"
	rebaseApplyGitPathConstant       = "rebase-apply"
	gitEditorEnvironmentKeyConstant  = "GIT_EDITOR"
	trueCommandConstant              = "true"
	remoteBranchRefTemplateConstant  = "%s/%s"
	symmetricRangeTemplateConstant   = "%s...%s/%s"
	commitRangeTemplateConstant      = "%s..%s"
	logFieldSeparatorConstant        = "\x1f"
	logRecordSeparatorConstant       = "\x1e"
	aheadBehindFieldCountConstant    = 2
	unmergedEntryFieldCountConstant  = 3
	lsTreeFieldCountConstant         = 3
	commitLogFieldCountConstant      = 6
	gitlinkObjectModeConstant        = "160000"
)

const (
	operationBranchExistsConstant        = "branch lookup"
	operationListBranchesConstant        = "branch listing"
	operationCurrentBranchConstant       = "current branch lookup"
	operationCheckoutConstant            = "checkout"
	operationBranchUpdateConstant        = "branch update"
	operationBranchDeleteConstant        = "branch deletion"
	operationBranchTrackConstant         = "tracking branch creation"
	operationCommitLogConstant           = "commit log"
	operationCommitSubjectConstant       = "commit subject lookup"
	operationRefResolutionConstant       = "reference resolution"
	operationBranchesPointingAtConstant  = "branch tip lookup"
	operationBranchesContainingConstant  = "containing branch lookup"
	operationRebaseConstant              = "rebase"
	operationRebaseStateConstant         = "rebase state inspection"
	operationConflictedPathsConstant     = "conflicted path listing"
	operationUnmergedEntriesConstant     = "unmerged entry listing"
	operationStagePathsConstant          = "staging"
	operationStagedFilesConstant         = "staged file listing"
	operationWorktreeStatusConstant      = "worktree status"
	operationSubmodulePointerConstant    = "submodule pointer lookup"
	operationFetchConstant               = "fetch"
	operationRemoteListingConstant       = "remote listing"
	operationAheadBehindConstant         = "ahead-behind counting"
	operationFastForwardConstant         = "fast-forward"
	operationPushConstant                = "push"
	operationHardResetConstant           = "hard reset"
	aheadBehindOutputFormatMessage       = "unexpected rev-list --count output: %q"
	commitLogRecordFormatMessageConstant = "unexpected commit log record: %q"
	unmergedEntryFormatMessageConstant   = "unexpected ls-files -u line: %q"
	noPathsToStageMessageConstant        = "no paths provided for staging"
)

// Manager drives git operations for a single repository working tree.
type Manager struct {
	repositoryPath string
	executor       CommandExecutor
	logger         *zap.Logger
}

// NewManager validates collaborators and constructs a repository manager.
func NewManager(repositoryPath string, executor CommandExecutor, logger *zap.Logger) (*Manager, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return nil, ErrRepositoryPathNotConfigured
	}
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		repositoryPath: trimmedRepositoryPath,
		executor:       executor,
		logger:         logger,
	}, nil
}

// RepositoryPath returns the working tree path this manager is bound to.
func (manager *Manager) RepositoryPath() string {
	return manager.repositoryPath
}

func (manager *Manager) runGit(executionContext context.Context, operation string, arguments ...string) (execshell.ExecutionResult, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: manager.repositoryPath,
	})
	if executionError != nil {
		return execshell.ExecutionResult{}, OperationError{RepositoryPath: manager.repositoryPath, Operation: operation, Cause: executionError}
	}
	return executionResult, nil
}

// runGitAllowFailure treats a non-zero exit code as a reportable outcome instead of an error.
func (manager *Manager) runGitAllowFailure(executionContext context.Context, operation string, arguments ...string) (execshell.ExecutionResult, bool, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: manager.repositoryPath,
	})
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			return commandFailure.Result, false, nil
		}
		return execshell.ExecutionResult{}, false, OperationError{RepositoryPath: manager.repositoryPath, Operation: operation, Cause: executionError}
	}
	return executionResult, true, nil
}

// BranchExists reports whether a local branch with the supplied name exists.
func (manager *Manager) BranchExists(executionContext context.Context, branchName string) (bool, error) {
	_, succeeded, inspectionError := manager.runGitAllowFailure(executionContext, operationBranchExistsConstant,
		revParseSubcommandConstant, verifyFlagConstant, quietFlagConstant, localBranchRefPrefixConstant+branchName)
	return succeeded, inspectionError
}

// RemoteBranchExists reports whether the remote-tracking ref for the branch exists.
func (manager *Manager) RemoteBranchExists(executionContext context.Context, remoteName string, branchName string) (bool, error) {
	remoteReference := remoteBranchRefPrefixConstant + fmt.Sprintf(remoteBranchRefTemplateConstant, remoteName, branchName)
	_, succeeded, inspectionError := manager.runGitAllowFailure(executionContext, operationBranchExistsConstant,
		revParseSubcommandConstant, verifyFlagConstant, quietFlagConstant, remoteReference)
	return succeeded, inspectionError
}

// ListLocalBranches returns the short names of all local branches.
func (manager *Manager) ListLocalBranches(executionContext context.Context) ([]string, error) {
	executionResult, listingError := manager.runGit(executionContext, operationListBranchesConstant,
		forEachRefSubcommandConstant, refNameFormatFlagConstant, localBranchRefNamespaceConstant)
	if listingError != nil {
		return nil, listingError
	}
	return parseRefListing(executionResult.StandardOutput), nil
}

// ListRemoteBranches returns the branch names on the remote, excluding symbolic refs.
func (manager *Manager) ListRemoteBranches(executionContext context.Context, remoteName string) ([]string, error) {
	executionResult, listingError := manager.runGit(executionContext, operationListBranchesConstant,
		forEachRefSubcommandConstant, refNameFormatFlagConstant, remoteBranchRefNamespaceConstant+"/"+remoteName)
	if listingError != nil {
		return nil, listingError
	}

	remotePrefix := remoteName + "/"
	branchNames := []string{}
	for _, refName := range parseRefListing(executionResult.StandardOutput) {
		branchNames = append(branchNames, strings.TrimPrefix(refName, remotePrefix))
	}
	return branchNames, nil
}

// CurrentBranch returns the checked-out branch name, or an empty string for a detached HEAD.
func (manager *Manager) CurrentBranch(executionContext context.Context) (string, error) {
	executionResult, lookupError := manager.runGit(executionContext, operationCurrentBranchConstant,
		revParseSubcommandConstant, abbrevRefFlagConstant, headReferenceConstant)
	if lookupError != nil {
		return "", lookupError
	}

	branchName := strings.TrimSpace(executionResult.StandardOutput)
	if strings.EqualFold(branchName, headReferenceConstant) {
		return "", nil
	}
	return branchName, nil
}

// CheckoutBranch switches the working tree to the supplied branch.
func (manager *Manager) CheckoutBranch(executionContext context.Context, branchName string) error {
	_, checkoutError := manager.runGit(executionContext, operationCheckoutConstant, checkoutSubcommandConstant, branchName)
	return checkoutError
}

// CheckoutCommit detaches the working tree at the supplied commit.
func (manager *Manager) CheckoutCommit(executionContext context.Context, commitHash string) error {
	_, checkoutError := manager.runGit(executionContext, operationCheckoutConstant, checkoutSubcommandConstant, commitHash)
	return checkoutError
}

// CreateOrUpdateBranch forces the branch to point at the supplied start point.
func (manager *Manager) CreateOrUpdateBranch(executionContext context.Context, branchName string, startPoint string) error {
	_, updateError := manager.runGit(executionContext, operationBranchUpdateConstant,
		branchSubcommandConstant, forceFlagConstant, branchName, startPoint)
	return updateError
}

// HardResetTo resets the current branch and working tree to the supplied reference.
func (manager *Manager) HardResetTo(executionContext context.Context, reference string) error {
	_, resetError := manager.runGit(executionContext, operationHardResetConstant,
		resetSubcommandConstant, hardFlagConstant, reference)
	return resetError
}

// DeleteBranch removes a local branch, optionally forcing deletion of unmerged branches.
func (manager *Manager) DeleteBranch(executionContext context.Context, branchName string, force bool) error {
	arguments := []string{branchSubcommandConstant, deleteFlagConstant}
	if force {
		arguments = append(arguments, forceFlagConstant)
	}
	arguments = append(arguments, branchName)
	_, deletionError := manager.runGit(executionContext, operationBranchDeleteConstant, arguments...)
	return deletionError
}

// CreateLocalBranchFromRemote creates a local tracking branch from the remote counterpart.
func (manager *Manager) CreateLocalBranchFromRemote(executionContext context.Context, branchName string, remoteName string) error {
	remoteReference := fmt.Sprintf(remoteBranchRefTemplateConstant, remoteName, branchName)
	_, creationError := manager.runGit(executionContext, operationBranchTrackConstant,
		branchSubcommandConstant, trackFlagConstant, branchName, remoteReference)
	return creationError
}

// CommitsBetween returns the commits reachable from headRef but not baseRef, newest first.
func (manager *Manager) CommitsBetween(executionContext context.Context, baseRef string, headRef string) ([]CommitInfo, error) {
	commitRange := fmt.Sprintf(commitRangeTemplateConstant, baseRef, headRef)
	executionResult, logError := manager.runGit(executionContext, operationCommitLogConstant,
		logSubcommandConstant, commitLogFormatFlagConstant, commitRange)
	if logError != nil {
		return nil, logError
	}
	return manager.parseCommitLog(executionResult.StandardOutput)
}

// RecentCommits returns up to limit commits reachable from the reference, newest first.
func (manager *Manager) RecentCommits(executionContext context.Context, reference string, limit int) ([]CommitInfo, error) {
	executionResult, logError := manager.runGit(executionContext, operationCommitLogConstant,
		logSubcommandConstant, commitLogFormatFlagConstant, fmt.Sprintf("%s=%d", maxCountFlagConstant, limit), reference)
	if logError != nil {
		return nil, logError
	}
	return manager.parseCommitLog(executionResult.StandardOutput)
}

// CommitSubject returns the first line of the commit message for the reference.
func (manager *Manager) CommitSubject(executionContext context.Context, reference string) (string, error) {
	executionResult, lookupError := manager.runGit(executionContext, operationCommitSubjectConstant,
		logSubcommandConstant, singleCommitFlagConstant, subjectFormatFlagConstant, reference)
	if lookupError != nil {
		return "", lookupError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ShortHashForRef resolves the reference to an abbreviated commit hash.
func (manager *Manager) ShortHashForRef(executionContext context.Context, reference string) (string, error) {
	executionResult, resolutionError := manager.runGit(executionContext, operationRefResolutionConstant,
		revParseSubcommandConstant, shortFlagConstant, reference)
	if resolutionError != nil {
		return "", resolutionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ResolveRef resolves the reference to a full commit hash.
func (manager *Manager) ResolveRef(executionContext context.Context, reference string) (string, error) {
	executionResult, resolutionError := manager.runGit(executionContext, operationRefResolutionConstant,
		revParseSubcommandConstant, verifyFlagConstant, reference)
	if resolutionError != nil {
		return "", resolutionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// BranchesPointingAt lists the local and remote branches whose tips equal the commit.
func (manager *Manager) BranchesPointingAt(executionContext context.Context, commitHash string) (BranchTips, error) {
	localResult, localError := manager.runGit(executionContext, operationBranchesPointingAtConstant,
		forEachRefSubcommandConstant, pointsAtFlagConstant, commitHash, refNameFormatFlagConstant, localBranchRefNamespaceConstant)
	if localError != nil {
		return BranchTips{}, localError
	}

	remoteResult, remoteError := manager.runGit(executionContext, operationBranchesPointingAtConstant,
		forEachRefSubcommandConstant, pointsAtFlagConstant, commitHash, refNameFormatFlagConstant, remoteBranchRefNamespaceConstant)
	if remoteError != nil {
		return BranchTips{}, remoteError
	}

	return BranchTips{
		LocalBranches:  parseRefListing(localResult.StandardOutput),
		RemoteBranches: parseRefListing(remoteResult.StandardOutput),
	}, nil
}

// BranchesContainingCommit lists the local branches whose history includes the commit.
func (manager *Manager) BranchesContainingCommit(executionContext context.Context, commitHash string) ([]string, error) {
	executionResult, listingError := manager.runGit(executionContext, operationBranchesContainingConstant,
		forEachRefSubcommandConstant, containsFlagConstant, commitHash, refNameFormatFlagConstant, localBranchRefNamespaceConstant)
	if listingError != nil {
		return nil, listingError
	}
	return parseRefListing(executionResult.StandardOutput), nil
}

// StartRebase rebases the current branch onto the target reference.
// It returns true when the rebase completed and false when it stopped on conflicts.
func (manager *Manager) StartRebase(executionContext context.Context, targetRef string) (bool, error) {
	_, completed, rebaseError := manager.runGitAllowFailure(executionContext, operationRebaseConstant,
		rebaseSubcommandConstant, targetRef)
	return completed, rebaseError
}

// ContinueRebase resumes a stopped rebase after conflict resolution.
// It returns true when the rebase completed and false when it stopped again.
func (manager *Manager) ContinueRebase(executionContext context.Context) (bool, error) {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{rebaseSubcommandConstant, continueFlagConstant},
		WorkingDirectory:     manager.repositoryPath,
		EnvironmentVariables: map[string]string{gitEditorEnvironmentKeyConstant: trueCommandConstant},
	})
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			return false, nil
		}
		return false, OperationError{RepositoryPath: manager.repositoryPath, Operation: operationRebaseConstant, Cause: executionError}
	}
	return true, nil
}

// AbortRebase abandons an in-progress rebase and restores the pre-rebase state.
func (manager *Manager) AbortRebase(executionContext context.Context) error {
	_, abortError := manager.runGit(executionContext, operationRebaseConstant, rebaseSubcommandConstant, abortFlagConstant)
	return abortError
}

// RebaseInProgress reports whether the repository has a stopped or running rebase.
func (manager *Manager) RebaseInProgress(executionContext context.Context) (bool, error) {
	executionResult, inspectionError := manager.runGit(executionContext, operationRebaseStateConstant,
		revParseSubcommandConstant, gitPathFlagConstant, rebaseMergeGitPathConstant, gitPathFlagConstant, rebaseApplyGitPathConstant)
	if inspectionError != nil {
		return false, inspectionError
	}

	for _, rebaseStatePath := range splitNonEmptyLines(executionResult.StandardOutput) {
		resolvedStatePath := rebaseStatePath
		if !filepath.IsAbs(resolvedStatePath) {
			resolvedStatePath = filepath.Join(manager.repositoryPath, resolvedStatePath)
		}
		if _, statError := os.Stat(resolvedStatePath); statError == nil {
			return true, nil
		}
	}
	return false, nil
}

// ConflictedPaths returns the working tree paths currently in an unmerged state.
func (manager *Manager) ConflictedPaths(executionContext context.Context) ([]string, error) {
	executionResult, listingError := manager.runGit(executionContext, operationConflictedPathsConstant,
		diffSubcommandConstant, nameOnlyFlagConstant, diffFilterUnmergedFlagConstant)
	if listingError != nil {
		return nil, listingError
	}
	return splitNonEmptyLines(executionResult.StandardOutput), nil
}

// UnmergedEntries returns every stage of every unmerged index entry.
func (manager *Manager) UnmergedEntries(executionContext context.Context) ([]UnmergedEntry, error) {
	executionResult, listingError := manager.runGit(executionContext, operationUnmergedEntriesConstant,
		lsFilesSubcommandConstant, unmergedFlagConstant)
	if listingError != nil {
		return nil, listingError
	}

	entries := []UnmergedEntry{}
	for _, outputLine := range splitNonEmptyLines(executionResult.StandardOutput) {
		metadataAndPath := strings.SplitN(outputLine, "\t", 2)
		if len(metadataAndPath) != 2 {
			return nil, OperationError{
				RepositoryPath: manager.repositoryPath,
				Operation:      operationUnmergedEntriesConstant,
				Cause:          fmt.Errorf(unmergedEntryFormatMessageConstant, outputLine),
			}
		}

		metadataFields := strings.Fields(metadataAndPath[0])
		if len(metadataFields) != unmergedEntryFieldCountConstant {
			return nil, OperationError{
				RepositoryPath: manager.repositoryPath,
				Operation:      operationUnmergedEntriesConstant,
				Cause:          fmt.Errorf(unmergedEntryFormatMessageConstant, outputLine),
			}
		}

		stageNumber, stageParseError := strconv.Atoi(metadataFields[2])
		if stageParseError != nil {
			return nil, OperationError{
				RepositoryPath: manager.repositoryPath,
				Operation:      operationUnmergedEntriesConstant,
				Cause:          fmt.Errorf(unmergedEntryFormatMessageConstant, outputLine),
			}
		}

		entries = append(entries, UnmergedEntry{
			Path:  metadataAndPath[1],
			Stage: stageNumber,
			Hash:  metadataFields[1],
			Mode:  metadataFields[0],
		})
	}
	return entries, nil
}

// StagePaths adds the supplied paths to the index.
func (manager *Manager) StagePaths(executionContext context.Context, paths []string) error {
	if len(paths) == 0 {
		return OperationError{
			RepositoryPath: manager.repositoryPath,
			Operation:      operationStagePathsConstant,
			Cause:          errors.New(noPathsToStageMessageConstant),
		}
	}

	arguments := append([]string{addSubcommandConstant, pathspecSeparatorConstant}, paths...)
	_, stagingError := manager.runGit(executionContext, operationStagePathsConstant, arguments...)
	return stagingError
}

// StagedFiles returns the paths currently staged in the index.
func (manager *Manager) StagedFiles(executionContext context.Context) ([]string, error) {
	executionResult, listingError := manager.runGit(executionContext, operationStagedFilesConstant,
		diffSubcommandConstant, cachedFlagConstant, nameOnlyFlagConstant)
	if listingError != nil {
		return nil, listingError
	}
	return splitNonEmptyLines(executionResult.StandardOutput), nil
}

// HasUnstagedChanges reports whether the working tree differs from the index.
func (manager *Manager) HasUnstagedChanges(executionContext context.Context) (bool, error) {
	_, clean, inspectionError := manager.runGitAllowFailure(executionContext, operationWorktreeStatusConstant,
		diffSubcommandConstant, quietFlagConstant)
	if inspectionError != nil {
		return false, inspectionError
	}
	return !clean, nil
}

// IndexClean reports whether the index matches HEAD.
func (manager *Manager) IndexClean(executionContext context.Context) (bool, error) {
	_, clean, inspectionError := manager.runGitAllowFailure(executionContext, operationWorktreeStatusConstant,
		diffSubcommandConstant, cachedFlagConstant, quietFlagConstant, headReferenceConstant)
	if inspectionError != nil {
		return false, inspectionError
	}
	return clean, nil
}

// DirtyPaths returns every path reported by the porcelain status, staged or not.
func (manager *Manager) DirtyPaths(executionContext context.Context) ([]string, error) {
	executionResult, statusError := manager.runGit(executionContext, operationWorktreeStatusConstant,
		statusSubcommandConstant, porcelainFlagConstant)
	if statusError != nil {
		return nil, statusError
	}

	dirtyPaths := []string{}
	for _, statusLine := range splitNonEmptyLines(executionResult.StandardOutput) {
		if len(statusLine) <= 3 {
			continue
		}
		dirtyPaths = append(dirtyPaths, strings.TrimSpace(statusLine[3:]))
	}
	return dirtyPaths, nil
}

// SubmodulePointerAt returns the gitlink commit recorded for the submodule path at the
// reference, or an empty string when the path is absent from the tree.
func (manager *Manager) SubmodulePointerAt(executionContext context.Context, reference string, submodulePath string) (string, error) {
	executionResult, exists, lookupError := manager.runGitAllowFailure(executionContext, operationSubmodulePointerConstant,
		lsTreeSubcommandConstant, reference, pathspecSeparatorConstant, submodulePath)
	if lookupError != nil {
		return "", lookupError
	}
	if !exists {
		return "", nil
	}

	for _, outputLine := range splitNonEmptyLines(executionResult.StandardOutput) {
		metadataAndPath := strings.SplitN(outputLine, "\t", 2)
		if len(metadataAndPath) != 2 {
			continue
		}
		metadataFields := strings.Fields(metadataAndPath[0])
		if len(metadataFields) != lsTreeFieldCountConstant {
			continue
		}
		if metadataFields[0] != gitlinkObjectModeConstant {
			continue
		}
		if metadataAndPath[1] != submodulePath {
			continue
		}
		return metadataFields[2], nil
	}
	return "", nil
}

// SubmoduleChangedBetween reports whether the gitlink pointer for the path differs
// between the two references, treating absence on one side as a change.
func (manager *Manager) SubmoduleChangedBetween(executionContext context.Context, sourceRef string, targetRef string, submodulePath string) (bool, error) {
	sourcePointer, sourceError := manager.SubmodulePointerAt(executionContext, sourceRef, submodulePath)
	if sourceError != nil {
		return false, sourceError
	}
	targetPointer, targetError := manager.SubmodulePointerAt(executionContext, targetRef, submodulePath)
	if targetError != nil {
		return false, targetError
	}
	return sourcePointer != targetPointer, nil
}

// FetchRemote updates remote-tracking refs from the remote, pruning removed branches.
func (manager *Manager) FetchRemote(executionContext context.Context, remoteName string) error {
	_, fetchError := manager.runGit(executionContext, operationFetchConstant,
		fetchSubcommandConstant, pruneFlagConstant, remoteName)
	return fetchError
}

// ListRemotes returns the configured remote names.
func (manager *Manager) ListRemotes(executionContext context.Context) ([]string, error) {
	executionResult, listingError := manager.runGit(executionContext, operationRemoteListingConstant, remoteSubcommandConstant)
	if listingError != nil {
		return nil, listingError
	}
	return splitNonEmptyLines(executionResult.StandardOutput), nil
}

// AheadBehind counts how the local branch diverges from its remote counterpart.
func (manager *Manager) AheadBehind(executionContext context.Context, branchName string, remoteName string) (AheadBehindCounts, error) {
	symmetricRange := fmt.Sprintf(symmetricRangeTemplateConstant, branchName, remoteName, branchName)
	executionResult, countingError := manager.runGit(executionContext, operationAheadBehindConstant,
		revListSubcommandConstant, leftRightCountFlagConstant, countFlagConstant, symmetricRange)
	if countingError != nil {
		return AheadBehindCounts{}, countingError
	}

	countFields := strings.Fields(executionResult.StandardOutput)
	if len(countFields) != aheadBehindFieldCountConstant {
		return AheadBehindCounts{}, OperationError{
			RepositoryPath: manager.repositoryPath,
			Operation:      operationAheadBehindConstant,
			Cause:          fmt.Errorf(aheadBehindOutputFormatMessage, executionResult.StandardOutput),
		}
	}

	aheadCount, aheadParseError := strconv.Atoi(countFields[0])
	if aheadParseError != nil {
		return AheadBehindCounts{}, OperationError{RepositoryPath: manager.repositoryPath, Operation: operationAheadBehindConstant, Cause: aheadParseError}
	}
	behindCount, behindParseError := strconv.Atoi(countFields[1])
	if behindParseError != nil {
		return AheadBehindCounts{}, OperationError{RepositoryPath: manager.repositoryPath, Operation: operationAheadBehindConstant, Cause: behindParseError}
	}

	return AheadBehindCounts{Ahead: aheadCount, Behind: behindCount}, nil
}

// FastForwardToRemote advances the local branch to its remote counterpart.
// The checked-out branch is merged with --ff-only; other branches are repointed directly.
func (manager *Manager) FastForwardToRemote(executionContext context.Context, branchName string, remoteName string) error {
	remoteReference := fmt.Sprintf(remoteBranchRefTemplateConstant, remoteName, branchName)

	currentBranch, currentBranchError := manager.CurrentBranch(executionContext)
	if currentBranchError != nil {
		return currentBranchError
	}

	if currentBranch == branchName {
		_, mergeError := manager.runGit(executionContext, operationFastForwardConstant,
			mergeSubcommandConstant, ffOnlyFlagConstant, remoteReference)
		return mergeError
	}

	return manager.CreateOrUpdateBranch(executionContext, branchName, remoteReference)
}

// PushBranch pushes the branch to the remote, optionally with --force-with-lease.
func (manager *Manager) PushBranch(executionContext context.Context, remoteName string, branchName string, forceWithLease bool) error {
	arguments := []string{pushSubcommandConstant}
	if forceWithLease {
		arguments = append(arguments, forceWithLeaseFlagConstant)
	}
	arguments = append(arguments, remoteName, branchName)
	_, pushError := manager.runGit(executionContext, operationPushConstant, arguments...)
	return pushError
}

func (manager *Manager) parseCommitLog(logOutput string) ([]CommitInfo, error) {
	commits := []CommitInfo{}
	for _, rawRecord := range strings.Split(logOutput, logRecordSeparatorConstant) {
		commitRecord := strings.TrimLeft(rawRecord, "\n")
		if len(strings.TrimSpace(commitRecord)) == 0 {
			continue
		}

		recordFields := strings.SplitN(commitRecord, logFieldSeparatorConstant, commitLogFieldCountConstant)
		if len(recordFields) != commitLogFieldCountConstant {
			return nil, OperationError{
				RepositoryPath: manager.repositoryPath,
				Operation:      operationCommitLogConstant,
				Cause:          fmt.Errorf(commitLogRecordFormatMessageConstant, commitRecord),
			}
		}

		commitDate, dateParseError := time.Parse(time.RFC3339, recordFields[3])
		if dateParseError != nil {
			return nil, OperationError{RepositoryPath: manager.repositoryPath, Operation: operationCommitLogConstant, Cause: dateParseError}
		}

		commits = append(commits, CommitInfo{
			Hash:        recordFields[0],
			Author:      recordFields[1],
			AuthorEmail: recordFields[2],
			Date:        commitDate,
			Parents:     strings.Fields(recordFields[4]),
			Message:     strings.TrimSpace(recordFields[5]),
		})
	}
	return commits, nil
}

func parseRefListing(listingOutput string) []string {
	refNames := []string{}
	for _, outputLine := range splitNonEmptyLines(listingOutput) {
		nameAndSymref := strings.SplitN(outputLine, "\t", 2)
		if len(nameAndSymref) == 2 && len(strings.TrimSpace(nameAndSymref[1])) > 0 {
			continue
		}
		refNames = append(refNames, strings.TrimSpace(nameAndSymref[0]))
	}
	return refNames
}

func splitNonEmptyLines(commandOutput string) []string {
	outputLines := []string{}
	for _, outputLine := range strings.Split(commandOutput, "\n") {
		trimmedLine := strings.TrimRight(outputLine, "\r")
		if len(strings.TrimSpace(trimmedLine)) == 0 {
			continue
		}
		outputLines = append(outputLines, trimmedLine)
	}
	return outputLines
}
