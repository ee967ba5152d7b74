package rebase

import (
	"context"

	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/conflict"
)

const (
	sourceCheckoutReasonConstant       = "source branch checkout"
	rebaseStartReasonConstant          = "rebase start"
	rebaseContinueReasonConstant       = "rebase continue"
	conflictResolutionReasonConstant   = "conflict resolution"
	rebasedCommitListingReason         = "rebased commit listing"
	repositoryRebasedMessageConstant   = "Repository rebased"
	operationAbortedMessageConstant    = "Operation aborted by operator"
	rebaseStalledMessageLogConstant    = "Rebase stopped without conflicted paths; aborting repository"
	cleanupAbortFailedMessageConstant  = "Failed to abort in-progress rebase during cleanup"
	cleanupAbortedRebaseMessage        = "Aborted in-progress rebase during cleanup"
	mappedCommitCountLogFieldConstant  = "mapped_commit_count"
	rebasedCommitCountLogFieldConstant = "rebased_commit_count"
)

// Execute runs the planned operation in rebase order: backups first, then one
// repository at a time through checkout, rebase, conflict resolution, and
// commit mapping. It reports true when every repository completed. An
// operator abort during conflict resolution returns false without an error;
// any other failure aborts in-progress rebases everywhere before returning,
// leaving completed repositories' rewritten history and backups intact.
func (orchestrator *Orchestrator) Execute(executionContext context.Context, operation *RebaseOperation) (bool, error) {
	if backupError := orchestrator.CreateBackups(executionContext, operation); backupError != nil {
		return false, backupError
	}

	for _, repositoryState := range operation.States {
		repositoryCompleted, executionError := orchestrator.executeRepository(executionContext, repositoryState)
		if executionError != nil {
			orchestrator.abortInProgressRebases(executionContext, operation)
			return false, executionError
		}
		if !repositoryCompleted {
			orchestrator.logger.Warn(operationAbortedMessageConstant,
				zap.String(repositoryPathLogFieldConstant, repositoryState.Node.Path),
			)
			orchestrator.abortInProgressRebases(executionContext, operation)
			return false, nil
		}
	}
	return true, nil
}

func (orchestrator *Orchestrator) executeRepository(executionContext context.Context, repositoryState *RepoState) (bool, error) {
	nodeBackend := repositoryState.Node.Backend
	repositoryPath := repositoryState.Node.Path

	if checkoutError := nodeBackend.CheckoutBranch(executionContext, repositoryState.SourceBranch); checkoutError != nil {
		return false, ExecutionError{RepositoryPath: repositoryPath, Reason: sourceCheckoutReasonConstant, Cause: checkoutError}
	}

	rebaseCompleted, startError := nodeBackend.StartRebase(executionContext, repositoryState.TargetBranch)
	if startError != nil {
		return false, ExecutionError{RepositoryPath: repositoryPath, Reason: rebaseStartReasonConstant, Cause: startError}
	}

	for !rebaseCompleted {
		repositoryState.HadConflicts = true

		resolutionSummary, resolutionError := repositoryState.Node.Resolver.Resolve(executionContext)
		if resolutionError != nil {
			return false, ExecutionError{RepositoryPath: repositoryPath, Reason: conflictResolutionReasonConstant, Cause: resolutionError}
		}
		if resolutionSummary.State == conflict.StateAborted {
			return false, nil
		}
		if resolutionSummary.State == conflict.StateNoConflict {
			// The rebase stopped but nothing is conflicted, so another
			// continue attempt would stop the same way. Fail the repository
			// instead of retrying forever.
			orchestrator.logger.Error(rebaseStalledMessageLogConstant,
				zap.String(repositoryPathLogFieldConstant, repositoryPath),
			)
			return false, ExecutionError{RepositoryPath: repositoryPath, Reason: rebaseContinueReasonConstant, Cause: ErrRebaseStalled}
		}

		var continueError error
		rebaseCompleted, continueError = nodeBackend.ContinueRebase(executionContext)
		if continueError != nil {
			return false, ExecutionError{RepositoryPath: repositoryPath, Reason: rebaseContinueReasonConstant, Cause: continueError}
		}
	}

	rebasedCommits, listingError := nodeBackend.CommitsBetween(executionContext, repositoryState.TargetBranch, repositoryState.SourceBranch)
	if listingError != nil {
		return false, ExecutionError{RepositoryPath: repositoryPath, Reason: rebasedCommitListingReason, Cause: listingError}
	}
	repositoryState.RebasedCommits = rebasedCommits

	repositoryTracker := orchestrator.globalTracker.GetTracker(trackerRepositoryName(repositoryState.Node))
	commitMappings := repositoryTracker.MapCommits(repositoryState.OriginalCommits, rebasedCommits)
	for _, commitMapping := range commitMappings {
		repositoryState.HashMapping[commitMapping.OldHash] = commitMapping.NewHash
	}
	repositoryState.Completed = true

	orchestrator.logger.Info(repositoryRebasedMessageConstant,
		zap.String(repositoryPathLogFieldConstant, repositoryPath),
		zap.Int(rebasedCommitCountLogFieldConstant, len(rebasedCommits)),
		zap.Int(mappedCommitCountLogFieldConstant, len(commitMappings)),
	)
	return true, nil
}

// abortInProgressRebases is best-effort cleanup: every repository touched by
// the operation gets any in-flight rebase aborted, and abort failures are
// logged rather than raised so the original outcome is what the caller sees.
func (orchestrator *Orchestrator) abortInProgressRebases(executionContext context.Context, operation *RebaseOperation) {
	for _, repositoryState := range operation.States {
		rebaseInProgress, inspectionError := repositoryState.Node.Backend.RebaseInProgress(executionContext)
		if inspectionError != nil || !rebaseInProgress {
			continue
		}
		if abortError := repositoryState.Node.Backend.AbortRebase(executionContext); abortError != nil {
			orchestrator.logger.Error(cleanupAbortFailedMessageConstant,
				zap.String(repositoryPathLogFieldConstant, repositoryState.Node.Path),
				zap.Error(abortError),
			)
			continue
		}
		orchestrator.logger.Info(cleanupAbortedRebaseMessage,
			zap.String(repositoryPathLogFieldConstant, repositoryState.Node.Path),
		)
	}
}
