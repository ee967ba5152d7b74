package rebase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/hierarchy"
)

const (
	branchInspectionReasonConstant    = "branch inspection"
	branchMaterializationReason       = "local branch materialization"
	branchSyncReasonConstant          = "branch synchronization"
	commitListingReasonConstant       = "original commit listing"
	commitListingReasonTemplate       = commitListingReasonConstant + " in %s"
	missingBranchesReasonConstant     = "branches missing from repositories"
	syncPromptReasonConstant          = "branch sync prompt"
	fastForwardSkippedMessageConstant = "Fast-forward skipped: local branch has its own commits"
	proceedingUnsyncedMessageConstant = "Proceeding with unsynced local branch"
	localBranchCreatedMessageConstant = "Created local branch from remote"
	planAssembledMessageConstant      = "Rebase plan assembled"
	aheadLogFieldConstant             = "ahead"
	behindLogFieldConstant            = "behind"
	repositoryCountLogFieldConstant   = "repository_count"
)

// PlanRequest carries the operator's inputs for manual rebase planning.
// Include and Exclude tokens match a repository by short name, by path
// relative to the root, or by absolute path. BranchOverrides are keyed the
// same way; a name key wins over a relative-path key, which wins over an
// absolute-path key.
type PlanRequest struct {
	RootPath            string
	SourceBranch        string
	TargetBranch        string
	Include             []string
	Exclude             []string
	BranchOverrides     map[string]BranchPair
	SuppressSyncPrompts bool
}

// Plan discovers the hierarchy and assembles a rebase operation: filters the
// rebase order by include and exclude tokens, resolves each repository's
// branch pair, validates that both branches are available (materializing or
// syncing from remotes with the operator's consent), and reads the commits to
// be rewritten. Planning mutates nothing beyond operator-approved branch
// materialization and sync.
func (orchestrator *Orchestrator) Plan(executionContext context.Context, request PlanRequest) (*RebaseOperation, error) {
	rootNode, discoveryError := orchestrator.discoverer.Discover(executionContext, request.RootPath)
	if discoveryError != nil {
		return nil, discoveryError
	}
	return orchestrator.planWithTree(executionContext, rootNode, request)
}

func (orchestrator *Orchestrator) planWithTree(executionContext context.Context, rootNode *hierarchy.RepositoryNode, request PlanRequest) (*RebaseOperation, error) {
	selectedNodes, selectionError := selectNodes(hierarchy.RebaseOrder(rootNode), request.Include, request.Exclude)
	if selectionError != nil {
		return nil, selectionError
	}

	branchPairsByPath := map[string]BranchPair{}
	for _, repositoryNode := range selectedNodes {
		branchPairsByPath[repositoryNode.Path] = resolveBranchPair(repositoryNode, request)
	}

	missingBranches := []MissingBranch{}
	for _, repositoryNode := range selectedNodes {
		branchPair := branchPairsByPath[repositoryNode.Path]
		for _, branchName := range []string{branchPair.Source, branchPair.Target} {
			branchMissing, availabilityError := orchestrator.ensureBranchAvailable(executionContext, repositoryNode, branchName, request.SuppressSyncPrompts)
			if availabilityError != nil {
				return nil, availabilityError
			}
			if branchMissing {
				missingBranches = append(missingBranches, MissingBranch{RepositoryPath: repositoryNode.Path, BranchName: branchName})
			}
		}
	}
	if len(missingBranches) > 0 {
		return nil, PlanningError{Reason: missingBranchesReasonConstant, MissingBranches: missingBranches}
	}

	operation := &RebaseOperation{
		RootNode:       rootNode,
		SourceBranch:   request.SourceBranch,
		TargetBranch:   request.TargetBranch,
		BackupBranches: map[string]string{},
	}
	for _, repositoryNode := range selectedNodes {
		branchPair := branchPairsByPath[repositoryNode.Path]
		originalCommits, listingError := repositoryNode.Backend.CommitsBetween(executionContext, branchPair.Target, branchPair.Source)
		if listingError != nil {
			return nil, PlanningError{Reason: fmt.Sprintf(commitListingReasonTemplate, repositoryNode.Path), Cause: listingError}
		}

		operation.States = append(operation.States, &RepoState{
			Node:            repositoryNode,
			SourceBranch:    branchPair.Source,
			TargetBranch:    branchPair.Target,
			OriginalCommits: originalCommits,
			HashMapping:     map[string]string{},
		})
	}

	orchestrator.logger.Info(planAssembledMessageConstant,
		zap.Int(repositoryCountLogFieldConstant, len(operation.States)),
	)
	return operation, nil
}

// selectNodes filters the rebase order by include and exclude token sets.
func selectNodes(orderedNodes []*hierarchy.RepositoryNode, includeTokens []string, excludeTokens []string) ([]*hierarchy.RepositoryNode, error) {
	selectedNodes := orderedNodes
	if len(includeTokens) > 0 {
		includedNodes := []*hierarchy.RepositoryNode{}
		for _, repositoryNode := range orderedNodes {
			if nodeMatchesAnyToken(repositoryNode, includeTokens) {
				includedNodes = append(includedNodes, repositoryNode)
			}
		}
		if len(includedNodes) == 0 {
			return nil, PlanningError{Reason: emptyIncludeSelectionMessageConstant, Cause: ErrEmptyIncludeSelection}
		}
		selectedNodes = includedNodes
	}

	if len(excludeTokens) > 0 {
		remainingNodes := []*hierarchy.RepositoryNode{}
		for _, repositoryNode := range selectedNodes {
			if !nodeMatchesAnyToken(repositoryNode, excludeTokens) {
				remainingNodes = append(remainingNodes, repositoryNode)
			}
		}
		if len(remainingNodes) == 0 {
			return nil, PlanningError{Reason: emptySelectionMessageConstant, Cause: ErrSelectionEmptied}
		}
		selectedNodes = remainingNodes
	}

	return selectedNodes, nil
}

func nodeMatchesAnyToken(repositoryNode *hierarchy.RepositoryNode, tokens []string) bool {
	for _, token := range tokens {
		if token == repositoryNode.Name || token == repositoryNode.RelativePath || token == repositoryNode.Path {
			return true
		}
	}
	return false
}

// resolveBranchPair applies branch overrides keyed by name, then relative
// path, then absolute path, falling back to the operation-wide defaults.
func resolveBranchPair(repositoryNode *hierarchy.RepositoryNode, request PlanRequest) BranchPair {
	for _, overrideKey := range []string{repositoryNode.Name, repositoryNode.RelativePath, repositoryNode.Path} {
		if overrideKey == "" {
			continue
		}
		if overridePair, overrideExists := request.BranchOverrides[overrideKey]; overrideExists {
			resolvedPair := overridePair
			if resolvedPair.Source == "" {
				resolvedPair.Source = request.SourceBranch
			}
			if resolvedPair.Target == "" {
				resolvedPair.Target = request.TargetBranch
			}
			return resolvedPair
		}
	}
	return BranchPair{Source: request.SourceBranch, Target: request.TargetBranch}
}

// ensureBranchAvailable confirms the branch exists locally, offering to
// materialize it from a remote when absent and to reconcile remote divergence
// when present. It reports true when the branch cannot be made available.
func (orchestrator *Orchestrator) ensureBranchAvailable(executionContext context.Context, repositoryNode *hierarchy.RepositoryNode, branchName string, suppressSyncPrompts bool) (bool, error) {
	branchExists, existenceError := repositoryNode.Backend.BranchExists(executionContext, branchName)
	if existenceError != nil {
		return false, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: branchInspectionReasonConstant, Cause: existenceError}
	}

	if branchExists {
		if suppressSyncPrompts {
			return false, nil
		}
		return false, orchestrator.syncBranchWithRemote(executionContext, repositoryNode, branchName)
	}

	remoteName, remoteBranchFound, remoteLookupError := orchestrator.findRemoteWithBranch(executionContext, repositoryNode, branchName)
	if remoteLookupError != nil {
		return false, remoteLookupError
	}
	if !remoteBranchFound {
		return true, nil
	}

	createConfirmed, promptError := orchestrator.userPrompt.ConfirmCreateLocalBranch(repositoryNode.Path, branchName, remoteName)
	if promptError != nil {
		return false, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: syncPromptReasonConstant, Cause: promptError}
	}
	if !createConfirmed {
		return true, nil
	}

	if creationError := repositoryNode.Backend.CreateLocalBranchFromRemote(executionContext, branchName, remoteName); creationError != nil {
		return false, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: branchMaterializationReason, Cause: creationError}
	}
	orchestrator.logger.Info(localBranchCreatedMessageConstant,
		zap.String(repositoryPathLogFieldConstant, repositoryNode.Path),
		zap.String(branchNameLogFieldConstant, branchName),
		zap.String(remoteNameLogFieldConstant, remoteName),
	)
	return false, nil
}

func (orchestrator *Orchestrator) findRemoteWithBranch(executionContext context.Context, repositoryNode *hierarchy.RepositoryNode, branchName string) (string, bool, error) {
	remoteNames, remoteListingError := repositoryNode.Backend.ListRemotes(executionContext)
	if remoteListingError != nil {
		return "", false, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: branchInspectionReasonConstant, Cause: remoteListingError}
	}

	for _, remoteName := range remoteNames {
		remoteBranchExists, remoteCheckError := repositoryNode.Backend.RemoteBranchExists(executionContext, remoteName, branchName)
		if remoteCheckError != nil {
			return "", false, ExecutionError{RepositoryPath: repositoryNode.Path, Reason: branchInspectionReasonConstant, Cause: remoteCheckError}
		}
		if remoteBranchExists {
			return remoteName, true, nil
		}
	}
	return "", false, nil
}

// syncBranchWithRemote reconciles a local branch that is behind its remote
// counterpart. The operator chooses between fast-forwarding, mirroring the
// remote, proceeding unsynced, or aborting the whole planning pass.
func (orchestrator *Orchestrator) syncBranchWithRemote(executionContext context.Context, repositoryNode *hierarchy.RepositoryNode, branchName string) error {
	remoteName, remoteBranchFound, remoteLookupError := orchestrator.findRemoteWithBranch(executionContext, repositoryNode, branchName)
	if remoteLookupError != nil {
		return remoteLookupError
	}
	if !remoteBranchFound {
		return nil
	}

	divergenceCounts, countError := repositoryNode.Backend.AheadBehind(executionContext, branchName, remoteName)
	if countError != nil {
		return ExecutionError{RepositoryPath: repositoryNode.Path, Reason: branchInspectionReasonConstant, Cause: countError}
	}
	if divergenceCounts.Behind == 0 {
		return nil
	}

	syncDecision, promptError := orchestrator.userPrompt.ConfirmSyncBranch(repositoryNode.Path, branchName, divergenceCounts)
	if promptError != nil {
		return ExecutionError{RepositoryPath: repositoryNode.Path, Reason: syncPromptReasonConstant, Cause: promptError}
	}

	switch syncDecision {
	case SyncDecisionFastForward:
		if divergenceCounts.Ahead > 0 {
			orchestrator.logger.Warn(fastForwardSkippedMessageConstant,
				zap.String(repositoryPathLogFieldConstant, repositoryNode.Path),
				zap.String(branchNameLogFieldConstant, branchName),
				zap.Int(aheadLogFieldConstant, divergenceCounts.Ahead),
				zap.Int(behindLogFieldConstant, divergenceCounts.Behind),
			)
			return nil
		}
		if fastForwardError := repositoryNode.Backend.FastForwardToRemote(executionContext, branchName, remoteName); fastForwardError != nil {
			return ExecutionError{RepositoryPath: repositoryNode.Path, Reason: branchSyncReasonConstant, Cause: fastForwardError}
		}
		return nil
	case SyncDecisionUseRemote:
		return orchestrator.mirrorRemoteBranch(executionContext, repositoryNode, branchName, remoteName)
	case SyncDecisionSkip:
		orchestrator.logger.Warn(proceedingUnsyncedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryNode.Path),
			zap.String(branchNameLogFieldConstant, branchName),
		)
		return nil
	default:
		return PlanningError{Reason: planningAbortedMessageConstant, Cause: ErrPlanningAborted}
	}
}

// mirrorRemoteBranch discards local state and points the branch at the remote
// tip, resetting the working tree when the branch is checked out.
func (orchestrator *Orchestrator) mirrorRemoteBranch(executionContext context.Context, repositoryNode *hierarchy.RepositoryNode, branchName string, remoteName string) error {
	remoteRef := remoteName + "/" + branchName

	currentBranch, currentBranchError := repositoryNode.Backend.CurrentBranch(executionContext)
	if currentBranchError != nil {
		return ExecutionError{RepositoryPath: repositoryNode.Path, Reason: branchSyncReasonConstant, Cause: currentBranchError}
	}

	if currentBranch == branchName {
		if resetError := repositoryNode.Backend.HardResetTo(executionContext, remoteRef); resetError != nil {
			return ExecutionError{RepositoryPath: repositoryNode.Path, Reason: branchSyncReasonConstant, Cause: resetError}
		}
		return nil
	}

	if updateError := repositoryNode.Backend.CreateOrUpdateBranch(executionContext, branchName, remoteRef); updateError != nil {
		return ExecutionError{RepositoryPath: repositoryNode.Path, Reason: branchSyncReasonConstant, Cause: updateError}
	}
	return nil
}
