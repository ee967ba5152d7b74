package conflict

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/gitrepo"
	"github.com/temirov/lockstep/internal/tracker"
)

const (
	conflictListingReasonConstant    = "conflicted path listing"
	classificationReasonConstant     = "conflict classification"
	unmergedInspectionReasonConstant = "unmerged entry inspection"
	submoduleCheckoutReasonConstant  = "submodule commit checkout"
	gitlinkStagingReasonConstant     = "gitlink staging"
	verificationReasonConstant       = "resolution verification"
	promptReasonConstant             = "manual resolution prompt"
	repositoryPathLogFieldConstant   = "repository_path"
	submodulePathLogFieldConstant    = "submodule_path"
	oldHashLogFieldConstant          = "old_hash"
	newHashLogFieldConstant          = "new_hash"
	sourceRepositoryLogFieldConstant = "source_repository"
	stateLogFieldConstant            = "state"
	conflictCountLogFieldConstant    = "conflict_count"
	autoResolvedMessageConstant      = "Auto-resolved gitlink conflict"
	subjectMismatchMessageConstant   = "Resolved gitlink subject differs from the original"
	stateTransitionMessageConstant   = "Conflict resolution state changed"
	conflictsDetectedMessageConstant = "Conflicts detected"
	unmergedPathsGuidanceTemplate    = "%d path(s) are still unmerged"
	nothingStagedGuidanceConstant    = "no changes are staged; stage the resolved paths before continuing"
	unknownPointerGuidanceTemplate   = "submodule %s points at %s, which no tracked repository has rewritten"
	containingBranchesHintTemplate   = "%s; the commit is reachable from: %s"
	fileConflictGuidanceTemplate     = "resolve %s manually and stage it"
	missingBackendGuidanceTemplate   = "submodule %s has no registered working tree; resolve it manually"
)

// Resolver drives the conflict-resolution state machine for one repository's stopped rebase.
type Resolver struct {
	parentBackend     gitrepo.Backend
	globalTracker     *tracker.GlobalTracker
	prompt            Prompt
	logger            *zap.Logger
	submoduleBackends map[string]gitrepo.Backend
	currentState      ResolutionState
}

// NewResolver validates collaborators and constructs a resolver in the no-conflict state.
func NewResolver(parentBackend gitrepo.Backend, globalTracker *tracker.GlobalTracker, prompt Prompt, logger *zap.Logger) (*Resolver, error) {
	if parentBackend == nil {
		return nil, ErrBackendNotConfigured
	}
	if globalTracker == nil {
		return nil, ErrTrackerNotConfigured
	}
	if prompt == nil {
		prompt = NoOpPrompt{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		parentBackend:     parentBackend,
		globalTracker:     globalTracker,
		prompt:            prompt,
		logger:            logger,
		submoduleBackends: map[string]gitrepo.Backend{},
		currentState:      StateNoConflict,
	}, nil
}

// RegisterSubmoduleBackend binds the working tree backend for a submodule path so
// auto-resolution can check out rewritten commits inside it.
func (resolver *Resolver) RegisterSubmoduleBackend(submodulePath string, submoduleBackend gitrepo.Backend) {
	resolver.submoduleBackends[submodulePath] = submoduleBackend
}

// State returns the resolver's current state.
func (resolver *Resolver) State() ResolutionState {
	return resolver.currentState
}

// Resolve runs the resolution machine over the repository's current conflicts.
// It returns with state resolved when the index is clean and staged, aborted
// when the operator declines manual resolution, or no-conflict when nothing
// was conflicted to begin with.
func (resolver *Resolver) Resolve(executionContext context.Context) (Summary, error) {
	summary := Summary{RepositoryPath: resolver.parentBackend.RepositoryPath()}

	resolver.transition(StateAnalyzing)
	classifiedConflicts, classificationError := resolver.classifyConflicts(executionContext)
	if classificationError != nil {
		return summary, classificationError
	}

	if len(classifiedConflicts) == 0 {
		resolver.transition(StateNoConflict)
		summary.State = StateNoConflict
		return summary, nil
	}

	resolver.logger.Info(conflictsDetectedMessageConstant,
		zap.String(repositoryPathLogFieldConstant, summary.RepositoryPath),
		zap.Int(conflictCountLogFieldConstant, len(classifiedConflicts)),
	)

	resolver.transition(StateAutoResolving)
	guidanceMessages := []string{}
	for _, conflictInfo := range classifiedConflicts {
		if !conflictInfo.IsSubmodule {
			summary.ManualPaths = append(summary.ManualPaths, conflictInfo.Path)
			guidanceMessages = append(guidanceMessages, fmt.Sprintf(fileConflictGuidanceTemplate, conflictInfo.Path))
			continue
		}

		resolvedCommit, resolved, guidanceMessage, resolutionError := resolver.autoResolveGitlink(executionContext, conflictInfo.Path)
		if resolutionError != nil {
			return summary, resolutionError
		}
		if resolved {
			summary.AutoResolved = append(summary.AutoResolved, resolvedCommit)
			continue
		}
		summary.ManualPaths = append(summary.ManualPaths, conflictInfo.Path)
		guidanceMessages = append(guidanceMessages, guidanceMessage)
	}

	if len(summary.AutoResolved) > 0 {
		resolver.prompt.NotifyAutoResolved(summary.RepositoryPath, summary.AutoResolved)
	}

	pendingPaths := summary.ManualPaths
	manualInterventionNeeded := len(pendingPaths) > 0

	for {
		if manualInterventionNeeded {
			resolver.transition(StateAwaitingManual)
			proceedWithResolution, promptError := resolver.prompt.ConfirmManualResolution(summary.RepositoryPath, pendingPaths, guidanceMessages)
			if promptError != nil {
				return summary, ResolutionError{RepositoryPath: summary.RepositoryPath, Reason: promptReasonConstant, Cause: promptError}
			}
			if !proceedWithResolution {
				resolver.transition(StateAborted)
				summary.State = StateAborted
				return summary, nil
			}
		}

		resolver.transition(StateVerifying)
		verified, verificationGuidance, verificationError := resolver.verifyResolution(executionContext)
		if verificationError != nil {
			return summary, verificationError
		}
		if verified {
			resolver.transition(StateResolved)
			summary.State = StateResolved
			return summary, nil
		}

		remainingPaths, listingError := resolver.parentBackend.ConflictedPaths(executionContext)
		if listingError != nil {
			return summary, ResolutionError{RepositoryPath: summary.RepositoryPath, Reason: conflictListingReasonConstant, Cause: listingError}
		}
		pendingPaths = remainingPaths
		guidanceMessages = verificationGuidance
		manualInterventionNeeded = true
	}
}

func (resolver *Resolver) classifyConflicts(executionContext context.Context) ([]Info, error) {
	conflictedPaths, listingError := resolver.parentBackend.ConflictedPaths(executionContext)
	if listingError != nil {
		return nil, ResolutionError{RepositoryPath: resolver.parentBackend.RepositoryPath(), Reason: conflictListingReasonConstant, Cause: listingError}
	}

	classifiedConflicts := []Info{}
	for _, conflictedPath := range conflictedPaths {
		isSubmodule, classificationError := resolver.parentBackend.IsSubmodulePath(executionContext, conflictedPath)
		if classificationError != nil {
			return nil, ResolutionError{RepositoryPath: resolver.parentBackend.RepositoryPath(), Reason: classificationReasonConstant, Cause: classificationError}
		}
		classifiedConflicts = append(classifiedConflicts, Info{Path: conflictedPath, IsSubmodule: isSubmodule})
	}
	return classifiedConflicts, nil
}

func (resolver *Resolver) autoResolveGitlink(executionContext context.Context, submodulePath string) (ResolvedCommit, bool, string, error) {
	repositoryPath := resolver.parentBackend.RepositoryPath()

	incomingHash, incomingFound, inspectionError := resolver.incomingGitlinkHash(executionContext, submodulePath)
	if inspectionError != nil {
		return ResolvedCommit{}, false, "", inspectionError
	}
	if !incomingFound {
		return ResolvedCommit{}, false, fmt.Sprintf(fileConflictGuidanceTemplate, submodulePath), nil
	}

	sourceRepository, rewrittenHash, mappingFound := resolver.globalTracker.ResolveCrossRepoHash(incomingHash)
	if !mappingFound {
		return ResolvedCommit{}, false, resolver.untrackedPointerGuidance(executionContext, submodulePath, incomingHash), nil
	}

	submoduleBackend, backendRegistered := resolver.submoduleBackends[submodulePath]
	if !backendRegistered {
		return ResolvedCommit{}, false, fmt.Sprintf(missingBackendGuidanceTemplate, submodulePath), nil
	}

	if checkoutError := submoduleBackend.CheckoutCommit(executionContext, rewrittenHash); checkoutError != nil {
		return ResolvedCommit{}, false, "", ResolutionError{RepositoryPath: repositoryPath, Reason: submoduleCheckoutReasonConstant, Cause: checkoutError}
	}

	if stagingError := resolver.parentBackend.StagePaths(executionContext, []string{submodulePath}); stagingError != nil {
		return ResolvedCommit{}, false, "", ResolutionError{RepositoryPath: repositoryPath, Reason: gitlinkStagingReasonConstant, Cause: stagingError}
	}

	resolvedCommit := ResolvedCommit{
		SubmodulePath:    submodulePath,
		OldHash:          incomingHash,
		NewHash:          rewrittenHash,
		SourceRepository: sourceRepository,
	}
	resolver.attachSubjects(executionContext, submoduleBackend, &resolvedCommit)

	resolver.logger.Info(autoResolvedMessageConstant,
		zap.String(repositoryPathLogFieldConstant, repositoryPath),
		zap.String(submodulePathLogFieldConstant, submodulePath),
		zap.String(oldHashLogFieldConstant, incomingHash),
		zap.String(newHashLogFieldConstant, rewrittenHash),
		zap.String(sourceRepositoryLogFieldConstant, sourceRepository),
	)
	return resolvedCommit, true, "", nil
}

// untrackedPointerGuidance names the pointer commit and, when the submodule's
// working tree is registered, the local branches that already contain it.
func (resolver *Resolver) untrackedPointerGuidance(executionContext context.Context, submodulePath string, incomingHash string) string {
	guidanceMessage := fmt.Sprintf(unknownPointerGuidanceTemplate, submodulePath, incomingHash)

	submoduleBackend, backendRegistered := resolver.submoduleBackends[submodulePath]
	if !backendRegistered {
		return guidanceMessage
	}

	containingBranches, lookupError := submoduleBackend.BranchesContainingCommit(executionContext, incomingHash)
	if lookupError != nil || len(containingBranches) == 0 {
		return guidanceMessage
	}
	return fmt.Sprintf(containingBranchesHintTemplate, guidanceMessage, strings.Join(containingBranches, ", "))
}

// incomingGitlinkHash reads the stage-3 ("theirs") index entry for the path.
// During a rebase stage 3 carries the commit being replayed.
func (resolver *Resolver) incomingGitlinkHash(executionContext context.Context, submodulePath string) (string, bool, error) {
	unmergedEntries, listingError := resolver.parentBackend.UnmergedEntries(executionContext)
	if listingError != nil {
		return "", false, ResolutionError{RepositoryPath: resolver.parentBackend.RepositoryPath(), Reason: unmergedInspectionReasonConstant, Cause: listingError}
	}

	for _, unmergedEntry := range unmergedEntries {
		if unmergedEntry.Path == submodulePath && unmergedEntry.Stage == gitrepo.IndexStageIncoming {
			return unmergedEntry.Hash, true, nil
		}
	}
	return "", false, nil
}

func (resolver *Resolver) attachSubjects(executionContext context.Context, submoduleBackend gitrepo.Backend, resolvedCommit *ResolvedCommit) {
	oldSubject, oldSubjectError := submoduleBackend.CommitSubject(executionContext, resolvedCommit.OldHash)
	newSubject, newSubjectError := submoduleBackend.CommitSubject(executionContext, resolvedCommit.NewHash)
	if oldSubjectError != nil || newSubjectError != nil {
		return
	}

	resolvedCommit.OldSubject = oldSubject
	resolvedCommit.NewSubject = newSubject
	if oldSubject != newSubject {
		resolvedCommit.SubjectMismatch = true
		resolver.logger.Warn(subjectMismatchMessageConstant,
			zap.String(repositoryPathLogFieldConstant, resolver.parentBackend.RepositoryPath()),
			zap.String(submodulePathLogFieldConstant, resolvedCommit.SubmodulePath),
			zap.String(oldHashLogFieldConstant, resolvedCommit.OldHash),
			zap.String(newHashLogFieldConstant, resolvedCommit.NewHash),
		)
	}
}

// verifyResolution accepts the resolution once no unmerged paths remain and at
// least one path is staged for the continued rebase.
func (resolver *Resolver) verifyResolution(executionContext context.Context) (bool, []string, error) {
	repositoryPath := resolver.parentBackend.RepositoryPath()

	conflictedPaths, listingError := resolver.parentBackend.ConflictedPaths(executionContext)
	if listingError != nil {
		return false, nil, ResolutionError{RepositoryPath: repositoryPath, Reason: verificationReasonConstant, Cause: listingError}
	}
	if len(conflictedPaths) > 0 {
		return false, []string{fmt.Sprintf(unmergedPathsGuidanceTemplate, len(conflictedPaths))}, nil
	}

	stagedFiles, stagedListingError := resolver.parentBackend.StagedFiles(executionContext)
	if stagedListingError != nil {
		return false, nil, ResolutionError{RepositoryPath: repositoryPath, Reason: verificationReasonConstant, Cause: stagedListingError}
	}
	if len(stagedFiles) == 0 {
		return false, []string{nothingStagedGuidanceConstant}, nil
	}

	return true, nil, nil
}

func (resolver *Resolver) transition(nextState ResolutionState) {
	if resolver.currentState == nextState {
		return
	}
	resolver.currentState = nextState
	resolver.logger.Debug(stateTransitionMessageConstant,
		zap.String(repositoryPathLogFieldConstant, resolver.parentBackend.RepositoryPath()),
		zap.String(stateLogFieldConstant, string(nextState)),
	)
}
