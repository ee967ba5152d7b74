package rebase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/hierarchy"
)

const (
	pointerInspectionReasonConstant   = "submodule pointer inspection"
	branchInferenceReasonConstant     = "branch inference"
	inclusionPromptReasonConstant     = "submodule inclusion prompt"
	submoduleUnchangedMessageConstant = "Submodule pointers match, skipping"
	submoduleCandidateMessageConstant = "Submodule pointer differs between refs"
	submoduleDeclinedMessageConstant  = "Submodule inclusion declined by operator"
	sourcePointerLogFieldConstant     = "source_pointer"
	targetPointerLogFieldConstant     = "target_pointer"
	remoteRefSeparatorConstant        = "/"
)

// AutoPlanRequest carries the operator's inputs for auto-discovery planning.
// Include tokens and branch overrides discovered by the walk are merged with
// the operator-supplied ones; operator entries win on conflict.
type AutoPlanRequest struct {
	RootPath        string
	SourceBranch    string
	TargetBranch    string
	BranchOverrides map[string]BranchPair
}

// PlanAuto discovers which submodules participate in the rebase by comparing
// each gitlink pointer at the source ref against the target ref. A submodule
// whose pointers differ is offered to the operator with inferred branches;
// accepting it recurses into that submodule with the chosen branch pair, so
// multi-level chains are discovered transitively. The resulting include set
// and branch overrides are handed to manual planning with remote-sync
// prompting suppressed, since discovery already walked the remote state.
func (orchestrator *Orchestrator) PlanAuto(executionContext context.Context, request AutoPlanRequest) (*RebaseOperation, error) {
	rootNode, discoveryError := orchestrator.discoverer.Discover(executionContext, request.RootPath)
	if discoveryError != nil {
		return nil, discoveryError
	}

	discoveredIncludes := []string{rootNode.Path}
	discoveredOverrides := map[string]BranchPair{}
	rootPair := BranchPair{Source: request.SourceBranch, Target: request.TargetBranch}

	walkError := orchestrator.discoverUpdatedSubmodules(executionContext, rootNode, rootPair, &discoveredIncludes, discoveredOverrides)
	if walkError != nil {
		return nil, walkError
	}

	mergedOverrides := map[string]BranchPair{}
	for overrideKey, overridePair := range discoveredOverrides {
		mergedOverrides[overrideKey] = overridePair
	}
	for overrideKey, overridePair := range request.BranchOverrides {
		mergedOverrides[overrideKey] = overridePair
	}

	return orchestrator.planWithTree(executionContext, rootNode, PlanRequest{
		RootPath:            request.RootPath,
		SourceBranch:        request.SourceBranch,
		TargetBranch:        request.TargetBranch,
		Include:             discoveredIncludes,
		BranchOverrides:     mergedOverrides,
		SuppressSyncPrompts: true,
	})
}

func (orchestrator *Orchestrator) discoverUpdatedSubmodules(executionContext context.Context, parentNode *hierarchy.RepositoryNode, parentBranches BranchPair, discoveredIncludes *[]string, discoveredOverrides map[string]BranchPair) error {
	sourceRef, sourceRefError := orchestrator.resolvePointerRef(executionContext, parentNode, parentBranches.Source)
	if sourceRefError != nil {
		return sourceRefError
	}
	targetRef, targetRefError := orchestrator.resolvePointerRef(executionContext, parentNode, parentBranches.Target)
	if targetRefError != nil {
		return targetRefError
	}

	for _, childNode := range parentNode.Children {
		submodulePath := childRelativeToParent(parentNode, childNode)

		sourcePointer, sourceError := parentNode.Backend.SubmodulePointerAt(executionContext, sourceRef, submodulePath)
		if sourceError != nil {
			return ExecutionError{RepositoryPath: parentNode.Path, Reason: pointerInspectionReasonConstant, Cause: sourceError}
		}
		targetPointer, targetError := parentNode.Backend.SubmodulePointerAt(executionContext, targetRef, submodulePath)
		if targetError != nil {
			return ExecutionError{RepositoryPath: parentNode.Path, Reason: pointerInspectionReasonConstant, Cause: targetError}
		}

		if sourcePointer == targetPointer {
			orchestrator.logger.Debug(submoduleUnchangedMessageConstant,
				zap.String(repositoryPathLogFieldConstant, childNode.Path),
			)
			continue
		}

		orchestrator.logger.Info(submoduleCandidateMessageConstant,
			zap.String(repositoryPathLogFieldConstant, childNode.Path),
			zap.String(sourcePointerLogFieldConstant, sourcePointer),
			zap.String(targetPointerLogFieldConstant, targetPointer),
		)

		inferredPair := BranchPair{}
		var inferenceError error
		inferredPair.Source, inferenceError = orchestrator.inferBranchForPointer(executionContext, childNode, sourcePointer, parentBranches.Source)
		if inferenceError != nil {
			return inferenceError
		}
		inferredPair.Target, inferenceError = orchestrator.inferBranchForPointer(executionContext, childNode, targetPointer, parentBranches.Target)
		if inferenceError != nil {
			return inferenceError
		}

		included, chosenPair, promptError := orchestrator.userPrompt.ConfirmSubmoduleInclusion(childNode.RelativePath, inferredPair)
		if promptError != nil {
			return ExecutionError{RepositoryPath: childNode.Path, Reason: inclusionPromptReasonConstant, Cause: promptError}
		}
		if !included {
			orchestrator.logger.Info(submoduleDeclinedMessageConstant,
				zap.String(repositoryPathLogFieldConstant, childNode.Path),
			)
			continue
		}

		if chosenPair.Source == "" {
			chosenPair.Source = inferredPair.Source
		}
		if chosenPair.Target == "" {
			chosenPair.Target = inferredPair.Target
		}

		*discoveredIncludes = append(*discoveredIncludes, childNode.Path)
		discoveredOverrides[childNode.Path] = chosenPair

		if recursionError := orchestrator.discoverUpdatedSubmodules(executionContext, childNode, chosenPair, discoveredIncludes, discoveredOverrides); recursionError != nil {
			return recursionError
		}
	}
	return nil
}

// resolvePointerRef picks the ref gitlink pointers are read from: the local
// branch when it exists, otherwise the branch on the configured remote, then
// on any other remote that carries it. When no ref resolves the bare branch
// name is returned so pointer inspection reports the missing ref itself.
func (orchestrator *Orchestrator) resolvePointerRef(executionContext context.Context, parentNode *hierarchy.RepositoryNode, branchName string) (string, error) {
	branchExists, existenceError := parentNode.Backend.BranchExists(executionContext, branchName)
	if existenceError != nil {
		return "", ExecutionError{RepositoryPath: parentNode.Path, Reason: pointerInspectionReasonConstant, Cause: existenceError}
	}
	if branchExists {
		return branchName, nil
	}

	remoteNames, remoteListingError := parentNode.Backend.ListRemotes(executionContext)
	if remoteListingError != nil {
		return "", ExecutionError{RepositoryPath: parentNode.Path, Reason: pointerInspectionReasonConstant, Cause: remoteListingError}
	}
	for _, remoteName := range orderedRemoteNames(remoteNames, orchestrator.remoteName) {
		remoteBranchExists, remoteCheckError := parentNode.Backend.RemoteBranchExists(executionContext, remoteName, branchName)
		if remoteCheckError != nil {
			return "", ExecutionError{RepositoryPath: parentNode.Path, Reason: pointerInspectionReasonConstant, Cause: remoteCheckError}
		}
		if remoteBranchExists {
			return remoteName + remoteRefSeparatorConstant + branchName, nil
		}
	}
	return branchName, nil
}

// orderedRemoteNames moves the preferred remote to the front of the lookup order.
func orderedRemoteNames(remoteNames []string, preferredRemoteName string) []string {
	orderedNames := make([]string, 0, len(remoteNames))
	for _, remoteName := range remoteNames {
		if remoteName == preferredRemoteName {
			orderedNames = append(orderedNames, remoteName)
		}
	}
	for _, remoteName := range remoteNames {
		if remoteName != preferredRemoteName {
			orderedNames = append(orderedNames, remoteName)
		}
	}
	return orderedNames
}

// inferBranchForPointer proposes a branch in the submodule whose tip equals
// the gitlink pointer. The parent's branch name wins when such a branch
// exists with a matching tip; otherwise the first matching local branch is
// used, then the first matching remote branch stripped of its remote prefix.
// No match leaves the inference empty for the operator to fill in.
func (orchestrator *Orchestrator) inferBranchForPointer(executionContext context.Context, childNode *hierarchy.RepositoryNode, pointerHash string, parentBranchName string) (string, error) {
	if pointerHash == "" {
		return "", nil
	}

	branchTips, inspectionError := childNode.Backend.BranchesPointingAt(executionContext, pointerHash)
	if inspectionError != nil {
		return "", ExecutionError{RepositoryPath: childNode.Path, Reason: branchInferenceReasonConstant, Cause: inspectionError}
	}

	for _, localBranch := range branchTips.LocalBranches {
		if localBranch == parentBranchName {
			return parentBranchName, nil
		}
	}
	for _, remoteBranch := range branchTips.RemoteBranches {
		if stripRemotePrefix(remoteBranch) == parentBranchName {
			return parentBranchName, nil
		}
	}

	if len(branchTips.LocalBranches) > 0 {
		return branchTips.LocalBranches[0], nil
	}
	if len(branchTips.RemoteBranches) > 0 {
		return stripRemotePrefix(branchTips.RemoteBranches[0]), nil
	}
	return "", nil
}

// stripRemotePrefix turns origin/feature/x into feature/x.
func stripRemotePrefix(remoteBranch string) string {
	separatorIndex := strings.Index(remoteBranch, remoteRefSeparatorConstant)
	if separatorIndex < 0 {
		return remoteBranch
	}
	return remoteBranch[separatorIndex+1:]
}

// childRelativeToParent recovers the submodule path the parent declares for a child node.
func childRelativeToParent(parentNode *hierarchy.RepositoryNode, childNode *hierarchy.RepositoryNode) string {
	if parentNode.RelativePath == "" {
		return childNode.RelativePath
	}
	return strings.TrimPrefix(childNode.RelativePath, parentNode.RelativePath+remoteRefSeparatorConstant)
}
