package rebase

import "github.com/temirov/lockstep/internal/gitrepo"

// SyncDecision is the operator's answer to a diverged-branch prompt.
type SyncDecision string

// Sync decisions offered when a local branch is behind its remote counterpart.
const (
	SyncDecisionFastForward SyncDecision = "fast-forward"
	SyncDecisionUseRemote   SyncDecision = "use-remote"
	SyncDecisionSkip        SyncDecision = "skip"
	SyncDecisionAbort       SyncDecision = "abort"
)

// UserPrompt is the planning-time interactive surface. Every call blocks the
// operation until answered; headless runs use NoOpUserPrompt, which declines.
type UserPrompt interface {
	// ConfirmCreateLocalBranch asks whether to materialize a missing local
	// branch from its remote counterpart.
	ConfirmCreateLocalBranch(repositoryPath string, branchName string, remoteName string) (bool, error)
	// ConfirmSyncBranch asks how to reconcile a local branch that diverged
	// from its remote counterpart.
	ConfirmSyncBranch(repositoryPath string, branchName string, counts gitrepo.AheadBehindCounts) (SyncDecision, error)
	// ConfirmSubmoduleInclusion asks once per auto-discovered submodule
	// whether to include it, letting the operator accept or override the
	// inferred branch pair. Empty inferred fields mean no branch tip matched
	// the gitlink pointer and the operator must supply one.
	ConfirmSubmoduleInclusion(submodulePath string, inferredBranches BranchPair) (bool, BranchPair, error)
	// ShowValidationSummary presents precondition findings before a rebase.
	ShowValidationSummary(issues []ValidationIssue)
	// ConfirmForcePush asks whether to force-push one rewritten branch.
	// Implementations require an explicit confirmation phrase.
	ConfirmForcePush(repositoryPath string, branchName string, remoteName string) (bool, error)
}

// NoOpUserPrompt declines every request so unattended runs fail safe instead
// of waiting on input that will never arrive.
type NoOpUserPrompt struct{}

// ConfirmCreateLocalBranch declines.
func (NoOpUserPrompt) ConfirmCreateLocalBranch(string, string, string) (bool, error) {
	return false, nil
}

// ConfirmSyncBranch aborts the planning pass.
func (NoOpUserPrompt) ConfirmSyncBranch(string, string, gitrepo.AheadBehindCounts) (SyncDecision, error) {
	return SyncDecisionAbort, nil
}

// ConfirmSubmoduleInclusion declines.
func (NoOpUserPrompt) ConfirmSubmoduleInclusion(submodulePath string, inferredBranches BranchPair) (bool, BranchPair, error) {
	return false, inferredBranches, nil
}

// ShowValidationSummary discards the findings.
func (NoOpUserPrompt) ShowValidationSummary([]ValidationIssue) {}

// ConfirmForcePush declines.
func (NoOpUserPrompt) ConfirmForcePush(string, string, string) (bool, error) {
	return false, nil
}
