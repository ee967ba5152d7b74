package rebase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/lockstep/internal/gitrepo"
	"github.com/temirov/lockstep/internal/hierarchy"
)

// BranchPair names the source branch being rebased and the target branch it lands on.
type BranchPair struct {
	Source string
	Target string
}

// RepoState is one repository's slice of a planned rebase operation.
// Planning fills the plan fields; execution fills the result fields.
type RepoState struct {
	Node            *hierarchy.RepositoryNode
	SourceBranch    string
	TargetBranch    string
	OriginalCommits []gitrepo.CommitInfo
	RebasedCommits  []gitrepo.CommitInfo
	HashMapping     map[string]string
	Completed       bool
	HadConflicts    bool
}

// RebaseOperation is one planned lockstep rebase across the hierarchy.
// States are held in rebase order, deepest repository first. The backup
// session is assigned lazily on the first backup pass and the branch map
// records one backup branch per repository path.
type RebaseOperation struct {
	RootNode       *hierarchy.RepositoryNode
	SourceBranch   string
	TargetBranch   string
	States         []*RepoState
	BackupSession  string
	BackupBranches map[string]string
}

// RepositoryBackups groups one repository's backup entries for presentation.
type RepositoryBackups struct {
	RepositoryName string
	RepositoryPath string
	Entries        []BackupListing
}

// BackupListing is one backup branch row in a hierarchy-wide listing.
type BackupListing struct {
	BranchName     string
	OriginalBranch string
	Session        string
}

// RepositoryStatus summarizes one repository's working state for the status listing.
type RepositoryStatus struct {
	Name             string
	Path             string
	Depth            int
	CurrentBranch    string
	DirtyPaths       []string
	RebaseInProgress bool
}

// ValidationIssue names one precondition that blocks a lockstep rebase.
type ValidationIssue struct {
	RepositoryPath string
	Description    string
}

// MissingBranch identifies a branch that exists neither locally nor on any remote.
type MissingBranch struct {
	RepositoryPath string
	BranchName     string
}

const (
	discovererNotConfiguredMessageConstant = "hierarchy discoverer not configured"
	trackerNotConfiguredMessageConstant    = "global commit tracker not configured"
	planningAbortedMessageConstant         = "planning aborted by operator"
	rebaseStalledMessageConstant           = "rebase stopped without conflicted paths and could not continue"
	emptyIncludeSelectionMessageConstant   = "include tokens matched no repository"
	emptySelectionMessageConstant          = "exclude tokens removed every repository"
	planningErrorTemplateConstant          = "rebase planning failed: %s"
	missingBranchTemplateConstant          = "%s is missing branch %s"
	executionErrorTemplateConstant         = "rebase execution failed in %s: %s: %v"
	missingBranchSeparatorConstant         = "; "
)

// Exported sentinel errors for planning failures.
var (
	// ErrDiscovererNotConfigured indicates the orchestrator was constructed without a discoverer.
	ErrDiscovererNotConfigured = errors.New(discovererNotConfiguredMessageConstant)
	// ErrTrackerNotConfigured indicates the orchestrator was constructed without a global tracker.
	ErrTrackerNotConfigured = errors.New(trackerNotConfiguredMessageConstant)
	// ErrPlanningAborted indicates the operator chose to abort during branch-sync prompting.
	ErrPlanningAborted = errors.New(planningAbortedMessageConstant)
	// ErrEmptyIncludeSelection indicates the include tokens selected no repository.
	ErrEmptyIncludeSelection = errors.New(emptyIncludeSelectionMessageConstant)
	// ErrSelectionEmptied indicates the exclude tokens removed every repository.
	ErrSelectionEmptied = errors.New(emptySelectionMessageConstant)
	// ErrRebaseStalled indicates git stopped a rebase for a reason other than
	// merge conflicts, so resolving and continuing cannot make progress.
	ErrRebaseStalled = errors.New(rebaseStalledMessageConstant)
)

// PlanningError reports why a rebase could not be planned. Missing branches
// are collected across every selected repository before the error is raised.
type PlanningError struct {
	Reason          string
	MissingBranches []MissingBranch
	Cause           error
}

// Error describes the planning failure, listing every missing branch.
func (planningError PlanningError) Error() string {
	descriptions := []string{}
	for _, missingBranch := range planningError.MissingBranches {
		descriptions = append(descriptions, fmt.Sprintf(missingBranchTemplateConstant, missingBranch.RepositoryPath, missingBranch.BranchName))
	}

	reason := planningError.Reason
	if len(descriptions) > 0 {
		reason = reason + missingBranchSeparatorConstant + strings.Join(descriptions, missingBranchSeparatorConstant)
	}
	return fmt.Sprintf(planningErrorTemplateConstant, reason)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (planningError PlanningError) Unwrap() error {
	return planningError.Cause
}

// ExecutionError reports a failure while executing a planned rebase.
type ExecutionError struct {
	RepositoryPath string
	Reason         string
	Cause          error
}

// Error describes the execution failure.
func (executionError ExecutionError) Error() string {
	return fmt.Sprintf(executionErrorTemplateConstant, executionError.RepositoryPath, executionError.Reason, executionError.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (executionError ExecutionError) Unwrap() error {
	return executionError.Cause
}
