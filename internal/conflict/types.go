package conflict

import (
	"errors"
	"fmt"
)

// ResolutionState names one state of the conflict-resolution machine.
type ResolutionState string

// Resolution states, in the order the machine normally traverses them.
const (
	StateNoConflict     ResolutionState = "no-conflict"
	StateAnalyzing      ResolutionState = "analyzing"
	StateAutoResolving  ResolutionState = "auto-resolving"
	StateAwaitingManual ResolutionState = "awaiting-manual"
	StateVerifying      ResolutionState = "verifying"
	StateResolved       ResolutionState = "resolved"
	StateAborted        ResolutionState = "aborted"
)

// Info describes one conflicted path and its classification.
type Info struct {
	Path        string
	IsSubmodule bool
}

// ResolvedCommit records one automatically resolved gitlink conflict.
type ResolvedCommit struct {
	SubmodulePath    string
	OldHash          string
	NewHash          string
	SourceRepository string
	OldSubject       string
	NewSubject       string
	SubjectMismatch  bool
}

// Summary reports the outcome of one resolution pass over a stopped rebase.
type Summary struct {
	RepositoryPath string
	State          ResolutionState
	AutoResolved   []ResolvedCommit
	ManualPaths    []string
}

const (
	backendNotConfiguredMessageConstant = "parent repository backend not configured"
	trackerNotConfiguredMessageConstant = "global commit tracker not configured"
	resolutionErrorTemplateConstant     = "conflict resolution failed in %s: %s: %v"
)

// Exported sentinel errors describing resolver construction failures.
var (
	// ErrBackendNotConfigured indicates the resolver was constructed without a parent backend.
	ErrBackendNotConfigured = errors.New(backendNotConfiguredMessageConstant)
	// ErrTrackerNotConfigured indicates the resolver was constructed without a global tracker.
	ErrTrackerNotConfigured = errors.New(trackerNotConfiguredMessageConstant)
)

// ResolutionError reports a failure while resolving conflicts in one repository.
type ResolutionError struct {
	RepositoryPath string
	Reason         string
	Cause          error
}

// Error describes the resolution failure.
func (resolutionError ResolutionError) Error() string {
	return fmt.Sprintf(resolutionErrorTemplateConstant, resolutionError.RepositoryPath, resolutionError.Reason, resolutionError.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (resolutionError ResolutionError) Unwrap() error {
	return resolutionError.Cause
}
