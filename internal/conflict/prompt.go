package conflict

// Prompt is the interactive surface consulted while conflicts await manual resolution.
type Prompt interface {
	// NotifyAutoResolved informs the operator about automatically resolved gitlink conflicts.
	NotifyAutoResolved(repositoryPath string, resolvedCommits []ResolvedCommit)
	// ConfirmManualResolution asks the operator to resolve the listed paths by hand.
	// Returning false abandons the rebase operation.
	ConfirmManualResolution(repositoryPath string, conflictedPaths []string, guidanceMessages []string) (bool, error)
}

// NoOpPrompt declines every manual-resolution request, aborting unattended runs
// instead of hanging on input that will never arrive.
type NoOpPrompt struct{}

// NotifyAutoResolved discards the notification.
func (NoOpPrompt) NotifyAutoResolved(string, []ResolvedCommit) {}

// ConfirmManualResolution declines the request.
func (NoOpPrompt) ConfirmManualResolution(string, []string, []string) (bool, error) {
	return false, nil
}
