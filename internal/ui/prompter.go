package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/lockstep/internal/conflict"
	"github.com/temirov/lockstep/internal/gitrepo"
	"github.com/temirov/lockstep/internal/rebase"
)

const (
	affirmativeShortResponseConstant = "y"
	affirmativeLongResponseConstant  = "yes"
	forcePushPhraseConstant          = "FORCE PUSH"
	newlineConstant                  = "\n"

	createLocalBranchQuestionTemplate = "%s: branch %s exists only on remote %s. Create a local branch from it? [y/N] "
	syncBranchHeadingTemplate         = "%s: local branch %s is %d commit(s) behind its remote (and %d ahead)."
	syncOptionsConstant               = "  [f] fast-forward local  [r] reset local to remote  [s] proceed unsynced  [a] abort"
	syncChoiceQuestionConstant        = "Choose an action [f/r/s/A]: "
	includeSubmoduleHeadingTemplate   = "Submodule %s changed between the two refs."
	inferredBranchesTemplate          = "  inferred branches: %s -> %s"
	noInferredBranchConstant          = "(none)"
	includeQuestionConstant           = "Include it in the rebase? [y/N] "
	overrideSourceQuestionTemplate    = "  source branch [%s]: "
	overrideTargetQuestionTemplate    = "  target branch [%s]: "
	validationHeadingConstant         = "Validation findings:"
	validationCleanConstant           = "All repositories pass rebase preconditions."
	validationIssueTemplate           = "  %s: %s"
	forcePushHeadingTemplate          = "%s: pushing %s to %s rewrites remote history."
	forcePushQuestionTemplate         = "Type %q to confirm, anything else to skip: "
	autoResolvedHeadingTemplate       = "%s: auto-resolved %d submodule pointer conflict(s):"
	autoResolvedEntryTemplate         = "  %s: %s -> %s (%s)"
	subjectMismatchNoteTemplate       = "    note: commit subject changed from %q to %q"
	manualConflictHeadingTemplate     = "%s: %d path(s) need manual resolution:"
	manualConflictPathTemplate        = "  %s"
	manualGuidanceTemplate            = "  hint: %s"
	manualResolutionQuestionConstant  = "Resolve the paths, stage them, then confirm to continue. Continue? [y/N] "
)

// ConsolePrompter reads operator decisions from an input stream and writes
// styled prompts to an output stream. It serves both the planning-time
// prompt surface and the conflict-time prompt surface.
type ConsolePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

var (
	_ rebase.UserPrompt = (*ConsolePrompter)(nil)
	_ conflict.Prompt   = (*ConsolePrompter)(nil)
)

// NewConsolePrompter constructs a prompter from the provided reader and writer.
func NewConsolePrompter(input io.Reader, output io.Writer) *ConsolePrompter {
	return &ConsolePrompter{reader: bufio.NewReader(input), writer: output}
}

func (prompter *ConsolePrompter) writeLine(line string) {
	if prompter.writer == nil {
		return
	}
	_, _ = io.WriteString(prompter.writer, line+newlineConstant)
}

func (prompter *ConsolePrompter) readResponse(question string) (string, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, question); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return "", readError
	}
	return strings.TrimSpace(response), nil
}

func (prompter *ConsolePrompter) confirm(question string) (bool, error) {
	response, readError := prompter.readResponse(question)
	if readError != nil {
		return false, readError
	}

	switch strings.ToLower(response) {
	case affirmativeShortResponseConstant, affirmativeLongResponseConstant:
		return true, nil
	default:
		return false, nil
	}
}

// ConfirmCreateLocalBranch asks whether to materialize a local branch from a remote.
func (prompter *ConsolePrompter) ConfirmCreateLocalBranch(repositoryPath string, branchName string, remoteName string) (bool, error) {
	return prompter.confirm(fmt.Sprintf(createLocalBranchQuestionTemplate, repositoryPath, branchName, remoteName))
}

// ConfirmSyncBranch asks how to reconcile a diverged local branch. Anything
// other than a recognized choice aborts, so a stray newline fails safe.
func (prompter *ConsolePrompter) ConfirmSyncBranch(repositoryPath string, branchName string, counts gitrepo.AheadBehindCounts) (rebase.SyncDecision, error) {
	prompter.writeLine(warningStyle.Render(fmt.Sprintf(syncBranchHeadingTemplate, repositoryPath, branchName, counts.Behind, counts.Ahead)))
	prompter.writeLine(detailStyle.Render(syncOptionsConstant))

	response, readError := prompter.readResponse(syncChoiceQuestionConstant)
	if readError != nil {
		return rebase.SyncDecisionAbort, readError
	}

	switch strings.ToLower(response) {
	case "f":
		return rebase.SyncDecisionFastForward, nil
	case "r":
		return rebase.SyncDecisionUseRemote, nil
	case "s":
		return rebase.SyncDecisionSkip, nil
	default:
		return rebase.SyncDecisionAbort, nil
	}
}

// ConfirmSubmoduleInclusion confirms an auto-discovered submodule and lets the
// operator override the inferred branch pair. Empty answers keep the inference.
func (prompter *ConsolePrompter) ConfirmSubmoduleInclusion(submodulePath string, inferredBranches rebase.BranchPair) (bool, rebase.BranchPair, error) {
	prompter.writeLine(headingStyle.Render(fmt.Sprintf(includeSubmoduleHeadingTemplate, submodulePath)))
	prompter.writeLine(detailStyle.Render(fmt.Sprintf(inferredBranchesTemplate,
		describeBranch(inferredBranches.Source), describeBranch(inferredBranches.Target))))

	included, confirmError := prompter.confirm(includeQuestionConstant)
	if confirmError != nil || !included {
		return false, inferredBranches, confirmError
	}

	chosenBranches := inferredBranches
	sourceResponse, sourceError := prompter.readResponse(fmt.Sprintf(overrideSourceQuestionTemplate, describeBranch(inferredBranches.Source)))
	if sourceError != nil {
		return false, inferredBranches, sourceError
	}
	if sourceResponse != "" {
		chosenBranches.Source = sourceResponse
	}

	targetResponse, targetError := prompter.readResponse(fmt.Sprintf(overrideTargetQuestionTemplate, describeBranch(inferredBranches.Target)))
	if targetError != nil {
		return false, inferredBranches, targetError
	}
	if targetResponse != "" {
		chosenBranches.Target = targetResponse
	}

	return true, chosenBranches, nil
}

// ShowValidationSummary prints precondition findings, or a clean bill of health.
func (prompter *ConsolePrompter) ShowValidationSummary(issues []rebase.ValidationIssue) {
	if len(issues) == 0 {
		prompter.writeLine(successStyle.Render(validationCleanConstant))
		return
	}

	prompter.writeLine(headingStyle.Render(validationHeadingConstant))
	for _, validationIssue := range issues {
		prompter.writeLine(warningStyle.Render(fmt.Sprintf(validationIssueTemplate, validationIssue.RepositoryPath, validationIssue.Description)))
	}
}

// ConfirmForcePush requires the operator to type the exact confirmation
// phrase before a rewritten branch is force-pushed.
func (prompter *ConsolePrompter) ConfirmForcePush(repositoryPath string, branchName string, remoteName string) (bool, error) {
	prompter.writeLine(errorStyle.Render(fmt.Sprintf(forcePushHeadingTemplate, repositoryPath, branchName, remoteName)))

	response, readError := prompter.readResponse(fmt.Sprintf(forcePushQuestionTemplate, forcePushPhraseConstant))
	if readError != nil {
		return false, readError
	}
	return response == forcePushPhraseConstant, nil
}

// NotifyAutoResolved reports automatically resolved gitlink conflicts.
func (prompter *ConsolePrompter) NotifyAutoResolved(repositoryPath string, resolvedCommits []conflict.ResolvedCommit) {
	prompter.writeLine(successStyle.Render(fmt.Sprintf(autoResolvedHeadingTemplate, repositoryPath, len(resolvedCommits))))
	for _, resolvedCommit := range resolvedCommits {
		prompter.writeLine(detailStyle.Render(fmt.Sprintf(autoResolvedEntryTemplate,
			resolvedCommit.SubmodulePath,
			shortHash(resolvedCommit.OldHash),
			shortHash(resolvedCommit.NewHash),
			resolvedCommit.SourceRepository,
		)))
		if resolvedCommit.SubjectMismatch {
			prompter.writeLine(warningStyle.Render(fmt.Sprintf(subjectMismatchNoteTemplate, resolvedCommit.OldSubject, resolvedCommit.NewSubject)))
		}
	}
}

// ConfirmManualResolution lists unresolved paths and guidance, then waits for
// the operator to either continue or abandon the rebase.
func (prompter *ConsolePrompter) ConfirmManualResolution(repositoryPath string, conflictedPaths []string, guidanceMessages []string) (bool, error) {
	prompter.writeLine(headingStyle.Render(fmt.Sprintf(manualConflictHeadingTemplate, repositoryPath, len(conflictedPaths))))
	for _, conflictedPath := range conflictedPaths {
		prompter.writeLine(errorStyle.Render(fmt.Sprintf(manualConflictPathTemplate, conflictedPath)))
	}
	for _, guidanceMessage := range guidanceMessages {
		prompter.writeLine(detailStyle.Render(fmt.Sprintf(manualGuidanceTemplate, guidanceMessage)))
	}

	return prompter.confirm(manualResolutionQuestionConstant)
}

func describeBranch(branchName string) string {
	if branchName == "" {
		return noInferredBranchConstant
	}
	return branchName
}

func shortHash(commitHash string) string {
	if len(commitHash) <= 8 {
		return commitHash
	}
	return commitHash[:8]
}
