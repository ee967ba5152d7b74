package ui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/lockstep/internal/conflict"
	"github.com/temirov/lockstep/internal/gitrepo"
	"github.com/temirov/lockstep/internal/rebase"
	"github.com/temirov/lockstep/internal/ui"
)

const (
	testRepositoryPathConstant = "/tmp/project"
	testBranchNameConstant     = "feature/x"
	testRemoteNameConstant     = "origin"
)

func newPrompterWithInput(input string) (*ui.ConsolePrompter, *bytes.Buffer) {
	output := &bytes.Buffer{}
	return ui.NewConsolePrompter(strings.NewReader(input), output), output
}

func TestConfirmCreateLocalBranchResponses(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "short affirmative", input: "y\n", expected: true},
		{name: "long affirmative", input: "YES\n", expected: true},
		{name: "negative", input: "n\n", expected: false},
		{name: "empty defaults to no", input: "\n", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			prompter, output := newPrompterWithInput(testCase.input)
			confirmed, confirmError := prompter.ConfirmCreateLocalBranch(testRepositoryPathConstant, testBranchNameConstant, testRemoteNameConstant)
			require.NoError(subtest, confirmError)
			require.Equal(subtest, testCase.expected, confirmed)
			require.Contains(subtest, output.String(), testBranchNameConstant)
		})
	}
}

func TestConfirmSyncBranchChoices(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected rebase.SyncDecision
	}{
		{name: "fast forward", input: "f\n", expected: rebase.SyncDecisionFastForward},
		{name: "use remote", input: "r\n", expected: rebase.SyncDecisionUseRemote},
		{name: "skip", input: "s\n", expected: rebase.SyncDecisionSkip},
		{name: "explicit abort", input: "a\n", expected: rebase.SyncDecisionAbort},
		{name: "unrecognized aborts", input: "x\n", expected: rebase.SyncDecisionAbort},
		{name: "empty aborts", input: "\n", expected: rebase.SyncDecisionAbort},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			prompter, _ := newPrompterWithInput(testCase.input)
			decision, decisionError := prompter.ConfirmSyncBranch(testRepositoryPathConstant, testBranchNameConstant, gitrepo.AheadBehindCounts{Behind: 2})
			require.NoError(subtest, decisionError)
			require.Equal(subtest, testCase.expected, decision)
		})
	}
}

func TestConfirmSubmoduleInclusionKeepsInferredBranchesOnEmptyInput(testInstance *testing.T) {
	prompter, _ := newPrompterWithInput("y\n\n\n")
	inferredBranches := rebase.BranchPair{Source: "feature/x", Target: "main"}

	included, chosenBranches, promptError := prompter.ConfirmSubmoduleInclusion("libs/x", inferredBranches)
	require.NoError(testInstance, promptError)
	require.True(testInstance, included)
	require.Equal(testInstance, inferredBranches, chosenBranches)
}

func TestConfirmSubmoduleInclusionAcceptsOverrides(testInstance *testing.T) {
	prompter, _ := newPrompterWithInput("y\nfeature/other\nrelease\n")

	included, chosenBranches, promptError := prompter.ConfirmSubmoduleInclusion("libs/x", rebase.BranchPair{Source: "feature/x", Target: "main"})
	require.NoError(testInstance, promptError)
	require.True(testInstance, included)
	require.Equal(testInstance, rebase.BranchPair{Source: "feature/other", Target: "release"}, chosenBranches)
}

func TestConfirmSubmoduleInclusionDeclined(testInstance *testing.T) {
	prompter, _ := newPrompterWithInput("n\n")

	included, _, promptError := prompter.ConfirmSubmoduleInclusion("libs/x", rebase.BranchPair{})
	require.NoError(testInstance, promptError)
	require.False(testInstance, included)
}

func TestConfirmForcePushRequiresExactPhrase(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "exact phrase confirms", input: "FORCE PUSH\n", expected: true},
		{name: "lowercase declines", input: "force push\n", expected: false},
		{name: "affirmative word declines", input: "yes\n", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			prompter, _ := newPrompterWithInput(testCase.input)
			confirmed, confirmError := prompter.ConfirmForcePush(testRepositoryPathConstant, testBranchNameConstant, testRemoteNameConstant)
			require.NoError(subtest, confirmError)
			require.Equal(subtest, testCase.expected, confirmed)
		})
	}
}

func TestConfirmManualResolutionListsPathsAndGuidance(testInstance *testing.T) {
	prompter, output := newPrompterWithInput("y\n")

	confirmed, confirmError := prompter.ConfirmManualResolution(testRepositoryPathConstant,
		[]string{"README.md"},
		[]string{"resolve README.md manually and stage it"},
	)
	require.NoError(testInstance, confirmError)
	require.True(testInstance, confirmed)
	require.Contains(testInstance, output.String(), "README.md")
}

func TestNotifyAutoResolvedFlagsSubjectMismatch(testInstance *testing.T) {
	prompter, output := newPrompterWithInput("")

	prompter.NotifyAutoResolved(testRepositoryPathConstant, []conflict.ResolvedCommit{{
		SubmodulePath:    "libs/x",
		OldHash:          "3333333333333333333333333333333333333333",
		NewHash:          "4444444444444444444444444444444444444444",
		SourceRepository: "libs/x",
		OldSubject:       "Add parser",
		NewSubject:       "Add parser (rebased)",
		SubjectMismatch:  true,
	}})

	renderedOutput := output.String()
	require.Contains(testInstance, renderedOutput, "33333333")
	require.Contains(testInstance, renderedOutput, "44444444")
	require.Contains(testInstance, renderedOutput, "Add parser (rebased)")
}
