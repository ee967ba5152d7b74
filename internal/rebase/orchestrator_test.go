package rebase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/conflict"
	"github.com/temirov/lockstep/internal/gitrepo"
	"github.com/temirov/lockstep/internal/hierarchy"
	"github.com/temirov/lockstep/internal/rebase"
	"github.com/temirov/lockstep/internal/tracker"
)

const (
	testSourceBranchConstant      = "feature/x"
	testTargetBranchConstant      = "main"
	testLibraryANameConstant      = "libA"
	testLibraryBNameConstant      = "libB"
	testRemoteNameConstant        = "origin"
	testOtherRemoteNameConstant   = "fork"
	testOldCommitHashConstant     = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testNewCommitHashConstant     = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testSourcePointerHashConstant = "cccccccccccccccccccccccccccccccccccccccc"
	testTargetPointerHashConstant = "dddddddddddddddddddddddddddddddddddddddd"
	testSharedPointerHashConstant = "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
)

type scriptedBackend struct {
	gitrepo.Backend

	repositoryPath        string
	localBranches         map[string]bool
	remoteBranches        map[string]bool
	remotes               []string
	divergence            gitrepo.AheadBehindCounts
	submodules            []gitrepo.SubmoduleDeclaration
	submodulePointers     map[string]string
	branchTips            map[string]gitrepo.BranchTips
	commitListings        [][]gitrepo.CommitInfo
	commitListingError    error
	startRebaseOutcomes   []bool
	continueOutcomes      []bool
	continueStalls        bool
	continueCallCount     int
	conflictedPaths       []string
	rebaseInProgress      bool
	checkedOutBranches    []string
	createdBranches       map[string]string
	materializedBranches  []string
	fastForwardedBranches []string
	abortedRebaseCount    int
	pushedBranches        []string
}

func newScriptedBackend(repositoryPath string) *scriptedBackend {
	return &scriptedBackend{
		repositoryPath: repositoryPath,
		localBranches: map[string]bool{
			testSourceBranchConstant: true,
			testTargetBranchConstant: true,
		},
		remoteBranches:    map[string]bool{},
		submodulePointers: map[string]string{},
		branchTips:        map[string]gitrepo.BranchTips{},
		createdBranches:   map[string]string{},
	}
}

func (backend *scriptedBackend) RepositoryPath() string { return backend.repositoryPath }

func (backend *scriptedBackend) BranchExists(executionContext context.Context, branchName string) (bool, error) {
	return backend.localBranches[branchName], nil
}

func (backend *scriptedBackend) RemoteBranchExists(executionContext context.Context, remoteName string, branchName string) (bool, error) {
	return backend.remoteBranches[remoteName+"/"+branchName], nil
}

func (backend *scriptedBackend) ListRemotes(executionContext context.Context) ([]string, error) {
	return backend.remotes, nil
}

func (backend *scriptedBackend) AheadBehind(executionContext context.Context, branchName string, remoteName string) (gitrepo.AheadBehindCounts, error) {
	return backend.divergence, nil
}

func (backend *scriptedBackend) ListSubmodules(executionContext context.Context) ([]gitrepo.SubmoduleDeclaration, error) {
	return backend.submodules, nil
}

func (backend *scriptedBackend) SubmodulePointerAt(executionContext context.Context, reference string, submodulePath string) (string, error) {
	return backend.submodulePointers[reference+"|"+submodulePath], nil
}

func (backend *scriptedBackend) BranchesPointingAt(executionContext context.Context, commitHash string) (gitrepo.BranchTips, error) {
	return backend.branchTips[commitHash], nil
}

func (backend *scriptedBackend) CommitsBetween(executionContext context.Context, baseRef string, headRef string) ([]gitrepo.CommitInfo, error) {
	if backend.commitListingError != nil {
		return nil, backend.commitListingError
	}
	if len(backend.commitListings) == 0 {
		return nil, nil
	}
	nextListing := backend.commitListings[0]
	backend.commitListings = backend.commitListings[1:]
	return nextListing, nil
}

func (backend *scriptedBackend) CheckoutBranch(executionContext context.Context, branchName string) error {
	backend.checkedOutBranches = append(backend.checkedOutBranches, branchName)
	return nil
}

func (backend *scriptedBackend) CreateOrUpdateBranch(executionContext context.Context, branchName string, startPoint string) error {
	backend.createdBranches[branchName] = startPoint
	backend.localBranches[branchName] = true
	return nil
}

func (backend *scriptedBackend) CreateLocalBranchFromRemote(executionContext context.Context, branchName string, remoteName string) error {
	backend.materializedBranches = append(backend.materializedBranches, branchName)
	backend.localBranches[branchName] = true
	return nil
}

func (backend *scriptedBackend) FastForwardToRemote(executionContext context.Context, branchName string, remoteName string) error {
	backend.fastForwardedBranches = append(backend.fastForwardedBranches, branchName)
	return nil
}

func (backend *scriptedBackend) StartRebase(executionContext context.Context, targetRef string) (bool, error) {
	if len(backend.startRebaseOutcomes) == 0 {
		return true, nil
	}
	outcome := backend.startRebaseOutcomes[0]
	backend.startRebaseOutcomes = backend.startRebaseOutcomes[1:]
	return outcome, nil
}

func (backend *scriptedBackend) ContinueRebase(executionContext context.Context) (bool, error) {
	backend.continueCallCount++
	if backend.continueStalls {
		return false, nil
	}
	if len(backend.continueOutcomes) == 0 {
		return true, nil
	}
	outcome := backend.continueOutcomes[0]
	backend.continueOutcomes = backend.continueOutcomes[1:]
	return outcome, nil
}

func (backend *scriptedBackend) RebaseInProgress(executionContext context.Context) (bool, error) {
	return backend.rebaseInProgress, nil
}

func (backend *scriptedBackend) AbortRebase(executionContext context.Context) error {
	backend.abortedRebaseCount++
	backend.rebaseInProgress = false
	return nil
}

func (backend *scriptedBackend) ConflictedPaths(executionContext context.Context) ([]string, error) {
	return backend.conflictedPaths, nil
}

func (backend *scriptedBackend) IsSubmodulePath(executionContext context.Context, candidatePath string) (bool, error) {
	return false, nil
}

func (backend *scriptedBackend) DirtyPaths(executionContext context.Context) ([]string, error) {
	return nil, nil
}

func (backend *scriptedBackend) IndexClean(executionContext context.Context) (bool, error) {
	return true, nil
}

func (backend *scriptedBackend) CurrentBranch(executionContext context.Context) (string, error) {
	return testTargetBranchConstant, nil
}

func (backend *scriptedBackend) PushBranch(executionContext context.Context, remoteName string, branchName string, forceWithLease bool) error {
	backend.pushedBranches = append(backend.pushedBranches, branchName)
	return nil
}

type scriptedBackendFactory struct {
	backendsByPath map[string]*scriptedBackend
}

func (factory *scriptedBackendFactory) CreateBackend(repositoryPath string) (gitrepo.Backend, error) {
	return factory.backendsByPath[repositoryPath], nil
}

type scriptedUserPrompt struct {
	rebase.NoOpUserPrompt

	createLocalResponses []bool
	syncResponses        []rebase.SyncDecision
	inclusionResponses   []bool
	inclusionOverrides   []rebase.BranchPair
	promptedSubmodules   []string
	inferredPairs        []rebase.BranchPair
	forcePushResponses   []bool
	validationIssues     [][]rebase.ValidationIssue
}

func (prompt *scriptedUserPrompt) ConfirmCreateLocalBranch(repositoryPath string, branchName string, remoteName string) (bool, error) {
	if len(prompt.createLocalResponses) == 0 {
		return false, nil
	}
	response := prompt.createLocalResponses[0]
	prompt.createLocalResponses = prompt.createLocalResponses[1:]
	return response, nil
}

func (prompt *scriptedUserPrompt) ConfirmSyncBranch(repositoryPath string, branchName string, counts gitrepo.AheadBehindCounts) (rebase.SyncDecision, error) {
	if len(prompt.syncResponses) == 0 {
		return rebase.SyncDecisionAbort, nil
	}
	response := prompt.syncResponses[0]
	prompt.syncResponses = prompt.syncResponses[1:]
	return response, nil
}

func (prompt *scriptedUserPrompt) ConfirmSubmoduleInclusion(submodulePath string, inferredBranches rebase.BranchPair) (bool, rebase.BranchPair, error) {
	prompt.promptedSubmodules = append(prompt.promptedSubmodules, submodulePath)
	prompt.inferredPairs = append(prompt.inferredPairs, inferredBranches)
	if len(prompt.inclusionResponses) == 0 {
		return false, inferredBranches, nil
	}
	response := prompt.inclusionResponses[0]
	prompt.inclusionResponses = prompt.inclusionResponses[1:]
	chosenPair := inferredBranches
	if len(prompt.inclusionOverrides) > 0 {
		chosenPair = prompt.inclusionOverrides[0]
		prompt.inclusionOverrides = prompt.inclusionOverrides[1:]
	}
	return response, chosenPair, nil
}

func (prompt *scriptedUserPrompt) ShowValidationSummary(issues []rebase.ValidationIssue) {
	prompt.validationIssues = append(prompt.validationIssues, issues)
}

func (prompt *scriptedUserPrompt) ConfirmForcePush(repositoryPath string, branchName string, remoteName string) (bool, error) {
	if len(prompt.forcePushResponses) == 0 {
		return false, nil
	}
	response := prompt.forcePushResponses[0]
	prompt.forcePushResponses = prompt.forcePushResponses[1:]
	return response, nil
}

type orchestratorFixture struct {
	rootPath     string
	rootBackend  *scriptedBackend
	libABackend  *scriptedBackend
	libBBackend  *scriptedBackend
	prompt       *scriptedUserPrompt
	orchestrator *rebase.Orchestrator
}

// newThreeRepositoryFixture lays out root with two depth-one submodules and
// wires scripted backends behind a real discoverer and orchestrator.
func newThreeRepositoryFixture(testInstance *testing.T) *orchestratorFixture {
	rootPath := testInstance.TempDir()
	libAPath := filepath.Join(rootPath, testLibraryANameConstant)
	libBPath := filepath.Join(rootPath, testLibraryBNameConstant)
	for _, repositoryPath := range []string{rootPath, libAPath, libBPath} {
		require.NoError(testInstance, os.MkdirAll(filepath.Join(repositoryPath, ".git"), 0o755))
	}

	rootBackend := newScriptedBackend(rootPath)
	rootBackend.submodules = []gitrepo.SubmoduleDeclaration{
		{Name: testLibraryANameConstant, Path: testLibraryANameConstant},
		{Name: testLibraryBNameConstant, Path: testLibraryBNameConstant},
	}
	libABackend := newScriptedBackend(libAPath)
	libBBackend := newScriptedBackend(libBPath)

	backendFactory := &scriptedBackendFactory{backendsByPath: map[string]*scriptedBackend{
		rootPath: rootBackend,
		libAPath: libABackend,
		libBPath: libBBackend,
	}}

	globalTracker := tracker.NewGlobalTracker(zap.NewNop())
	discoverer, discovererError := hierarchy.NewDiscoverer(backendFactory, globalTracker, conflict.NoOpPrompt{}, zap.NewNop())
	require.NoError(testInstance, discovererError)

	prompt := &scriptedUserPrompt{}
	orchestrator, orchestratorError := rebase.NewOrchestrator(discoverer, globalTracker, prompt, zap.NewNop())
	require.NoError(testInstance, orchestratorError)

	return &orchestratorFixture{
		rootPath:     rootPath,
		rootBackend:  rootBackend,
		libABackend:  libABackend,
		libBBackend:  libBBackend,
		prompt:       prompt,
		orchestrator: orchestrator,
	}
}

func defaultPlanRequest(fixture *orchestratorFixture) rebase.PlanRequest {
	return rebase.PlanRequest{
		RootPath:     fixture.rootPath,
		SourceBranch: testSourceBranchConstant,
		TargetBranch: testTargetBranchConstant,
	}
}

func TestPlanIncludeSelectsExactly(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}

	operation, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.NoError(testInstance, planError)
	require.Len(testInstance, operation.States, 1)
	require.Equal(testInstance, testLibraryANameConstant, operation.States[0].Node.Name)
}

func TestPlanEmptyIncludeSelectionFails(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)

	request := defaultPlanRequest(fixture)
	request.Include = []string{"no-such-repository"}

	_, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.ErrorIs(testInstance, planError, rebase.ErrEmptyIncludeSelection)
}

func TestPlanExcludeCannotEmptySelection(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}
	request.Exclude = []string{testLibraryANameConstant}

	_, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.ErrorIs(testInstance, planError, rebase.ErrSelectionEmptied)
}

func TestPlanBranchOverridePriorityPrefersName(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)
	fixture.libABackend.localBranches["feature/by-name"] = true
	fixture.libABackend.localBranches["feature/by-path"] = true

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}
	request.BranchOverrides = map[string]rebase.BranchPair{
		testLibraryANameConstant:           {Source: "feature/by-name"},
		fixture.libABackend.repositoryPath: {Source: "feature/by-path"},
	}

	operation, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.NoError(testInstance, planError)
	require.Equal(testInstance, "feature/by-name", operation.States[0].SourceBranch)
	require.Equal(testInstance, testTargetBranchConstant, operation.States[0].TargetBranch)
}

func TestPlanCollectsEveryMissingBranch(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)
	delete(fixture.libABackend.localBranches, testSourceBranchConstant)
	delete(fixture.libBBackend.localBranches, testSourceBranchConstant)

	_, planError := fixture.orchestrator.Plan(context.Background(), defaultPlanRequest(fixture))

	var planningError rebase.PlanningError
	require.ErrorAs(testInstance, planError, &planningError)
	require.Len(testInstance, planningError.MissingBranches, 2)
	for _, missingBranch := range planningError.MissingBranches {
		require.Equal(testInstance, testSourceBranchConstant, missingBranch.BranchName)
	}
}

func TestPlanMaterializesBranchFromRemote(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)
	delete(fixture.libABackend.localBranches, testSourceBranchConstant)
	fixture.libABackend.remotes = []string{testRemoteNameConstant}
	fixture.libABackend.remoteBranches[testRemoteNameConstant+"/"+testSourceBranchConstant] = true
	fixture.prompt.createLocalResponses = []bool{true}

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}

	operation, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.NoError(testInstance, planError)
	require.Len(testInstance, operation.States, 1)
	require.Equal(testInstance, []string{testSourceBranchConstant}, fixture.libABackend.materializedBranches)
}

func TestPlanSyncAbortStopsPlanning(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)
	fixture.libABackend.remotes = []string{testRemoteNameConstant}
	fixture.libABackend.remoteBranches[testRemoteNameConstant+"/"+testSourceBranchConstant] = true
	fixture.libABackend.divergence = gitrepo.AheadBehindCounts{Ahead: 0, Behind: 3}
	fixture.prompt.syncResponses = []rebase.SyncDecision{rebase.SyncDecisionAbort}

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}

	_, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.ErrorIs(testInstance, planError, rebase.ErrPlanningAborted)
}

func TestCreateBackupsIsIdempotent(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}

	operation, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.NoError(testInstance, planError)

	require.NoError(testInstance, fixture.orchestrator.CreateBackups(context.Background(), operation))
	firstPassBranchCount := len(operation.BackupBranches)
	firstPassCreatedBranches := len(fixture.libABackend.createdBranches)

	require.NoError(testInstance, fixture.orchestrator.CreateBackups(context.Background(), operation))
	require.Equal(testInstance, firstPassBranchCount, len(operation.BackupBranches))
	require.Equal(testInstance, firstPassCreatedBranches, len(fixture.libABackend.createdBranches))
}

func TestExecuteCleanRunMapsCommits(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)

	originalCommit := gitrepo.CommitInfo{Hash: testOldCommitHashConstant, Message: "Add parser", Author: "Dev One"}
	rebasedCommit := gitrepo.CommitInfo{Hash: testNewCommitHashConstant, Message: "Add parser", Author: "Dev One"}
	fixture.libABackend.commitListings = [][]gitrepo.CommitInfo{
		{originalCommit},
		{rebasedCommit},
	}

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}

	operation, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.NoError(testInstance, planError)

	operationCompleted, executionError := fixture.orchestrator.Execute(context.Background(), operation)
	require.NoError(testInstance, executionError)
	require.True(testInstance, operationCompleted)

	repositoryState := operation.States[0]
	require.True(testInstance, repositoryState.Completed)
	require.False(testInstance, repositoryState.HadConflicts)
	require.Equal(testInstance, testNewCommitHashConstant, repositoryState.HashMapping[testOldCommitHashConstant])
	require.Equal(testInstance, []string{testSourceBranchConstant}, fixture.libABackend.checkedOutBranches)
	require.Contains(testInstance, operation.BackupBranches, fixture.libABackend.repositoryPath)
}

func TestExecuteOperatorAbortIsNotAnError(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)
	fixture.libABackend.startRebaseOutcomes = []bool{false}
	fixture.libABackend.conflictedPaths = []string{"README.md"}
	fixture.libABackend.rebaseInProgress = true

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}

	operation, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.NoError(testInstance, planError)

	operationCompleted, executionError := fixture.orchestrator.Execute(context.Background(), operation)
	require.NoError(testInstance, executionError)
	require.False(testInstance, operationCompleted)
	require.False(testInstance, operation.States[0].Completed)
	require.True(testInstance, operation.States[0].HadConflicts)
	require.Equal(testInstance, 1, fixture.libABackend.abortedRebaseCount)
}

func TestExecuteRebaseStoppedWithoutConflictsFailsRepository(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)
	fixture.libABackend.startRebaseOutcomes = []bool{false}
	fixture.libABackend.continueStalls = true
	fixture.libABackend.rebaseInProgress = true

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}

	operation, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.NoError(testInstance, planError)

	operationCompleted, executionError := fixture.orchestrator.Execute(context.Background(), operation)
	require.ErrorIs(testInstance, executionError, rebase.ErrRebaseStalled)

	var detailedError rebase.ExecutionError
	require.ErrorAs(testInstance, executionError, &detailedError)
	require.Equal(testInstance, fixture.libABackend.repositoryPath, detailedError.RepositoryPath)

	require.False(testInstance, operationCompleted)
	require.False(testInstance, operation.States[0].Completed)
	require.Equal(testInstance, 0, fixture.libABackend.continueCallCount)
	require.Equal(testInstance, 1, fixture.libABackend.abortedRebaseCount)
}

func TestPlanCommitListingFailureIsPlanningError(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)
	listingFailure := errors.New("object store unavailable")
	fixture.libABackend.commitListingError = listingFailure

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}

	_, planError := fixture.orchestrator.Plan(context.Background(), request)

	var planningError rebase.PlanningError
	require.ErrorAs(testInstance, planError, &planningError)
	require.ErrorIs(testInstance, planError, listingFailure)
	require.Contains(testInstance, planningError.Reason, fixture.libABackend.repositoryPath)
}

func TestPlanAutoIncludesOnlyChangedSubmodules(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)

	fixture.rootBackend.submodulePointers[testSourceBranchConstant+"|"+testLibraryANameConstant] = testSourcePointerHashConstant
	fixture.rootBackend.submodulePointers[testTargetBranchConstant+"|"+testLibraryANameConstant] = testTargetPointerHashConstant
	fixture.rootBackend.submodulePointers[testSourceBranchConstant+"|"+testLibraryBNameConstant] = testSharedPointerHashConstant
	fixture.rootBackend.submodulePointers[testTargetBranchConstant+"|"+testLibraryBNameConstant] = testSharedPointerHashConstant

	fixture.libABackend.branchTips[testSourcePointerHashConstant] = gitrepo.BranchTips{LocalBranches: []string{testSourceBranchConstant}}
	fixture.libABackend.branchTips[testTargetPointerHashConstant] = gitrepo.BranchTips{LocalBranches: []string{testTargetBranchConstant}}
	fixture.prompt.inclusionResponses = []bool{true}

	operation, planError := fixture.orchestrator.PlanAuto(context.Background(), rebase.AutoPlanRequest{
		RootPath:     fixture.rootPath,
		SourceBranch: testSourceBranchConstant,
		TargetBranch: testTargetBranchConstant,
	})
	require.NoError(testInstance, planError)

	require.Equal(testInstance, []string{testLibraryANameConstant}, fixture.prompt.promptedSubmodules)
	require.Equal(testInstance,
		rebase.BranchPair{Source: testSourceBranchConstant, Target: testTargetBranchConstant},
		fixture.prompt.inferredPairs[0],
	)

	require.Len(testInstance, operation.States, 2)
	require.Equal(testInstance, testLibraryANameConstant, operation.States[0].Node.Name)
	require.Equal(testInstance, testSourceBranchConstant, operation.States[0].SourceBranch)
	require.Equal(testInstance, 0, operation.States[1].Node.Depth)
}

func TestPlanAutoReadsPointersFromRemoteWhenLocalBranchMissing(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)

	delete(fixture.rootBackend.localBranches, testSourceBranchConstant)
	fixture.rootBackend.remotes = []string{testOtherRemoteNameConstant, testRemoteNameConstant}
	fixture.rootBackend.remoteBranches[testOtherRemoteNameConstant+"/"+testSourceBranchConstant] = true
	fixture.rootBackend.remoteBranches[testRemoteNameConstant+"/"+testSourceBranchConstant] = true

	remoteSourceRef := testRemoteNameConstant + "/" + testSourceBranchConstant
	fixture.rootBackend.submodulePointers[remoteSourceRef+"|"+testLibraryANameConstant] = testSourcePointerHashConstant
	fixture.rootBackend.submodulePointers[testTargetBranchConstant+"|"+testLibraryANameConstant] = testTargetPointerHashConstant
	fixture.rootBackend.submodulePointers[remoteSourceRef+"|"+testLibraryBNameConstant] = testSharedPointerHashConstant
	fixture.rootBackend.submodulePointers[testTargetBranchConstant+"|"+testLibraryBNameConstant] = testSharedPointerHashConstant

	fixture.libABackend.branchTips[testSourcePointerHashConstant] = gitrepo.BranchTips{LocalBranches: []string{testSourceBranchConstant}}
	fixture.libABackend.branchTips[testTargetPointerHashConstant] = gitrepo.BranchTips{LocalBranches: []string{testTargetBranchConstant}}
	fixture.prompt.inclusionResponses = []bool{true}
	fixture.prompt.createLocalResponses = []bool{true}

	operation, planError := fixture.orchestrator.PlanAuto(context.Background(), rebase.AutoPlanRequest{
		RootPath:     fixture.rootPath,
		SourceBranch: testSourceBranchConstant,
		TargetBranch: testTargetBranchConstant,
	})
	require.NoError(testInstance, planError)

	require.Equal(testInstance, []string{testLibraryANameConstant}, fixture.prompt.promptedSubmodules)
	require.Len(testInstance, operation.States, 2)
	require.Equal(testInstance, testLibraryANameConstant, operation.States[0].Node.Name)
}

func TestPushRebasedBranchesRespectsConfirmation(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)

	request := defaultPlanRequest(fixture)
	request.Include = []string{testLibraryANameConstant}

	operation, planError := fixture.orchestrator.Plan(context.Background(), request)
	require.NoError(testInstance, planError)
	operation.States[0].Completed = true

	fixture.prompt.forcePushResponses = []bool{false}
	require.NoError(testInstance, fixture.orchestrator.PushRebasedBranches(context.Background(), operation))
	require.Empty(testInstance, fixture.libABackend.pushedBranches)

	fixture.prompt.forcePushResponses = []bool{true}
	require.NoError(testInstance, fixture.orchestrator.PushRebasedBranches(context.Background(), operation))
	require.Equal(testInstance, []string{testSourceBranchConstant}, fixture.libABackend.pushedBranches)
}

func TestValidateReportsPreconditionIssues(testInstance *testing.T) {
	fixture := newThreeRepositoryFixture(testInstance)
	delete(fixture.libBBackend.localBranches, testTargetBranchConstant)

	issues, validationError := fixture.orchestrator.Validate(context.Background(), fixture.rootPath, rebase.BranchPair{
		Source: testSourceBranchConstant,
		Target: testTargetBranchConstant,
	})
	require.NoError(testInstance, validationError)
	require.Len(testInstance, issues, 1)
	require.Equal(testInstance, fixture.libBBackend.repositoryPath, issues[0].RepositoryPath)
	require.Len(testInstance, fixture.prompt.validationIssues, 1)
}
