package gitrepo

import (
	"context"
	"time"
)

// IndexStageIncoming identifies the incoming ("theirs") side of an unmerged index entry during a rebase.
const IndexStageIncoming = 3

// CommitInfo captures the identity and metadata of a single commit.
type CommitInfo struct {
	Hash        string
	Message     string
	Author      string
	AuthorEmail string
	Date        time.Time
	Parents     []string
}

// Subject returns the first line of the commit message.
func (commit CommitInfo) Subject() string {
	for index := 0; index < len(commit.Message); index++ {
		if commit.Message[index] == '\n' {
			return commit.Message[:index]
		}
	}
	return commit.Message
}

// SubmoduleDeclaration describes one submodule entry declared in .gitmodules.
type SubmoduleDeclaration struct {
	Name   string
	Path   string
	URL    string
	Branch string
}

// UnmergedEntry describes one stage of an unmerged index entry.
type UnmergedEntry struct {
	Path  string
	Stage int
	Hash  string
	Mode  string
}

// BranchTips lists the local and remote branches whose tips point at a commit.
type BranchTips struct {
	LocalBranches  []string
	RemoteBranches []string
}

// AheadBehindCounts reports how a local branch diverges from its remote counterpart.
type AheadBehindCounts struct {
	Ahead  int
	Behind int
}

// Backend is the full version-control surface the orchestration layers depend on.
type Backend interface {
	RepositoryPath() string

	BranchExists(executionContext context.Context, branchName string) (bool, error)
	RemoteBranchExists(executionContext context.Context, remoteName string, branchName string) (bool, error)
	ListLocalBranches(executionContext context.Context) ([]string, error)
	ListRemoteBranches(executionContext context.Context, remoteName string) ([]string, error)
	CurrentBranch(executionContext context.Context) (string, error)
	CheckoutBranch(executionContext context.Context, branchName string) error
	CheckoutCommit(executionContext context.Context, commitHash string) error
	CreateOrUpdateBranch(executionContext context.Context, branchName string, startPoint string) error
	HardResetTo(executionContext context.Context, reference string) error
	DeleteBranch(executionContext context.Context, branchName string, force bool) error
	CreateLocalBranchFromRemote(executionContext context.Context, branchName string, remoteName string) error

	CommitsBetween(executionContext context.Context, baseRef string, headRef string) ([]CommitInfo, error)
	RecentCommits(executionContext context.Context, reference string, limit int) ([]CommitInfo, error)
	CommitSubject(executionContext context.Context, reference string) (string, error)
	ShortHashForRef(executionContext context.Context, reference string) (string, error)
	ResolveRef(executionContext context.Context, reference string) (string, error)
	BranchesPointingAt(executionContext context.Context, commitHash string) (BranchTips, error)
	BranchesContainingCommit(executionContext context.Context, commitHash string) ([]string, error)

	StartRebase(executionContext context.Context, targetRef string) (bool, error)
	ContinueRebase(executionContext context.Context) (bool, error)
	AbortRebase(executionContext context.Context) error
	RebaseInProgress(executionContext context.Context) (bool, error)

	ConflictedPaths(executionContext context.Context) ([]string, error)
	UnmergedEntries(executionContext context.Context) ([]UnmergedEntry, error)
	StagePaths(executionContext context.Context, paths []string) error
	StagedFiles(executionContext context.Context) ([]string, error)
	HasUnstagedChanges(executionContext context.Context) (bool, error)
	IndexClean(executionContext context.Context) (bool, error)
	DirtyPaths(executionContext context.Context) ([]string, error)

	ListSubmodules(executionContext context.Context) ([]SubmoduleDeclaration, error)
	IsSubmodulePath(executionContext context.Context, candidatePath string) (bool, error)
	SubmodulePointerAt(executionContext context.Context, reference string, submodulePath string) (string, error)
	SubmoduleChangedBetween(executionContext context.Context, sourceRef string, targetRef string, submodulePath string) (bool, error)

	FetchRemote(executionContext context.Context, remoteName string) error
	ListRemotes(executionContext context.Context) ([]string, error)
	AheadBehind(executionContext context.Context, branchName string, remoteName string) (AheadBehindCounts, error)
	FastForwardToRemote(executionContext context.Context, branchName string, remoteName string) error
	PushBranch(executionContext context.Context, remoteName string, branchName string, forceWithLease bool) error
}
