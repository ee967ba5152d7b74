package tracker_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/gitrepo"
	"github.com/temirov/lockstep/internal/tracker"
)

const (
	testRepositoryNameConstant           = "parent"
	testChildRepositoryNameConstant      = "libs/x"
	testExactMatchCaseNameConstant       = "identical_message_and_author_matches_exact"
	testSimilarMatchCaseNameConstant     = "normalized_message_matches_similar"
	testContainmentMatchCaseNameConstant = "substring_containment_matches_similar"
	testAuthorFallbackCaseNameConstant   = "author_fallback_within_window"
	testDifferentAuthorCaseNameConstant  = "different_author_never_matches_similar"
	testAuthorAliceConstant              = "Alice"
	testAuthorBobConstant                = "Bob"
)

func buildCommit(hash string, message string, author string) gitrepo.CommitInfo {
	return gitrepo.CommitInfo{
		Hash:        hash,
		Message:     message,
		Author:      author,
		AuthorEmail: author + "@example.com",
		Date:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestTrackerMapCommitsStrategies(testInstance *testing.T) {
	testCases := []struct {
		name             string
		originalCommits  []gitrepo.CommitInfo
		rewrittenCommits []gitrepo.CommitInfo
		expectedPairs    map[string]string
		expectedStrategy map[string]string
	}{
		{
			name: testExactMatchCaseNameConstant,
			originalCommits: []gitrepo.CommitInfo{
				buildCommit("old2", "Add login form", testAuthorAliceConstant),
				buildCommit("old1", "Initial commit", testAuthorAliceConstant),
			},
			rewrittenCommits: []gitrepo.CommitInfo{
				buildCommit("new2", "Add login form", testAuthorAliceConstant),
				buildCommit("new1", "Initial commit", testAuthorAliceConstant),
			},
			expectedPairs:    map[string]string{"old1": "new1", "old2": "new2"},
			expectedStrategy: map[string]string{"old1": "exact", "old2": "exact"},
		},
		{
			name: testSimilarMatchCaseNameConstant,
			originalCommits: []gitrepo.CommitInfo{
				buildCommit("old1", "Fix  Parser   Bug", testAuthorAliceConstant),
			},
			rewrittenCommits: []gitrepo.CommitInfo{
				buildCommit("new1", "fix parser bug", testAuthorAliceConstant),
			},
			expectedPairs:    map[string]string{"old1": "new1"},
			expectedStrategy: map[string]string{"old1": "similar"},
		},
		{
			name: testContainmentMatchCaseNameConstant,
			originalCommits: []gitrepo.CommitInfo{
				buildCommit("old1", "Fix parser bug", testAuthorAliceConstant),
			},
			rewrittenCommits: []gitrepo.CommitInfo{
				buildCommit("new1", "Fix parser bug (cherry picked)", testAuthorAliceConstant),
			},
			expectedPairs:    map[string]string{"old1": "new1"},
			expectedStrategy: map[string]string{"old1": "similar"},
		},
		{
			name: testAuthorFallbackCaseNameConstant,
			originalCommits: []gitrepo.CommitInfo{
				buildCommit("old1", "Rework storage layout", testAuthorAliceConstant),
			},
			rewrittenCommits: []gitrepo.CommitInfo{
				buildCommit("new1", "Completely different subject", testAuthorAliceConstant),
			},
			expectedPairs:    map[string]string{"old1": "new1"},
			expectedStrategy: map[string]string{"old1": "author"},
		},
		{
			name: testDifferentAuthorCaseNameConstant,
			originalCommits: []gitrepo.CommitInfo{
				buildCommit("old1", "Fix parser bug", testAuthorAliceConstant),
			},
			rewrittenCommits: []gitrepo.CommitInfo{
				buildCommit("new1", "Fix parser bug", testAuthorBobConstant),
			},
			expectedPairs:    map[string]string{},
			expectedStrategy: map[string]string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			commitTracker := tracker.NewTracker(testRepositoryNameConstant, zap.NewNop())

			recordedMappings := commitTracker.MapCommits(testCase.originalCommits, testCase.rewrittenCommits)
			require.Len(testInstance, recordedMappings, len(testCase.expectedPairs))

			for oldHash, expectedNewHash := range testCase.expectedPairs {
				newHash, mappingExists := commitTracker.GetNewHash(oldHash)
				require.True(testInstance, mappingExists)
				require.Equal(testInstance, expectedNewHash, newHash)

				resolvedOldHash, reverseExists := commitTracker.GetOldHash(newHash)
				require.True(testInstance, reverseExists)
				require.Equal(testInstance, oldHash, resolvedOldHash)
			}

			for _, recordedMapping := range recordedMappings {
				require.Equal(testInstance, testCase.expectedStrategy[recordedMapping.OldHash], recordedMapping.Strategy)
			}
		})
	}
}

func TestTrackerMapCommitsRespectsWindow(testInstance *testing.T) {
	originalCommits := []gitrepo.CommitInfo{
		buildCommit("old1", "Only commit", testAuthorAliceConstant),
	}

	rewrittenCommits := make([]gitrepo.CommitInfo, 0, tracker.MatchWindowSize+1)
	for commitIndex := tracker.MatchWindowSize; commitIndex >= 0; commitIndex-- {
		author := testAuthorBobConstant
		if commitIndex == tracker.MatchWindowSize {
			author = testAuthorAliceConstant
		}
		rewrittenCommits = append(rewrittenCommits, buildCommit(fmt.Sprintf("new%d", commitIndex), fmt.Sprintf("Unrelated %d", commitIndex), author))
	}

	commitTracker := tracker.NewTracker(testRepositoryNameConstant, zap.NewNop())
	recordedMappings := commitTracker.MapCommits(originalCommits, rewrittenCommits)
	require.Empty(testInstance, recordedMappings)
}

func TestTrackerEachRewrittenCommitMatchedOnce(testInstance *testing.T) {
	originalCommits := []gitrepo.CommitInfo{
		buildCommit("old2", "Repeated subject", testAuthorAliceConstant),
		buildCommit("old1", "Repeated subject", testAuthorAliceConstant),
	}
	rewrittenCommits := []gitrepo.CommitInfo{
		buildCommit("new2", "Repeated subject", testAuthorAliceConstant),
		buildCommit("new1", "Repeated subject", testAuthorAliceConstant),
	}

	commitTracker := tracker.NewTracker(testRepositoryNameConstant, zap.NewNop())
	recordedMappings := commitTracker.MapCommits(originalCommits, rewrittenCommits)
	require.Len(testInstance, recordedMappings, 2)

	seenNewHashes := map[string]bool{}
	for _, recordedMapping := range recordedMappings {
		require.False(testInstance, seenNewHashes[recordedMapping.NewHash])
		seenNewHashes[recordedMapping.NewHash] = true
	}
}

func TestGlobalTrackerResolveCrossRepoHash(testInstance *testing.T) {
	globalTracker := tracker.NewGlobalTracker(zap.NewNop())

	parentTracker := globalTracker.GetTracker(testRepositoryNameConstant)
	childTracker := globalTracker.GetTracker(testChildRepositoryNameConstant)
	require.Same(testInstance, parentTracker, globalTracker.GetTracker(testRepositoryNameConstant))

	childTracker.AddMapping("childOld", "childNew")
	parentTracker.AddMapping("parentOld", "parentNew")

	repositoryName, newHash, resolved := globalTracker.ResolveCrossRepoHash("childOld")
	require.True(testInstance, resolved)
	require.Equal(testInstance, testChildRepositoryNameConstant, repositoryName)
	require.Equal(testInstance, "childNew", newHash)

	_, _, unresolved := globalTracker.ResolveCrossRepoHash("missing")
	require.False(testInstance, unresolved)

	require.Equal(testInstance, []string{testRepositoryNameConstant, testChildRepositoryNameConstant}, globalTracker.RepositoryNames())
}
