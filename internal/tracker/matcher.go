package tracker

import (
	"strings"

	"github.com/temirov/lockstep/internal/gitrepo"
)

const (
	exactMatchStrategyNameConstant   = "exact"
	similarMatchStrategyNameConstant = "similar"
	authorMatchStrategyNameConstant  = "author"
)

// MatchStrategy decides whether a rewritten commit corresponds to an original commit.
type MatchStrategy interface {
	// Name identifies the strategy in logs and match records.
	Name() string
	// Matches reports whether the candidate rewritten commit corresponds to the original.
	Matches(originalCommit gitrepo.CommitInfo, candidateCommit gitrepo.CommitInfo) bool
}

// ExactMatchStrategy pairs commits whose message and author are identical.
type ExactMatchStrategy struct{}

// Name identifies the strategy.
func (ExactMatchStrategy) Name() string {
	return exactMatchStrategyNameConstant
}

// Matches reports whether message and author are identical.
func (ExactMatchStrategy) Matches(originalCommit gitrepo.CommitInfo, candidateCommit gitrepo.CommitInfo) bool {
	return originalCommit.Message == candidateCommit.Message && originalCommit.Author == candidateCommit.Author
}

// SimilarMatchStrategy pairs commits by the same author whose normalized messages
// are equal or contain one another.
type SimilarMatchStrategy struct{}

// Name identifies the strategy.
func (SimilarMatchStrategy) Name() string {
	return similarMatchStrategyNameConstant
}

// Matches reports whether the normalized messages are equal or one contains the other.
func (SimilarMatchStrategy) Matches(originalCommit gitrepo.CommitInfo, candidateCommit gitrepo.CommitInfo) bool {
	if originalCommit.Author != candidateCommit.Author {
		return false
	}

	normalizedOriginal := normalizeCommitMessage(originalCommit.Message)
	normalizedCandidate := normalizeCommitMessage(candidateCommit.Message)
	if len(normalizedOriginal) == 0 || len(normalizedCandidate) == 0 {
		return false
	}
	if normalizedOriginal == normalizedCandidate {
		return true
	}
	return strings.Contains(normalizedOriginal, normalizedCandidate) || strings.Contains(normalizedCandidate, normalizedOriginal)
}

// AuthorMatchStrategy pairs commits by author identity alone, used as the last resort
// inside the match window.
type AuthorMatchStrategy struct{}

// Name identifies the strategy.
func (AuthorMatchStrategy) Name() string {
	return authorMatchStrategyNameConstant
}

// Matches reports whether the commits share an author.
func (AuthorMatchStrategy) Matches(originalCommit gitrepo.CommitInfo, candidateCommit gitrepo.CommitInfo) bool {
	return originalCommit.Author == candidateCommit.Author
}

// DefaultMatchStrategies returns the ordered strategy chain applied inside the match window.
func DefaultMatchStrategies() []MatchStrategy {
	return []MatchStrategy{
		ExactMatchStrategy{},
		SimilarMatchStrategy{},
		AuthorMatchStrategy{},
	}
}

func normalizeCommitMessage(commitMessage string) string {
	return strings.Join(strings.Fields(strings.ToLower(commitMessage)), " ")
}
