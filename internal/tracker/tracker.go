package tracker

import (
	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/gitrepo"
)

// MatchWindowSize bounds how far ahead of the positional index a rewritten
// commit may sit and still be considered a match candidate.
const MatchWindowSize = 3

const (
	repositoryNameLogFieldConstant = "repository_name"
	oldHashLogFieldConstant        = "old_hash"
	newHashLogFieldConstant        = "new_hash"
	strategyLogFieldConstant       = "strategy"
	commitSubjectLogFieldConstant  = "commit_subject"
	mappingRecordedMessageConstant = "Recorded commit mapping"
	commitUnmatchedMessageConstant = "No rewritten counterpart found for commit"
	commitsMappedMessageConstant   = "Mapped rebased commits"
	mappedCountLogFieldConstant    = "mapped_count"
	unmatchedCountLogFieldConstant = "unmatched_count"
)

// CommitMapping records one resolved old-to-new commit identity pair.
type CommitMapping struct {
	OldHash         string
	NewHash         string
	Strategy        string
	OriginalCommit  gitrepo.CommitInfo
	RewrittenCommit gitrepo.CommitInfo
}

// Tracker maintains the commit identity mapping for one repository.
type Tracker struct {
	repositoryName  string
	matchStrategies []MatchStrategy
	logger          *zap.Logger
	newHashesByOld  map[string]string
	oldHashesByNew  map[string]string
	mappings        []CommitMapping
}

// NewTracker constructs a tracker for the named repository using the default strategy chain.
func NewTracker(repositoryName string, logger *zap.Logger) *Tracker {
	return NewTrackerWithStrategies(repositoryName, DefaultMatchStrategies(), logger)
}

// NewTrackerWithStrategies constructs a tracker with an explicit ordered strategy chain.
func NewTrackerWithStrategies(repositoryName string, matchStrategies []MatchStrategy, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		repositoryName:  repositoryName,
		matchStrategies: matchStrategies,
		logger:          logger,
		newHashesByOld:  map[string]string{},
		oldHashesByNew:  map[string]string{},
	}
}

// RepositoryName returns the repository this tracker belongs to.
func (commitTracker *Tracker) RepositoryName() string {
	return commitTracker.repositoryName
}

// AddMapping records an old-to-new hash pair discovered outside of list matching.
func (commitTracker *Tracker) AddMapping(oldHash string, newHash string) {
	commitTracker.recordMapping(CommitMapping{OldHash: oldHash, NewHash: newHash})
}

// GetNewHash returns the rewritten hash recorded for the original hash.
func (commitTracker *Tracker) GetNewHash(oldHash string) (string, bool) {
	newHash, mappingExists := commitTracker.newHashesByOld[oldHash]
	return newHash, mappingExists
}

// GetOldHash returns the original hash recorded for the rewritten hash.
func (commitTracker *Tracker) GetOldHash(newHash string) (string, bool) {
	oldHash, mappingExists := commitTracker.oldHashesByNew[newHash]
	return oldHash, mappingExists
}

// Mappings returns every recorded mapping in insertion order.
func (commitTracker *Tracker) Mappings() []CommitMapping {
	duplicatedMappings := make([]CommitMapping, len(commitTracker.mappings))
	copy(duplicatedMappings, commitTracker.mappings)
	return duplicatedMappings
}

// MapCommits matches the pre-rebase commit list against the rewritten list and
// records a mapping for every commit it can pair. Both lists arrive newest
// first; matching proceeds in chronological order so positional drift stays
// within the match window. Unmatched commits are logged and skipped.
func (commitTracker *Tracker) MapCommits(originalCommits []gitrepo.CommitInfo, rewrittenCommits []gitrepo.CommitInfo) []CommitMapping {
	chronologicalOriginals := reverseCommits(originalCommits)
	chronologicalRewrites := reverseCommits(rewrittenCommits)

	consumedRewrites := make([]bool, len(chronologicalRewrites))
	recordedMappings := []CommitMapping{}
	unmatchedCount := 0

	for originalIndex, originalCommit := range chronologicalOriginals {
		matchedMapping, matched := commitTracker.matchWithinWindow(originalCommit, originalIndex, chronologicalRewrites, consumedRewrites)
		if !matched {
			unmatchedCount++
			commitTracker.logger.Debug(commitUnmatchedMessageConstant,
				zap.String(repositoryNameLogFieldConstant, commitTracker.repositoryName),
				zap.String(oldHashLogFieldConstant, originalCommit.Hash),
				zap.String(commitSubjectLogFieldConstant, originalCommit.Subject()),
			)
			continue
		}

		commitTracker.recordMapping(matchedMapping)
		recordedMappings = append(recordedMappings, matchedMapping)
	}

	commitTracker.logger.Debug(commitsMappedMessageConstant,
		zap.String(repositoryNameLogFieldConstant, commitTracker.repositoryName),
		zap.Int(mappedCountLogFieldConstant, len(recordedMappings)),
		zap.Int(unmatchedCountLogFieldConstant, unmatchedCount),
	)
	return recordedMappings
}

func (commitTracker *Tracker) matchWithinWindow(originalCommit gitrepo.CommitInfo, originalIndex int, chronologicalRewrites []gitrepo.CommitInfo, consumedRewrites []bool) (CommitMapping, bool) {
	windowEnd := originalIndex + MatchWindowSize
	if windowEnd > len(chronologicalRewrites) {
		windowEnd = len(chronologicalRewrites)
	}

	for _, matchStrategy := range commitTracker.matchStrategies {
		for candidateIndex := originalIndex; candidateIndex < windowEnd; candidateIndex++ {
			if consumedRewrites[candidateIndex] {
				continue
			}

			candidateCommit := chronologicalRewrites[candidateIndex]
			if !matchStrategy.Matches(originalCommit, candidateCommit) {
				continue
			}

			consumedRewrites[candidateIndex] = true
			return CommitMapping{
				OldHash:         originalCommit.Hash,
				NewHash:         candidateCommit.Hash,
				Strategy:        matchStrategy.Name(),
				OriginalCommit:  originalCommit,
				RewrittenCommit: candidateCommit,
			}, true
		}
	}
	return CommitMapping{}, false
}

func (commitTracker *Tracker) recordMapping(mapping CommitMapping) {
	commitTracker.newHashesByOld[mapping.OldHash] = mapping.NewHash
	commitTracker.oldHashesByNew[mapping.NewHash] = mapping.OldHash
	commitTracker.mappings = append(commitTracker.mappings, mapping)

	commitTracker.logger.Debug(mappingRecordedMessageConstant,
		zap.String(repositoryNameLogFieldConstant, commitTracker.repositoryName),
		zap.String(oldHashLogFieldConstant, mapping.OldHash),
		zap.String(newHashLogFieldConstant, mapping.NewHash),
		zap.String(strategyLogFieldConstant, mapping.Strategy),
	)
}

func reverseCommits(commits []gitrepo.CommitInfo) []gitrepo.CommitInfo {
	reversed := make([]gitrepo.CommitInfo, len(commits))
	for commitIndex, commit := range commits {
		reversed[len(commits)-1-commitIndex] = commit
	}
	return reversed
}
