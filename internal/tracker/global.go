package tracker

import (
	"sync"

	"go.uber.org/zap"
)

// GlobalTracker aggregates per-repository trackers so a commit hash recorded in
// any repository can be resolved without knowing which repository rewrote it.
type GlobalTracker struct {
	logger          *zap.Logger
	mutex           sync.Mutex
	repositoryOrder []string
	trackersByName  map[string]*Tracker
}

// NewGlobalTracker constructs an empty cross-repository tracker.
func NewGlobalTracker(logger *zap.Logger) *GlobalTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GlobalTracker{
		logger:         logger,
		trackersByName: map[string]*Tracker{},
	}
}

// GetTracker returns the tracker for the named repository, creating it on first use.
func (globalTracker *GlobalTracker) GetTracker(repositoryName string) *Tracker {
	globalTracker.mutex.Lock()
	defer globalTracker.mutex.Unlock()

	existingTracker, trackerExists := globalTracker.trackersByName[repositoryName]
	if trackerExists {
		return existingTracker
	}

	createdTracker := NewTracker(repositoryName, globalTracker.logger)
	globalTracker.trackersByName[repositoryName] = createdTracker
	globalTracker.repositoryOrder = append(globalTracker.repositoryOrder, repositoryName)
	return createdTracker
}

// ResolveCrossRepoHash scans every repository tracker in registration order and
// returns the repository name and rewritten hash recorded for the original hash.
func (globalTracker *GlobalTracker) ResolveCrossRepoHash(oldHash string) (string, string, bool) {
	globalTracker.mutex.Lock()
	defer globalTracker.mutex.Unlock()

	for _, repositoryName := range globalTracker.repositoryOrder {
		repositoryTracker := globalTracker.trackersByName[repositoryName]
		newHash, mappingExists := repositoryTracker.GetNewHash(oldHash)
		if mappingExists {
			return repositoryName, newHash, true
		}
	}
	return "", "", false
}

// RepositoryNames returns the tracked repository names in registration order.
func (globalTracker *GlobalTracker) RepositoryNames() []string {
	globalTracker.mutex.Lock()
	defer globalTracker.mutex.Unlock()

	duplicatedNames := make([]string, len(globalTracker.repositoryOrder))
	copy(duplicatedNames, globalTracker.repositoryOrder)
	return duplicatedNames
}
