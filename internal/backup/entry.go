package backup

import (
	"fmt"
	"strings"
	"time"
)

const (
	// BranchPrefix namespaces every backup branch created by this tool.
	BranchPrefix = "lockstep/backup/"

	sessionTimestampLayoutConstant = "20060102-150405"
	branchNameTemplateConstant     = "%s%s/%s"
	branchSeparatorConstant        = "/"
)

// Entry identifies one backup branch.
type Entry struct {
	OriginalBranch string
	Session        string
	BranchName     string
}

// NewSession derives a session identifier from the supplied time.
// Sessions order lexicographically in creation order.
func NewSession(creationTime time.Time) string {
	return creationTime.Format(sessionTimestampLayoutConstant)
}

// BackupBranchName composes the backup branch name for a branch and session.
func BackupBranchName(originalBranch string, session string) string {
	return fmt.Sprintf(branchNameTemplateConstant, BranchPrefix, originalBranch, session)
}

// ParseBackupBranchName decomposes a backup branch name into an Entry.
// The original branch may itself contain slashes; the session is always the
// final path segment and must parse as a session timestamp.
func ParseBackupBranchName(branchName string) (Entry, bool) {
	if !strings.HasPrefix(branchName, BranchPrefix) {
		return Entry{}, false
	}

	remainder := strings.TrimPrefix(branchName, BranchPrefix)
	lastSeparatorIndex := strings.LastIndex(remainder, branchSeparatorConstant)
	if lastSeparatorIndex <= 0 {
		return Entry{}, false
	}

	originalBranch := remainder[:lastSeparatorIndex]
	session := remainder[lastSeparatorIndex+1:]
	if _, parseError := time.Parse(sessionTimestampLayoutConstant, session); parseError != nil {
		return Entry{}, false
	}

	return Entry{
		OriginalBranch: originalBranch,
		Session:        session,
		BranchName:     branchName,
	}, true
}
