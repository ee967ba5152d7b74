// Package backup manages the reversible backup branches created before a
// rebase touches a repository.
//
// Backups are plain local branches named lockstep/backup/<branch>/<session>,
// where the session is a timestamp shared by every repository in one rebase
// operation. Restoring a backup aborts any in-flight rebase first and then
// force-updates the original branch.
package backup
