// Package gitrepo implements the version-control backend used by the rebase
// orchestration.
//
// A Manager is bound to one repository working tree and exposes the branch,
// rebase, index, and submodule operations the orchestration layers depend on.
// All git interaction goes through an injected command executor so tests can
// substitute canned results.
package gitrepo
