// Package conflict classifies rebase conflicts and drives their resolution.
//
// Gitlink conflicts whose incoming submodule pointer is already known to the
// cross-repository commit tracker are resolved automatically: the rewritten
// commit is checked out in the submodule working tree and the gitlink path is
// staged in the parent. Everything else goes through a manual-resolution loop
// guarded by verification.
package conflict
