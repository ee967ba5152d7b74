// Package rebase plans and executes lockstep rebases across a repository
// hierarchy. Planning resolves per-repository branch pairs (manually or by
// auto-discovering submodules whose gitlink pointers differ between the two
// refs) and validates branch availability before any repository is touched.
// Execution walks the deepest-first rebase order, snapshots backup branches,
// drives each repository's rebase through the conflict resolver, and records
// old-to-new commit mappings in the shared tracker so parent repositories can
// reconcile their gitlink pointers automatically.
package rebase
