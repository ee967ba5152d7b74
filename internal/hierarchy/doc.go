// Package hierarchy discovers the tree of repositories linked by submodule
// declarations and computes the deepest-first rebase order over it.
//
// Every discovered node carries bound collaborators: a git backend scoped to
// the node's working tree, a backup manager, and a conflict resolver wired to
// the shared cross-repository commit tracker. A submodule must finish its
// rebase before its parent starts, so ordering emits nodes grouped by depth,
// deepest depth first, preserving discovery order within a depth.
package hierarchy
