// Package tracker maintains commit identity mappings across a rebase.
//
// A Tracker records old-to-new hash pairs for one repository and can infer
// them by matching the pre-rebase commit list against the rewritten one. The
// GlobalTracker aggregates per-repository trackers so gitlink conflicts in a
// parent repository can be resolved from any child's mapping.
package tracker
