// Package ui provides the interactive console adapters for planning-time and
// conflict-time prompts. All prompts are synchronous reads from the wired
// input stream; headless callers should use the no-op prompt implementations
// from the rebase and conflict packages instead.
package ui
