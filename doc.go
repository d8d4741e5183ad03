// Package extprefs provides the typed default-preference registry of the autoproxy2
// browser extension.
//
// The registry is an immutable table of namespaced keys, each with a declared type
// (boolean, integer or string) and a default value, loaded once from the extension's
// prefs declaration file. A Manager layers per-profile overrides on top of it, backed by
// pluggable storage (memory, SQLite, PostgreSQL) and an optional cache (memory, Redis).
package extprefs
