// Package store persists per-item batch outcomes in SQLite, keyed by slug so
// reruns of a week update existing rows instead of duplicating them.
package store
