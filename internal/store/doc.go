// Package store holds the layered in-memory entity state: a base layer of
// remote truth and a pending layer of optimistic local edits. Every read
// resolves pending over base, applies tombstone and space filters, and
// re-derives display fields, so callers never observe a stale name or a
// half-applied edit. Mutations emit events on the store's stream after the
// internal lock is released.
package store
