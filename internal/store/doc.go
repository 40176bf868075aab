// Package store provides file-based persistence for a securelink node.
//
// It contains concrete implementations of the domain storage interfaces,
// serialising data as JSON on disk with an fsync'd atomic replace. All methods
// are concurrency-safe via internal locking. Stored files typically live under
// the user's configured home directory.
//
// The package includes stores for:
//   - Identity keys, encrypted under a passphrase (IdentityFileStore)
//   - Replay tombstones that outlive a restart (ReplayFileStore)
//
// Session state is never persisted.
package store
