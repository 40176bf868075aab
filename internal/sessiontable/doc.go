// Package sessiontable holds the sessions owned by one local node.
//
// Access is exclusive per session id: With runs its callback while holding
// that session's lock, so two messages for the same session are never applied
// concurrently. Different sessions proceed in parallel.
package sessiontable
