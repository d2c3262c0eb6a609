package ports

import "context"

// Port: transient key/value storage mirroring per-session workflow state.
//
// Keys are namespaced by session id by the caller. Implementations only
// need last-write-wins semantics; no versioning or transactions are assumed.
type WorkflowMirror interface {
	// Return the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
