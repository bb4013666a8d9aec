package driven

import "context"

// Session is the key/value store of a single client session. Values are
// opaque strings; callers own their encoding.
type Session interface {
	// Read returns the value stored under key and whether it was present.
	Read(ctx context.Context, key string) (string, bool, error)
	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// SessionBackend stores values for every session, addressed by session ID.
// Implementations must be safe for concurrent use.
type SessionBackend interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID, key string) error
}
