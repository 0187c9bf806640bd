// Package session provides the opaque per-session key-value store the cart
// engine persists into. Session identifiers are issued and managed by the
// surrounding web layer; this package only maps (session, key) to a blob.
package session

import "context"

type Store interface {
	// Get returns the blob stored under key for the session, or nil when
	// absent.
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
}
