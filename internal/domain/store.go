package domain

import "context"

// RecordStore is the port for durable key-value persistence. Values are
// JSON-serialized blobs; the engine owns the schema behind each key.
//
// GetItem reports ok=false for an absent key; that is not an error.
// Implementations must propagate their own failures unchanged so callers
// can surface them for user-visible retry.
//
// RemoveItem exists for consumers that clear a logical key outright (data
// wipes, account resets). The engine itself empties a key by rewriting its
// blob, so only adapter code exercises removal directly.
type RecordStore interface {
	GetItem(ctx context.Context, key string) (value []byte, ok bool, err error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
}
