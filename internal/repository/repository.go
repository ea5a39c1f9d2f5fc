// Package repository declares the storage contracts of the client.
//
// Only one kind of durable state exists on this side of the gateways: a small
// set of named entries that must survive a restart of the client (the
// serialized Session Record and the remembered login id). KVStore is that
// contract; repository/sqlite implements it.
package repository

import "context"

// Well-known entry keys.
const (
	// SessionKey holds the serialized Session Record.
	SessionKey = "auth"
	// RememberedUserKey holds the identity pre-filled on the login form.
	RememberedUserKey = "rememberedUser"
)

// KVStore is the Durable Session Store: named string entries that survive
// process restarts.
//
// Get returns an error wrapping apperror.ErrNotFound when the key is absent.
// Delete of an absent key is not an error.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
