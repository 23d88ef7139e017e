// Package storage is the durable string-keyed store that holds per-session state: the
// serialized cart, the current user record and the session token.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const (
	KeyCart         = "cart"
	KeyCurrentUser  = "currentUser"
	KeySessionToken = "sessionToken"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

var ErrNotFound = errors.New("storage record not found")

// Store is a session-scoped key/value view. Get returns ErrNotFound when the key is absent.
type Store interface {
	Get(c context.Context, key string) (string, error)
	Set(c context.Context, key string, value string) error
	Remove(c context.Context, key string) error
}

type Provider interface {
	Session(id uuid.UUID) Store
}
