// Package lock serializes work on a shared key across service replicas.
package lock

import (
	"context"
	"errors"
)

// ErrBusy is returned when a key stays held past the wait timeout.
var ErrBusy = errors.New("lock is held by another invocation")

// Unlock releases a held key. Releasing a key whose lease already expired
// (and may now belong to someone else) is a no-op.
type Unlock func(ctx context.Context) error

// Locker acquires exclusive leases on string keys. A lease is kept alive while
// held and expires on its own if the holder goes away.
type Locker interface {
	Acquire(ctx context.Context, key string) (Unlock, error)
	Ping(ctx context.Context) error
	Close() error
}
