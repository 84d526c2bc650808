package lock

import "context"

// noopLocker always succeeds immediately; used when locking is disabled.
type noopLocker struct{}

func NewNoopLocker() Locker { return noopLocker{} }

func (noopLocker) Acquire(context.Context, string) (Unlock, error) {
	return func(context.Context) error { return nil }, nil
}

func (noopLocker) Ping(context.Context) error { return nil }
func (noopLocker) Close() error               { return nil }
