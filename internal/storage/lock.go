package storage

import (
	"fmt"

	"github.com/gofrs/flock"
)

// RootLock holds exclusive ownership of a root for the duration of a run.
type RootLock struct {
	lock *flock.Flock
}

// Lock takes the run lock for root without blocking. The lock is held on
// the state database itself, creating it empty when root is new.
// Returns ErrLocked when another process already holds it.
func Lock(root string) (*RootLock, error) {
	lock := flock.New(StatePath(root), flock.SetPermissions(0o644))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire run lock for %s: %w", root, ErrLocked)
	}
	return &RootLock{lock: lock}, nil
}

// Unlock releases the run lock.
func (l *RootLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
