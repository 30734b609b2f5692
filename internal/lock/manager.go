package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrLockTimeout is returned when acquiring a lock times out.
	ErrLockTimeout = fmt.Errorf("timeout acquiring lock")
	// ErrPathRequired is returned when the target path is empty.
	ErrPathRequired = fmt.Errorf("path is required")
	// ErrNilLock is returned when a nil lock handle is passed to Release.
	ErrNilLock = fmt.Errorf("nil lock handle")
)

// pollInterval is how often a contended lock is retried until the timeout.
const pollInterval = 10 * time.Millisecond

// FileLock is a held advisory lock on one file.
type FileLock struct {
	Path  string
	flock *flock.Flock
}

// Manager hands out per-file advisory locks. The digest check makes stale
// writers detectable; the lock additionally serializes same-host editors
// across the read-check-write window of a single edit batch.
type Manager struct{}

// NewManager initializes a Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Acquire takes an exclusive OS-level lock for path, polling up to timeout.
// The lock lives in a sibling ".lock" file so the target itself can be
// atomically replaced while locked.
func (m *Manager) Acquire(path string, timeout time.Duration) (*FileLock, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLockContext(ctx, pollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("error acquiring file lock for %s: %w", path, err)
	}
	if !locked {
		return nil, ErrLockTimeout
	}

	return &FileLock{Path: path, flock: fl}, nil
}

// Release unlocks a previously acquired lock.
func (m *Manager) Release(l *FileLock) error {
	if l == nil {
		return ErrNilLock
	}
	if l.flock != nil {
		_ = l.flock.Unlock()
	}
	return nil
}
