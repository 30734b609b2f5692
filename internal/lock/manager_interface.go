package lock

import "time"

// ManagerInterface abstracts lock acquisition so the service can be tested
// without touching the OS lock table.
type ManagerInterface interface {
	Acquire(path string, timeout time.Duration) (*FileLock, error)
	Release(l *FileLock) error
}

var _ ManagerInterface = (*Manager)(nil)
