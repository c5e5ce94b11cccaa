package workflow

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// acquireLock takes the advisory lock for root without blocking.
func acquireLock(root string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(root, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, lock.Path())
	}
	return lock, nil
}
