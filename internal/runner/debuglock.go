package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	debugLockFile  = "debug.lock"
	debugLockRetry = 200 * time.Millisecond
)

// debugMu serializes debug sessions within the process. The file lock
// extends that to other behaverun processes sharing the temp dir.
var debugMu sync.Mutex

// acquireDebugLock blocks until no other debug session is running. The
// returned func releases the lock.
func acquireDebugLock(ctx context.Context, tempDir string) (func(), error) {
	debugMu.Lock()

	dir := filepath.Join(tempDir, "behaverun")
	if err := os.MkdirAll(dir, 0755); err != nil {
		debugMu.Unlock()
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, debugLockFile))
	locked, err := lock.TryLockContext(ctx, debugLockRetry)
	if err != nil || !locked {
		debugMu.Unlock()
		if err == nil {
			err = fmt.Errorf("lock %s is held", lock.Path())
		}
		return nil, fmt.Errorf("failed to acquire debug lock: %w", err)
	}

	return func() {
		_ = lock.Unlock()
		debugMu.Unlock()
	}, nil
}
