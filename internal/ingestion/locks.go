package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"mangashelf/internal/services"
	"mangashelf/internal/textutil"
)

const lockRetryDelay = 25 * time.Millisecond

type itemLock struct {
	// sem has capacity one; holding its slot owns the item.
	sem  chan struct{}
	refs int
}

// itemLocks serializes work per item id.
type itemLocks struct {
	dir     string
	timeout time.Duration

	mu   sync.Mutex
	held map[string]*itemLock
}

func newItemLocks(dir string, timeout time.Duration) *itemLocks {
	return &itemLocks{dir: dir, timeout: timeout, held: make(map[string]*itemLock)}
}

// acquire blocks until the caller owns itemID or ctx ends, then takes the
// file lock when a lock directory is configured. Callers wait here, never on
// a pool worker.
func (l *itemLocks) acquire(ctx context.Context, itemID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.held[itemID]
	if !ok {
		lock = &itemLock{sem: make(chan struct{}, 1)}
		l.held[itemID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	unref := func() {
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.held, itemID)
		}
		l.mu.Unlock()
	}

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		unref()
		return nil, services.Wrap(services.ErrStorageWrite, "ingestion", "lock item",
			fmt.Sprintf("gave up waiting for item %s", itemID), ctx.Err())
	}
	releaseLocal := func() {
		<-lock.sem
		unref()
	}

	if l.dir == "" {
		return releaseLocal, nil
	}

	path := filepath.Join(l.dir, "item-"+textutil.SanitizeToken(itemID)+".lock")
	fileLock := flock.New(path)
	lockCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		releaseLocal()
		return nil, services.Wrap(services.ErrStorageWrite, "ingestion", "lock item",
			fmt.Sprintf("item %s is busy in another process (%s)", itemID, path), err)
	}
	return func() {
		_ = fileLock.Unlock()
		releaseLocal()
	}, nil
}
