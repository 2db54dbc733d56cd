package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
)

// lockTable hands out one exclusive lock per entity key. A lock is a
// single-slot channel so waiters can give up when their context ends.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (t *lockTable) slot(key string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		t.slots[key] = ch
	}
	return ch
}

// acquire blocks until key is free, ctx ends or timeout elapses.
func (t *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := t.slot(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case ch <- struct{}{}:
		return nil
	case <-expired:
		return apperr.Newf(apperr.Timeout, "lock wait timeout on %s", key)
	case <-ctx.Done():
		return apperr.Wrap(apperr.Timeout, ctx.Err(), "lock wait on "+key)
	}
}

func (t *lockTable) release(key string) {
	<-t.slot(key)
}
