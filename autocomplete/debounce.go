package autocomplete

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned by Debouncer.Do when a newer call for the same
// key replaced this one before its delay elapsed.
var ErrSuperseded = errors.New("superseded by a newer request")

// Debouncer delays work per key and drops any pending work for that key
// when new work arrives.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*ticket
}

// ticket is the cancel token owned by exactly one Do call.
type ticket struct {
	cancel context.CancelCauseFunc
}

// NewDebouncer returns a debouncer that waits delay before running work.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, pending: make(map[string]*ticket)}
}

// Do waits for the debounce delay and then runs fn. If another Do for key
// starts first, this call returns ErrSuperseded and fn never runs. If ctx
// ends first, ctx's error is returned.
func (d *Debouncer) Do(parent context.Context, key string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancelCause(parent)
	own := &ticket{cancel: cancel}

	d.mu.Lock()
	if prev, ok := d.pending[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	d.pending[key] = own
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		if d.pending[key] == own {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		cancel(nil)
	}()

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		if cause := context.Cause(ctx); errors.Is(cause, ErrSuperseded) {
			return ErrSuperseded
		}
		return ctx.Err()
	}

	// Once started, fn is no longer supersedable; only the wait is.
	return fn(parent)
}

// Cancel drops any pending work for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.pending[key]; ok {
		t.cancel(ErrSuperseded)
		delete(d.pending, key)
	}
}

// Pending reports whether work for key is waiting.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}
