// Package arbiter owns the foreground: while a detached task holds the
// slot, the dispatch loop must not listen.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
)

var ErrBusy = errors.New("background task already running")

// Arbiter is a single-slot gate. There is no reference counting: a second
// acquisition while held is refused with ErrBusy.
type Arbiter struct {
	mu    sync.Mutex
	owner string
	done  chan struct{}
}

func New() *Arbiter { return &Arbiter{} }

func (a *Arbiter) TryAcquire(owner string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done != nil {
		return false
	}
	a.owner = owner
	a.done = make(chan struct{})
	return true
}

// Release frees the slot. Releasing an idle arbiter is a no-op.
func (a *Arbiter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done == nil {
		return
	}
	close(a.done)
	a.done = nil
	a.owner = ""
}

func (a *Arbiter) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done != nil
}

// Owner returns the name of the task holding the slot, or "".
func (a *Arbiter) Owner() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.owner
}

// Wait blocks until the slot is free or ctx is done.
func (a *Arbiter) Wait(ctx context.Context) error {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Go acquires the slot synchronously and runs task in its own goroutine.
// The slot is released when task returns, even if it panics.
func (a *Arbiter) Go(owner string, task func()) error {
	if !a.TryAcquire(owner) {
		return fmt.Errorf("start %s: %w", owner, ErrBusy)
	}

	go func() {
		defer a.Release()
		defer func() {
			if r := recover(); r != nil {
				log.Error("Background task panicked", "task", owner, "panic", r)
			}
		}()
		task()
	}()

	return nil
}
