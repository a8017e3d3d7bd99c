package handshake

import (
	"context"
	"sync"
)

// Future is completed exactly once with the outcome of a handshake.
type Future struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Complete records err and wakes waiters. Later calls are ignored.
func (f *Future) Complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx ends.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
