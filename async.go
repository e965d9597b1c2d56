package modelkit

import (
	"context"
	"fmt"
	"sync"
)

// Future is the pending result of an asynchronous operation. It completes exactly
// once, with either a result or an error.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Go runs fn in a new goroutine and returns its future. A panic in fn completes the
// future with an error.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.complete(zero, fmt.Errorf("modelkit: async operation panicked: %v", r))
			}
		}()
		f.complete(fn(ctx))
	}()
	return f
}

// complete settles the future. Only the first call has an effect.
func (f *Future[T]) complete(value T, err error) bool {
	settled := false
	f.once.Do(func() {
		if err != nil {
			var zero T
			value = zero
		}
		f.value, f.err = value, err
		close(f.done)
		settled = true
	})
	return settled
}

// Done is closed once the future has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes and returns its outcome.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// WaitContext is like Wait but gives up when ctx is done. The operation itself keeps
// running.
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then calls cb with the outcome once the future completes, in its own goroutine.
// A panic in cb is recovered and logged. It returns f for chaining.
func (f *Future[T]) Then(cb func(T, error)) *Future[T] {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Logger().Error(context.Background(), "future callback panicked", "panic", fmt.Sprint(r))
			}
		}()
		<-f.done
		cb(f.value, f.err)
	}()
	return f
}

// --- Asynchronous CRUD ---

// CreateAsync runs Create in the background.
func (m *Model) CreateAsync(ctx context.Context, data map[string]any) *Future[*Instance] {
	return Go(ctx, func(ctx context.Context) (*Instance, error) {
		return m.Create(ctx, data)
	})
}

// FindAsync runs Find in the background.
func (m *Model) FindAsync(ctx context.Context, query Query) *Future[*Instance] {
	return Go(ctx, func(ctx context.Context) (*Instance, error) {
		return m.Find(ctx, query)
	})
}

// WhereAsync runs Where in the background.
func (m *Model) WhereAsync(ctx context.Context, query Query) *Future[[]*Instance] {
	return Go(ctx, func(ctx context.Context) ([]*Instance, error) {
		return m.Where(ctx, query)
	})
}

// UpdateAsync runs Update in the background.
func (m *Model) UpdateAsync(ctx context.Context, query Query, changes map[string]any) *Future[*Instance] {
	return Go(ctx, func(ctx context.Context) (*Instance, error) {
		return m.Update(ctx, query, changes)
	})
}

// DestroyAsync runs Destroy in the background. The future's value is always struct{}{}.
func (m *Model) DestroyAsync(ctx context.Context, query Query) *Future[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.Destroy(ctx, query)
	})
}
