package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// promise is the concrete Promise/Future implementation. A single struct
// serves both roles: the producer completes it, consumers await it. The done
// channel is closed exactly once when the result lands.
type promise[T any] struct {
	// done is closed once the result has been set.
	done chan struct{}

	// result holds the outcome; valid only after done is closed.
	result fn.Result[T]

	// once guards the single completion.
	once sync.Once
}

// NewPromise creates an incomplete promise.
func NewPromise[T any]() Promise[T] {
	return &promise[T]{
		done: make(chan struct{}),
	}
}

// Complete attempts to set the result of the future. Only the first call
// succeeds; later calls return false and leave the stored result untouched.
func (p *promise[T]) Complete(result fn.Result[T]) bool {
	completed := false
	p.once.Do(func() {
		p.result = result
		completed = true
		close(p.done)
	})

	return completed
}

// Future returns the consumer view of this promise.
func (p *promise[T]) Future() Future[T] {
	return p
}

// Await blocks until the promise is completed or the context is cancelled.
func (p *promise[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case <-p.done:
		return p.result

	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

// ThenApply derives a new future by transforming a successful result with fn.
// Errors pass through unchanged.
func (p *promise[T]) ThenApply(ctx context.Context,
	transform func(T) T) Future[T] {

	next := &promise[T]{done: make(chan struct{})}

	go func() {
		res := p.Await(ctx)

		val, err := res.Unpack()
		if err != nil {
			next.Complete(fn.Err[T](err))
			return
		}

		next.Complete(fn.Ok(transform(val)))
	}()

	return next
}

// OnComplete invokes cb once the result is available, or with the context
// error if ctx is cancelled first.
func (p *promise[T]) OnComplete(ctx context.Context, cb func(fn.Result[T])) {
	go func() {
		select {
		case <-p.done:
			cb(p.result)

		case <-ctx.Done():
			cb(fn.Err[T](ctx.Err()))
		}
	}()
}
