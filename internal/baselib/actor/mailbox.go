package actor

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
)

// channelMailbox is a Mailbox backed by a buffered Go channel. The read/write
// lock discipline prevents send-on-closed-channel panics: senders hold the
// read lock for the whole send, Close takes the write lock before closing.
type channelMailbox[M Message, R any] struct {
	// ch buffers pending envelopes.
	ch chan envelope[M, R]

	// closed is set once Close runs; reads are lock-free.
	closed atomic.Bool

	// mu serializes sends against Close.
	mu sync.RWMutex

	// closeOnce ensures the channel is closed exactly once.
	closeOnce sync.Once

	// actorCtx is the owning actor's lifecycle context. Sends fail once it
	// is cancelled.
	actorCtx context.Context
}

// newChannelMailbox creates a mailbox with the given capacity, defaulting to
// a buffer of one when capacity is not positive.
func newChannelMailbox[M Message, R any](actorCtx context.Context,
	capacity int) *channelMailbox[M, R] {

	if capacity <= 0 {
		capacity = 1
	}

	return &channelMailbox[M, R]{
		ch:       make(chan envelope[M, R], capacity),
		actorCtx: actorCtx,
	}
}

// Send enqueues an envelope, blocking until accepted or one of the contexts
// is cancelled. Returns false if the envelope was not accepted.
func (m *channelMailbox[M, R]) Send(ctx context.Context,
	env envelope[M, R]) bool {

	// Fast-path rejection when either side is already done.
	if ctx.Err() != nil || m.actorCtx.Err() != nil {
		return false
	}

	// The read lock must cover the channel send; Close takes the write
	// lock before closing, so the channel cannot close underneath us.
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() {
		return false
	}

	select {
	case m.ch <- env:
		return true

	case <-ctx.Done():
		return false

	case <-m.actorCtx.Done():
		return false
	}
}

// Receive yields envelopes as they arrive, stopping when ctx is cancelled or
// the channel is closed. The context is checked before each receive so
// shutdown wins over a ready message.
func (m *channelMailbox[M, R]) Receive(
	ctx context.Context) iter.Seq[envelope[M, R]] {

	return func(yield func(envelope[M, R]) bool) {
		for {
			if ctx.Err() != nil {
				return
			}

			select {
			case env, ok := <-m.ch:
				if !ok {
					return
				}
				if !yield(env) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}
}

// Close prevents further sends. Safe to call multiple times.
func (m *channelMailbox[M, R]) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.closed.Store(true)
		close(m.ch)
	})
}

// IsClosed reports whether Close has run.
func (m *channelMailbox[M, R]) IsClosed() bool {
	return m.closed.Load()
}

// Drain yields any envelopes left after Close without blocking. Calling it on
// an open mailbox is a no-op.
func (m *channelMailbox[M, R]) Drain() iter.Seq[envelope[M, R]] {
	return func(yield func(envelope[M, R]) bool) {
		if !m.IsClosed() {
			return
		}

		for {
			select {
			case env, ok := <-m.ch:
				if !ok {
					return
				}
				if !yield(env) {
					return
				}

			default:
				return
			}
		}
	}
}
