// Package actor implements a small typed actor runtime: actors own a mailbox,
// process messages sequentially in their own goroutine, and reply to "ask"
// style requests through futures. The package is deliberately minimal; it
// exists so services can serialize access to their state without hand-rolled
// mutex choreography.
package actor

import (
	"context"
	"fmt"
	"iter"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ErrActorTerminated indicates that an operation failed because the target
// actor was terminated or in the process of shutting down.
var ErrActorTerminated = fmt.Errorf("actor terminated")

// BaseMessage is embedded by message types defined outside this package to
// satisfy the Message interface's unexported marker method.
type BaseMessage struct{}

// messageMarker implements the unexported method of the Message interface.
func (BaseMessage) messageMarker() {}

// Message is a sealed interface for actor messages. Only types embedding
// BaseMessage (or defined in this package) can satisfy it, which keeps each
// actor's message union closed and exhaustively matchable.
type Message interface {
	// messageMarker seals the interface (see BaseMessage for embedding).
	messageMarker()

	// MessageType returns the type name of the message for routing and
	// log output.
	MessageType() string
}

// Future represents the result of an asynchronous computation. Consumers wait
// for the result with Await or register a completion callback.
type Future[T any] interface {
	// Await blocks until the result is available or the context is
	// cancelled, then returns it.
	Await(ctx context.Context) fn.Result[T]

	// ThenApply returns a new Future whose value is the original result
	// transformed by fn. The original future is not modified. If ctx is
	// cancelled while waiting, the new future completes with the context
	// error.
	ThenApply(ctx context.Context, fn func(T) T) Future[T]

	// OnComplete registers a function invoked once the result is ready.
	// If ctx is cancelled first, the callback receives the context error.
	OnComplete(ctx context.Context, fn func(fn.Result[T]))
}

// Promise is the producer side of a Future: the owner of an asynchronous
// operation completes the promise exactly once, and consumers observe the
// outcome through the associated Future.
type Promise[T any] interface {
	// Future returns the Future associated with this Promise.
	Future() Future[T]

	// Complete attempts to set the result. It returns true if this call
	// was the first to complete the promise, false otherwise.
	Complete(result fn.Result[T]) bool
}

// BaseActorRef is a non-generic base interface for all actor references. It
// enables heterogeneous reference storage, e.g. in the Receptionist's
// registration map.
type BaseActorRef interface {
	// ID returns the unique identifier for this actor.
	ID() string
}

// TellOnlyRef is a reference restricted to fire-and-forget sends.
type TellOnlyRef[M Message] interface {
	BaseActorRef

	// Tell sends a message without waiting for a response. If the context
	// is cancelled before the message reaches the mailbox, the message may
	// be dropped.
	Tell(ctx context.Context, msg M)
}

// ActorRef is a reference supporting both "tell" and "ask" interactions.
type ActorRef[M Message, R any] interface {
	TellOnlyRef[M]

	// Ask sends a message and returns a Future for the response.
	Ask(ctx context.Context, msg M) Future[R]
}

// ActorBehavior encapsulates how an actor reacts to incoming messages.
type ActorBehavior[M Message, R any] interface {
	// Receive processes a message and returns a Result. The context merges
	// the actor's lifecycle context with the caller's request context for
	// ask operations, so behaviors observe both system shutdown and
	// request deadlines.
	Receive(ctx context.Context, msg M) fn.Result[R]
}

// functionBehavior adapts a plain function to the ActorBehavior interface.
type functionBehavior[M Message, R any] struct {
	fn func(ctx context.Context, msg M) fn.Result[R]
}

// NewFunctionBehavior wraps a function as an ActorBehavior. Useful for small
// actors and tests that don't warrant a dedicated type.
func NewFunctionBehavior[M Message, R any](
	f func(ctx context.Context, msg M) fn.Result[R],
) ActorBehavior[M, R] {
	return &functionBehavior[M, R]{fn: f}
}

// Receive dispatches to the wrapped function.
func (b *functionBehavior[M, R]) Receive(ctx context.Context,
	msg M) fn.Result[R] {

	return b.fn(ctx, msg)
}

// Stoppable is an optional interface behaviors implement to release external
// resources (connections, files, subprocesses) when their actor stops.
type Stoppable interface {
	// OnStop is called during actor shutdown, after the message loop exits
	// but before the goroutine terminates. The context carries a cleanup
	// deadline; implementations should return promptly.
	OnStop(ctx context.Context) error
}

// SystemContext is the minimal system surface needed by components that
// interact with the actor runtime, enabling injection in tests without a full
// ActorSystem.
type SystemContext interface {
	// Receptionist returns the system's receptionist for actor discovery.
	Receptionist() *Receptionist

	// DeadLetters returns the dead letter actor for undeliverable
	// messages.
	DeadLetters() ActorRef[Message, any]
}

// Mailbox is an actor's message queue. Send may be called concurrently from
// many goroutines; Receive is driven by the single actor goroutine; Close is
// idempotent and may race with Send; Drain is only valid after Close.
type Mailbox[M Message, R any] interface {
	// Send enqueues an envelope, blocking until accepted or either the
	// caller's or the actor's context is cancelled. Returns false if the
	// envelope was not accepted.
	Send(ctx context.Context, env envelope[M, R]) bool

	// Receive returns an iterator over envelopes, blocking while the
	// mailbox is empty and stopping when ctx is cancelled or the mailbox
	// is closed.
	Receive(ctx context.Context) iter.Seq[envelope[M, R]]

	// Close prevents further sends. Remaining envelopes stay available
	// through Drain.
	Close()

	// IsClosed reports whether Close has been called.
	IsClosed() bool

	// Drain returns an iterator over envelopes left after Close, for
	// shutdown bookkeeping such as dead-letter routing.
	Drain() iter.Seq[envelope[M, R]]
}
