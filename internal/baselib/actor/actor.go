package actor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// defaultCleanupTimeout bounds OnStop cleanup when no override is configured.
const defaultCleanupTimeout = 5 * time.Second

// mergeContexts returns a context that cancels when either parent cancels,
// preserving the earliest deadline of the two. This lets behaviors observe
// both actor shutdown and caller deadlines during ask processing. The watcher
// goroutine exits as soon as any side cancels; callers must invoke the
// returned cancel func.
func mergeContexts(ctx1, ctx2 context.Context) (context.Context,
	context.CancelFunc) {

	deadline1, hasDeadline1 := ctx1.Deadline()
	deadline2, hasDeadline2 := ctx2.Deadline()

	// Base the merged context on whichever parent carries the earlier
	// deadline so the most restrictive timeout is honored.
	baseCtx := ctx1
	if hasDeadline2 {
		if !hasDeadline1 || deadline2.Before(deadline1) {
			baseCtx = ctx2
		}
	}

	mergedCtx, cancel := context.WithCancel(baseCtx)

	go func() {
		select {
		case <-ctx1.Done():
			cancel()
		case <-ctx2.Done():
			cancel()
		case <-mergedCtx.Done():
		}
	}()

	return mergedCtx, cancel
}

// envelope pairs a message with the promise used to deliver an ask response.
// A nil promise marks a tell (fire-and-forget) operation. The caller context
// rides along so ask processing can respect request deadlines.
type envelope[M Message, R any] struct {
	message   M
	promise   Promise[R]
	callerCtx context.Context
}

// ActorConfig holds the parameters for creating an Actor.
type ActorConfig[M Message, R any] struct {
	// ID is the unique identifier for the actor.
	ID string

	// Behavior defines how the actor responds to messages.
	Behavior ActorBehavior[M, R]

	// DLO receives messages that could not be delivered or were drained
	// during shutdown. May be nil, in which case such messages drop.
	DLO ActorRef[Message, any]

	// MailboxSize is the buffer capacity of the actor's mailbox.
	MailboxSize int

	// Wg, when non-nil, tracks the actor goroutine: Add(1) on Start,
	// Done() when the process loop exits. Enables deterministic shutdown.
	Wg *sync.WaitGroup

	// CleanupTimeout bounds Stoppable.OnStop; None means the default of
	// five seconds.
	CleanupTimeout fn.Option[time.Duration]
}

// Actor processes messages from its mailbox sequentially in a dedicated
// goroutine, delegating each message to its behavior.
type Actor[M Message, R any] struct {
	id       string
	behavior ActorBehavior[M, R]
	mailbox  Mailbox[M, R]

	// ctx governs the actor's lifecycle; cancel stops the process loop.
	ctx    context.Context
	cancel context.CancelFunc

	dlo            ActorRef[Message, any]
	wg             *sync.WaitGroup
	cleanupTimeout time.Duration

	startOnce sync.Once
	stopOnce  sync.Once

	// ref is the cached reference handed to clients.
	ref ActorRef[M, R]
}

// NewActor creates an actor without starting it; call Start to begin
// processing.
func NewActor[M Message, R any](cfg ActorConfig[M, R]) *Actor[M, R] {
	ctx, cancel := context.WithCancel(context.Background())

	capacity := cfg.MailboxSize
	if capacity <= 0 {
		capacity = 1
	}

	a := &Actor[M, R]{
		id:             cfg.ID,
		behavior:       cfg.Behavior,
		mailbox:        newChannelMailbox[M, R](ctx, capacity),
		ctx:            ctx,
		cancel:         cancel,
		dlo:            cfg.DLO,
		wg:             cfg.Wg,
		cleanupTimeout: cfg.CleanupTimeout.UnwrapOr(defaultCleanupTimeout),
	}
	a.ref = &actorRef[M, R]{actor: a}

	return a
}

// Start launches the message processing loop. Repeated calls are no-ops.
func (a *Actor[M, R]) Start() {
	a.startOnce.Do(func() {
		slog.DebugContext(a.ctx, "Starting actor", "actor_id", a.id)

		if a.wg != nil {
			a.wg.Add(1)
		}
		go a.process()
	})
}

// process is the actor's event loop. It drains the mailbox to the DLO after
// the lifecycle context cancels, then runs the behavior's OnStop hook if one
// is provided. The deferred Done keeps the WaitGroup accurate even if the
// behavior panics.
func (a *Actor[M, R]) process() {
	if a.wg != nil {
		defer a.wg.Done()
	}

	for env := range a.mailbox.Receive(a.ctx) {
		// Asks merge the actor context with the caller context so the
		// behavior sees request deadlines; tells keep fire-and-forget
		// semantics and only observe actor shutdown.
		var (
			processCtx context.Context
			cancel     context.CancelFunc
		)
		if env.promise != nil {
			processCtx, cancel = mergeContexts(a.ctx, env.callerCtx)
		} else {
			processCtx, cancel = a.ctx, func() {}
		}

		result := a.behavior.Receive(processCtx, env.message)
		cancel()

		if env.promise != nil {
			env.promise.Complete(result)
		}
	}

	// Lifecycle context cancelled: refuse new sends, then route whatever
	// is left to the DLO and fail pending asks.
	a.mailbox.Close()

	drained := 0
	for env := range a.mailbox.Drain() {
		drained++

		if a.dlo != nil {
			a.dlo.Tell(context.Background(), env.message)
		}
		if env.promise != nil {
			env.promise.Complete(fn.Err[R](ErrActorTerminated))
		}
	}

	if stoppable, ok := a.behavior.(Stoppable); ok {
		cleanupCtx, cancel := context.WithTimeout(
			context.Background(), a.cleanupTimeout,
		)
		defer cancel()

		if err := stoppable.OnStop(cleanupCtx); err != nil {
			slog.WarnContext(a.ctx, "Actor cleanup error",
				"actor_id", a.id, "err", err)
		}
	}

	slog.DebugContext(a.ctx, "Actor terminated",
		"actor_id", a.id, "drained_messages", drained)
}

// Stop cancels the actor's lifecycle context, terminating the process loop.
// Pending mailbox entries are drained to the DLO.
func (a *Actor[M, R]) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()
	})
}

// Ref returns the reference clients use to message this actor.
func (a *Actor[M, R]) Ref() ActorRef[M, R] {
	return a.ref
}

// TellRef returns a capability-restricted reference supporting only tells.
func (a *Actor[M, R]) TellRef() TellOnlyRef[M] {
	return a.ref
}

// actorRef is the concrete ActorRef implementation bound to one actor.
type actorRef[M Message, R any] struct {
	actor *Actor[M, R]
}

// ID returns the actor's identifier.
func (r *actorRef[M, R]) ID() string {
	return r.actor.id
}

// Tell sends a message without waiting for a response. Messages refused
// because the actor terminated are routed to the DLO; messages dropped due to
// caller cancellation are not revived.
func (r *actorRef[M, R]) Tell(ctx context.Context, msg M) {
	env := envelope[M, R]{
		message:   msg,
		promise:   nil,
		callerCtx: ctx,
	}

	if r.actor.mailbox.Send(ctx, env) {
		return
	}

	if ctx.Err() == nil || r.actor.ctx.Err() != nil {
		if r.actor.dlo != nil {
			r.actor.dlo.Tell(context.Background(), msg)
		}
	}
}

// Ask sends a message and returns a Future completed with the actor's reply,
// or with an error when the send fails.
func (r *actorRef[M, R]) Ask(ctx context.Context, msg M) Future[R] {
	promise := NewPromise[R]()

	// Guard against asking a stopped actor.
	if r.actor.ctx.Err() != nil {
		promise.Complete(fn.Err[R](ErrActorTerminated))
		return promise.Future()
	}

	env := envelope[M, R]{
		message:   msg,
		promise:   promise,
		callerCtx: ctx,
	}

	if !r.actor.mailbox.Send(ctx, env) {
		// Actor termination takes precedence over caller cancellation
		// when classifying the failure.
		switch {
		case r.actor.ctx.Err() != nil:
			promise.Complete(fn.Err[R](ErrActorTerminated))

		case ctx.Err() != nil:
			promise.Complete(fn.Err[R](ctx.Err()))

		default:
			promise.Complete(fn.Err[R](ErrActorTerminated))
		}
	}

	return promise.Future()
}
