package actor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// SystemConfig holds configuration for the ActorSystem.
type SystemConfig struct {
	// MailboxCapacity is the default capacity for actor mailboxes.
	MailboxCapacity int
}

// DefaultConfig returns the default system configuration.
func DefaultConfig() SystemConfig {
	return SystemConfig{
		MailboxCapacity: 100,
	}
}

// stoppable is the internal lifecycle hook the system tracks per actor.
type stoppable interface {
	Stop()
}

// ActorSystem manages actor lifecycles, provides a receptionist for service
// discovery, and owns the dead letter actor for undeliverable messages.
type ActorSystem struct {
	receptionist *Receptionist

	// actors tracks every managed actor by ID, including the dead letter
	// actor.
	actors map[string]stoppable

	deadLetterActor ActorRef[Message, any]

	config SystemConfig

	// mu protects the actors map.
	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	// actorWg tracks actor goroutines for deterministic shutdown.
	actorWg sync.WaitGroup
}

// NewActorSystem creates an actor system with the default configuration.
func NewActorSystem() *ActorSystem {
	return NewActorSystemWithConfig(DefaultConfig())
}

// NewActorSystemWithConfig creates an actor system with custom configuration.
func NewActorSystemWithConfig(config SystemConfig) *ActorSystem {
	ctx, cancel := context.WithCancel(context.Background())

	system := &ActorSystem{
		receptionist: newReceptionist(),
		config:       config,
		actors:       make(map[string]stoppable),
		ctx:          ctx,
		cancel:       cancel,
	}

	// The dead letter actor reports every message it receives as
	// undeliverable. Its own DLO is nil to avoid loops.
	deadLetterBehavior := NewFunctionBehavior(
		func(_ context.Context, msg Message) fn.Result[any] {
			return fn.Err[any](errors.New(
				"message undeliverable: " + msg.MessageType(),
			))
		},
	)

	deadLetterActor := NewActor(ActorConfig[Message, any]{
		ID:          "dead-letters",
		Behavior:    deadLetterBehavior,
		DLO:         nil,
		MailboxSize: config.MailboxCapacity,
		Wg:          &system.actorWg,
	})
	deadLetterActor.Start()
	system.deadLetterActor = deadLetterActor.Ref()
	system.actors[deadLetterActor.id] = deadLetterActor

	return system
}

// registerConfig holds optional per-registration settings.
type registerConfig struct {
	cleanupTimeout fn.Option[time.Duration]
	mailboxSize    fn.Option[int]
}

// RegisterOption configures actor registration via RegisterWithSystem.
type RegisterOption func(*registerConfig)

// WithCleanupTimeout overrides the default OnStop cleanup timeout. Use a
// longer value for behaviors that manage external resources needing graceful
// teardown.
func WithCleanupTimeout(d time.Duration) RegisterOption {
	return func(cfg *registerConfig) {
		cfg.cleanupTimeout = fn.Some(d)
	}
}

// WithMailboxSize overrides the system default mailbox capacity for one
// actor.
func WithMailboxSize(n int) RegisterOption {
	return func(cfg *registerConfig) {
		cfg.mailboxSize = fn.Some(n)
	}
}

// newStoppedActorRef returns a reference to an already stopped actor. Used as
// a safe non-nil return value when registration is impossible; calls on the
// ref fail with ErrActorTerminated instead of panicking.
func newStoppedActorRef[M Message, R any](id string) ActorRef[M, R] {
	a := NewActor(ActorConfig[M, R]{ID: id})
	a.Stop()
	return a.Ref()
}

// RegisterWithSystem creates and starts an actor with the given ID and
// behavior, adds it to the system, registers it with the receptionist under
// key, and returns its reference.
func RegisterWithSystem[M Message, R any](as *ActorSystem, id string,
	key ServiceKey[M, R], behavior ActorBehavior[M, R],
	opts ...RegisterOption) ActorRef[M, R] {

	// A system that is already shutting down accepts no new actors.
	if as.ctx.Err() != nil {
		return newStoppedActorRef[M, R](id)
	}

	var regCfg registerConfig
	for _, opt := range opts {
		opt(&regCfg)
	}

	a := NewActor(ActorConfig[M, R]{
		ID:             id,
		Behavior:       behavior,
		DLO:            as.deadLetterActor,
		MailboxSize:    regCfg.mailboxSize.UnwrapOr(as.config.MailboxCapacity),
		Wg:             &as.actorWg,
		CleanupTimeout: regCfg.cleanupTimeout,
	})
	a.Start()

	as.mu.Lock()
	as.actors[a.id] = a
	as.mu.Unlock()

	RegisterWithReceptionist(as.receptionist, key, a.Ref())

	slog.DebugContext(as.ctx, "Actor registered with system",
		"actor_id", id, "service_key", key.name)

	return a.Ref()
}

// Receptionist returns the system's receptionist for service discovery.
func (as *ActorSystem) Receptionist() *Receptionist {
	return as.receptionist
}

// DeadLetters returns the system's dead letter actor reference.
func (as *ActorSystem) DeadLetters() ActorRef[Message, any] {
	return as.deadLetterActor
}

// StopAndRemoveActor stops the actor with the given ID and removes it from
// the system. Returns false if no such actor is managed.
func (as *ActorSystem) StopAndRemoveActor(id string) bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	a, exists := as.actors[id]
	if !exists {
		return false
	}

	a.Stop()
	delete(as.actors, id)

	return true
}

// Shutdown stops every managed actor and waits for all actor goroutines to
// exit or the context to expire. Cancelling the system context first prevents
// new registrations from racing with the WaitGroup snapshot.
func (as *ActorSystem) Shutdown(ctx context.Context) error {
	as.cancel()

	var actorsToStop []stoppable
	as.mu.RLock()
	for _, a := range as.actors {
		actorsToStop = append(actorsToStop, a)
	}
	as.mu.RUnlock()

	slog.InfoContext(ctx, "Actor system shutting down",
		"num_actors", len(actorsToStop))

	for _, a := range actorsToStop {
		a.Stop()
	}

	as.mu.Lock()
	as.actors = nil
	as.mu.Unlock()

	// Wait on the goroutines with the context as an upper bound. If the
	// deadline expires some actor is hung; the waiter goroutine is left to
	// finish on its own rather than leaking actors silently.
	done := make(chan struct{})
	go func() {
		as.actorWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.InfoContext(ctx, "Actor system shutdown complete")
		return nil

	case <-ctx.Done():
		slog.ErrorContext(ctx, "Actor system shutdown incomplete, "+
			"some actors may have leaked", "err", ctx.Err())
		return ctx.Err()
	}
}

// ServiceKey is a typed identifier for registering and discovering actors
// through the Receptionist. The type parameters tie discovery results to the
// message and response types the registered actors actually handle.
type ServiceKey[M Message, R any] struct {
	name string
}

// NewServiceKey creates a service key with the given name.
func NewServiceKey[M Message, R any](name string) ServiceKey[M, R] {
	return ServiceKey[M, R]{name: name}
}

// Name returns the key's registration name.
func (sk ServiceKey[M, R]) Name() string {
	return sk.name
}

// Spawn registers an actor for this key within the given system, starting it
// and making it discoverable.
func (sk ServiceKey[M, R]) Spawn(as *ActorSystem, id string,
	behavior ActorBehavior[M, R], opts ...RegisterOption) ActorRef[M, R] {

	return RegisterWithSystem(as, id, sk, behavior, opts...)
}

// Receptionist provides service discovery: actors register under a ServiceKey
// and are later found by other components without direct references.
type Receptionist struct {
	// registrations stores references as BaseActorRef keyed by service
	// key name; Find narrows them back to their typed form.
	registrations map[string][]BaseActorRef

	mu sync.RWMutex
}

// newReceptionist creates an empty receptionist.
func newReceptionist() *Receptionist {
	return &Receptionist{
		registrations: make(map[string][]BaseActorRef),
	}
}

// RegisterWithReceptionist records ref under key. Package-level generic
// function because Go methods cannot introduce type parameters.
func RegisterWithReceptionist[M Message, R any](r *Receptionist,
	key ServiceKey[M, R], ref ActorRef[M, R]) {

	r.mu.Lock()
	defer r.mu.Unlock()

	r.registrations[key.name] = append(r.registrations[key.name], ref)
}

// FindInReceptionist returns all actors registered under key whose reference
// type matches the key's type parameters.
func FindInReceptionist[M Message, R any](r *Receptionist,
	key ServiceKey[M, R]) []ActorRef[M, R] {

	r.mu.RLock()
	defer r.mu.RUnlock()

	baseRefs, exists := r.registrations[key.name]
	if !exists {
		return nil
	}

	typedRefs := make([]ActorRef[M, R], 0, len(baseRefs))
	for _, baseRef := range baseRefs {
		if typedRef, ok := baseRef.(ActorRef[M, R]); ok {
			typedRefs = append(typedRefs, typedRef)
		}
	}

	return typedRefs
}

// UnregisterFromReceptionist removes ref from key's registrations, returning
// true when it was present.
func UnregisterFromReceptionist[M Message, R any](r *Receptionist,
	key ServiceKey[M, R], refToRemove ActorRef[M, R]) bool {

	r.mu.Lock()
	defer r.mu.Unlock()

	refs, exists := r.registrations[key.name]
	if !exists {
		return false
	}

	found := false
	newRefs := make([]BaseActorRef, 0, len(refs))
	for _, baseRef := range refs {
		if typedRef, ok := baseRef.(ActorRef[M, R]); ok {
			if typedRef == refToRemove {
				found = true
				continue
			}
		}
		newRefs = append(newRefs, baseRef)
	}

	if !found {
		return false
	}

	if len(newRefs) == 0 {
		delete(r.registrations, key.name)
	} else {
		r.registrations[key.name] = newRefs
	}

	return true
}
