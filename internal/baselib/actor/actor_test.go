package actor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// echoMsg is the message type used across the package tests.
type echoMsg struct {
	BaseMessage
	payload string
}

func (m *echoMsg) MessageType() string {
	return "echo"
}

func newEchoMsg(payload string) *echoMsg {
	return &echoMsg{payload: payload}
}

// echoBehavior returns the message payload unchanged.
func echoBehavior() ActorBehavior[*echoMsg, string] {
	return NewFunctionBehavior(
		func(_ context.Context, msg *echoMsg) fn.Result[string] {
			return fn.Ok(msg.payload)
		},
	)
}

// TestAskReturnsBehaviorResult verifies the basic request/response cycle.
func TestAskReturnsBehaviorResult(t *testing.T) {
	t.Parallel()

	a := NewActor(ActorConfig[*echoMsg, string]{
		ID:          "echo-1",
		Behavior:    echoBehavior(),
		MailboxSize: 4,
	})
	a.Start()
	defer a.Stop()

	future := a.Ref().Ask(context.Background(), newEchoMsg("hello"))
	resp, err := future.Await(context.Background()).Unpack()

	require.NoError(t, err)
	require.Equal(t, "hello", resp)
}

// TestTellProcessedInOrder verifies tells are handled sequentially in send
// order by a single actor.
func TestTellProcessedInOrder(t *testing.T) {
	t.Parallel()

	var got []string
	done := make(chan struct{})

	behavior := NewFunctionBehavior(
		func(_ context.Context, msg *echoMsg) fn.Result[string] {
			got = append(got, msg.payload)
			if len(got) == 3 {
				close(done)
			}
			return fn.Ok("")
		},
	)

	a := NewActor(ActorConfig[*echoMsg, string]{
		ID:          "order-1",
		Behavior:    behavior,
		MailboxSize: 8,
	})
	a.Start()
	defer a.Stop()

	ctx := context.Background()
	a.Ref().Tell(ctx, newEchoMsg("a"))
	a.Ref().Tell(ctx, newEchoMsg("b"))
	a.Ref().Tell(ctx, newEchoMsg("c"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("messages not processed in time")
	}

	require.Equal(t, []string{"a", "b", "c"}, got)
}

// TestAskAfterStopFails verifies asks against a stopped actor complete with
// ErrActorTerminated instead of hanging.
func TestAskAfterStopFails(t *testing.T) {
	t.Parallel()

	a := NewActor(ActorConfig[*echoMsg, string]{
		ID:       "stopped-1",
		Behavior: echoBehavior(),
	})
	a.Start()
	a.Stop()

	// Give the process loop a moment to observe cancellation.
	time.Sleep(10 * time.Millisecond)

	future := a.Ref().Ask(context.Background(), newEchoMsg("late"))
	_, err := future.Await(context.Background()).Unpack()

	require.ErrorIs(t, err, ErrActorTerminated)
}

// TestAskRespectsCallerDeadline verifies that a caller deadline expiring
// while the behavior is busy completes the future with the context error.
func TestAskRespectsCallerDeadline(t *testing.T) {
	t.Parallel()

	behavior := NewFunctionBehavior(
		func(ctx context.Context, _ *echoMsg) fn.Result[string] {
			<-ctx.Done()
			return fn.Err[string](ctx.Err())
		},
	)

	a := NewActor(ActorConfig[*echoMsg, string]{
		ID:       "slow-1",
		Behavior: behavior,
	})
	a.Start()
	defer a.Stop()

	ctx, cancel := context.WithTimeout(
		context.Background(), 50*time.Millisecond,
	)
	defer cancel()

	future := a.Ref().Ask(ctx, newEchoMsg("slow"))
	_, err := future.Await(context.Background()).Unpack()

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestStoppableOnStopRuns verifies the OnStop hook fires during shutdown.
type stoppableBehavior struct {
	stopped atomic.Bool
}

func (b *stoppableBehavior) Receive(_ context.Context,
	msg *echoMsg) fn.Result[string] {

	return fn.Ok(msg.payload)
}

func (b *stoppableBehavior) OnStop(_ context.Context) error {
	b.stopped.Store(true)
	return nil
}

func TestStoppableOnStopRuns(t *testing.T) {
	t.Parallel()

	behavior := &stoppableBehavior{}

	system := NewActorSystem()
	key := NewServiceKey[*echoMsg, string]("stoppable")
	RegisterWithSystem(system, "stoppable-1", key, behavior)

	require.NoError(t, system.Shutdown(context.Background()))
	require.True(t, behavior.stopped.Load())
}

// TestFutureThenApply verifies result transformation on a derived future.
func TestFutureThenApply(t *testing.T) {
	t.Parallel()

	a := NewActor(ActorConfig[*echoMsg, string]{
		ID:       "apply-1",
		Behavior: echoBehavior(),
	})
	a.Start()
	defer a.Stop()

	ctx := context.Background()
	future := a.Ref().Ask(ctx, newEchoMsg("shout")).ThenApply(
		ctx, func(s string) string {
			return s + "!"
		},
	)

	resp, err := future.Await(ctx).Unpack()
	require.NoError(t, err)
	require.Equal(t, "shout!", resp)
}
