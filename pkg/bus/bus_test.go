package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receive[K comparable, M any](t *testing.T, ch <-chan Message[K, M]) Message[K, M] {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message[K, M]{}
	}
}

func TestPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBus[string, int](zap.NewNop())
	require.NoError(t, b.Start(ctx))
	<-b.Ready()

	keyed := b.Subscribe(ctx, "a")
	global := b.Subscribe(ctx)

	go b.Publish(ctx, "a", 1)
	assert.Equal(t, Message[string, int]{Key: "a", Message: 1}, receive(t, keyed))
	assert.Equal(t, 1, receive(t, global).Message)

	go b.Publish(ctx, "b", 2)
	assert.Equal(t, 2, receive(t, global).Message)
	select {
	case msg := <-keyed:
		t.Fatalf("unexpected message on keyed subscription: %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPerKeyOrdering(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBus[string, int](zap.NewNop())
	require.NoError(t, b.Start(ctx))

	sub := b.Subscribe(ctx, "k")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(ctx, "k", i)
		}
	}()

	for i := 0; i < 100; i++ {
		assert.Equal(t, i, receive(t, sub).Message)
	}
	<-done
}

func TestPublisher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBus[string, string](zap.NewNop())
	require.NoError(t, b.Start(ctx))

	sub := b.Subscribe(ctx, "src")
	publish := b.CreatePublisher("src")
	go publish(ctx, "hello")
	assert.Equal(t, "hello", receive(t, sub).Message)
}

// Deferred cleanup paths publish with an uncancellable context after the bus
// worker has exited; those publishes must be dropped, not block forever.
func TestPublishAfterShutdownReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	b := NewBus[string, int](zap.NewNop())
	require.NoError(t, b.Start(ctx))
	cancel()
	select {
	case <-b.done:
	case <-time.After(time.Second):
		t.Fatal("bus worker did not exit")
	}

	returned := make(chan struct{})
	go func() {
		b.Publish(context.WithoutCancel(ctx), "k", 1)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after the bus shut down")
	}
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBus[string, int](zap.NewNop())
	require.NoError(t, b.Start(ctx))

	subCtx, subCancel := context.WithCancel(ctx)
	sub := b.Subscribe(subCtx, "k")
	subCancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription channel did not close")
	}
}
