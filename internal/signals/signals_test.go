package signals_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"portal-comments/internal/signals"
)

func TestDispatcherSend(t *testing.T) {
	dispatcher := signals.NewDispatcher()
	ctx := context.Background()

	var created []signals.Payload
	var approved []signals.Payload
	dispatcher.Subscribe(signals.Created, func(ctx context.Context, p signals.Payload) {
		created = append(created, p)
	})
	dispatcher.Subscribe(signals.Approved, func(ctx context.Context, p signals.Payload) {
		approved = append(approved, p)
	})

	threadID := uuid.New()
	dispatcher.Send(ctx, signals.Created, signals.Payload{ThreadID: threadID})

	assert.Len(t, created, 1)
	assert.Equal(t, threadID, created[0].ThreadID)
	assert.Empty(t, approved)
}

func TestDispatcherPanicIsolation(t *testing.T) {
	dispatcher := signals.NewDispatcher()
	ctx := context.Background()

	var reached bool
	dispatcher.Subscribe(signals.Deleted, func(ctx context.Context, p signals.Payload) {
		panic("handler blew up")
	})
	dispatcher.Subscribe(signals.Deleted, func(ctx context.Context, p signals.Payload) {
		reached = true
	})

	assert.NotPanics(t, func() {
		dispatcher.Send(ctx, signals.Deleted, signals.Payload{})
	})
	assert.True(t, reached)
}

func TestDispatcherNoHandlers(t *testing.T) {
	dispatcher := signals.NewDispatcher()
	assert.NotPanics(t, func() {
		dispatcher.Send(context.Background(), signals.Updated, signals.Payload{})
	})
}
