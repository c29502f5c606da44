package event

import (
	"context"
	"testing"
	"time"

	"github.com/awantoch/portflow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInProcEventBus(t *testing.T) {
	bus := NewInProcEventBus()
	require.NotNil(t, bus)
	assert.NoError(t, bus.Close())
}

func TestPublishWithoutSubscriber(t *testing.T) {
	bus := NewInProcEventBus()
	defer bus.Close()
	err := bus.Publish(context.Background(), "invocation.completed", &InvocationEvent{RunID: "r", Status: "SUCCEEDED"})
	assert.NoError(t, err)
}

func TestEventBus_RoundTrip(t *testing.T) {
	bus := NewInProcEventBus()
	defer bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	received := make(chan *InvocationEvent, 1)
	require.NoError(t, bus.Subscribe(ctx, "invocation.completed", func(evt *InvocationEvent) {
		received <- evt
	}))

	sent := &InvocationEvent{
		RunID:                "run-1",
		InvocationID:         "inv-1",
		Index:                2,
		Operation:            "invokeAgent",
		Identifier:           "triage",
		InvocationIdentifier: "abc-123",
		Status:               "SUCCEEDED",
		Timestamp:            time.Unix(1_700_000_000, 0).UTC(),
	}
	require.NoError(t, bus.Publish(ctx, "invocation.completed", sent))

	select {
	case got := <-received:
		assert.Equal(t, sent, got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestNewEventBusFromConfig(t *testing.T) {
	bus, err := NewEventBusFromConfig(nil)
	require.NoError(t, err)
	require.NotNil(t, bus)
	bus.Close()

	bus, err = NewEventBusFromConfig(&config.EventConfig{Driver: "memory"})
	require.NoError(t, err)
	bus.Close()

	_, err = NewEventBusFromConfig(&config.EventConfig{Driver: "nats"})
	assert.ErrorContains(t, err, "requires url")

	_, err = NewEventBusFromConfig(&config.EventConfig{Driver: "kafka"})
	assert.ErrorContains(t, err, "unsupported")
}
