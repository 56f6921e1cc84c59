package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversInPriorityOrder(t *testing.T) {
	bus := NewEventBus()
	var order []int

	bus.On(EventModelCreated, 100, "late", func(Event) { order = append(order, 100) })
	bus.On(EventModelCreated, 10, "early", func(Event) { order = append(order, 10) })
	bus.On(EventModelCreated, 50, "mid", func(Event) { order = append(order, 50) })

	bus.Emit(Event{Kind: EventModelCreated})
	require.Equal(t, []int{10, 50, 100}, order)
}

func TestEventBusSurvivesHandlerPanic(t *testing.T) {
	bus := NewEventBus()
	secondRan := false

	bus.On(EventModelCreated, 1, "panicky", func(Event) { panic("boom") })
	bus.On(EventModelCreated, 2, "fine", func(Event) { secondRan = true })

	require.NotPanics(t, func() {
		bus.Emit(Event{Kind: EventModelCreated})
	})
	require.True(t, secondRan, "a panicking handler must not block later subscribers")
}

func TestArtifactTagMapping(t *testing.T) {
	tag, ok := ArtifactTag(EventPredictionMade)
	require.True(t, ok)
	require.Equal(t, "prediction", tag)

	_, ok = ArtifactTag(EventNetworkStarted)
	require.False(t, ok, "network events are not part of the validated-artifact allowlist")
}
