package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"trend-finder-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestMarshalRoundTrip(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := Marshal(BaseEvent{
		Type:       HistoryUpdated,
		Data:       map[string]interface{}{"client_id": "c1", "count": 3},
		OccurredAt: at,
	})
	require.NoError(t, err)

	event, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, HistoryUpdated, event.EventType())
	assert.Equal(t, "c1", ClientID(event))
	assert.Equal(t, float64(3), event.Payload()["count"])
	assert.True(t, at.Equal(event.Timestamp()))
}

func TestNotifierAddsClientID(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(pub, logger.NewNopLogger())

	n.Emit(context.Background(), "c9", DirectionChanged, map[string]interface{}{"direction": "rtl"})

	require.Len(t, pub.events, 1)
	assert.Equal(t, DirectionChanged, pub.events[0].EventType())
	assert.Equal(t, "c9", ClientID(pub.events[0]))
	assert.Equal(t, "rtl", pub.events[0].Payload()["direction"])
}

func TestNotifierSwallowsFailures(t *testing.T) {
	n := NewNotifier(&recordingPublisher{err: errors.New("bus down")}, logger.NewNopLogger())
	n.Emit(context.Background(), "c", ChatUpdated, nil)

	var nilNotifier *Notifier
	nilNotifier.Emit(context.Background(), "c", ChatUpdated, nil)
	NewNotifier(nil, logger.NewNopLogger()).Emit(context.Background(), "c", ChatUpdated, nil)
}

func TestChannelBusDelivers(t *testing.T) {
	bus := NewChannelBus(logger.NewNopLogger())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(ctx, func(_ context.Context, e Event) error {
		got <- e
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, BaseEvent{
		Type:       AnalysisCompleted,
		Data:       map[string]interface{}{"client_id": "c1"},
		OccurredAt: time.Now(),
	}))

	select {
	case e := <-got:
		assert.Equal(t, AnalysisCompleted, e.EventType())
		assert.Equal(t, "c1", ClientID(e))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestChannelBusPreservesEmitOrder(t *testing.T) {
	bus := NewChannelBus(logger.NewNopLogger())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const total = 500
	got := make(chan float64, total)
	require.NoError(t, bus.Subscribe(ctx, func(_ context.Context, e Event) error {
		got <- e.Payload()["seq"].(float64)
		return nil
	}))

	n := NewNotifier(bus, logger.NewNopLogger())
	for i := 0; i < total; i++ {
		n.Emit(ctx, "c1", ChatUpdated, map[string]interface{}{"seq": i})
	}

	for i := 0; i < total; i++ {
		select {
		case seq := <-got:
			require.Equal(t, float64(i), seq)
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}
