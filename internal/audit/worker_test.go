package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStampsTimestamp(t *testing.T) {
	sink := NewMemorySink()
	publisher := NewPublisher(sink)

	require.NoError(t, publisher.Emit(context.Background(), Event{Kind: EventRecordUpdated}))

	events := sink.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisherKeepsExplicitTimestamp(t *testing.T) {
	sink := NewMemorySink()
	publisher := NewPublisher(sink)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, publisher.Emit(context.Background(), Event{Kind: EventLogout, Timestamp: at}))
	assert.True(t, at.Equal(sink.Events()[0].Timestamp))
}

func TestWorkerForwardsInOrder(t *testing.T) {
	sink := NewMemorySink()
	inbox := make(ChanSink, 8)
	worker := NewWorker(sink, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	publisher := NewPublisher(inbox)
	require.NoError(t, publisher.Emit(ctx, Event{Kind: EventRecordUpdated, OwnerID: "u1"}))
	require.NoError(t, publisher.Emit(ctx, Event{Kind: EventRecordDeleted, OwnerID: "u1"}))

	require.Eventually(t, func() bool {
		return len(sink.Events()) == 2
	}, time.Second, 5*time.Millisecond)

	events := sink.Events()
	assert.Equal(t, EventRecordUpdated, events[0].Kind)
	assert.Equal(t, EventRecordDeleted, events[1].Kind)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

type failingSink struct{ err error }

func (f failingSink) Append(context.Context, Event) error { return f.err }

func TestWorkerStopsOnSinkFailure(t *testing.T) {
	inbox := make(ChanSink, 1)
	worker := NewWorker(failingSink{err: errors.New("broker gone")}, inbox)
	inbox <- Event{Kind: EventLogout}

	err := worker.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker gone")
}

func TestChanSinkRespectsContext(t *testing.T) {
	inbox := make(ChanSink) // unbuffered, nobody reading
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := inbox.Append(ctx, Event{Kind: EventLogout})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMultiSinkFansOut(t *testing.T) {
	first := NewMemorySink()
	second := NewMemorySink()
	multi := MultiSink{first, second}

	require.NoError(t, multi.Append(context.Background(), Event{Kind: EventAdminCreated}))
	assert.Len(t, first.Events(), 1)
	assert.Len(t, second.Events(), 1)
}

func TestMultiSinkReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	multi := MultiSink{failingSink{err: boom}, NewMemorySink()}
	require.ErrorIs(t, multi.Append(context.Background(), Event{}), boom)
}
