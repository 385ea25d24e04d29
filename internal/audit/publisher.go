package audit

import (
	"context"
	"time"
)

// Sink receives emitted events. It is append-only so tests can swap sinks
// easily.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured operational events.
type Publisher struct {
	sink Sink
}

func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	return p.sink.Append(ctx, base)
}
