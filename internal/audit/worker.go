package audit

import "context"

// Worker consumes events from a channel and forwards them to a sink. It
// keeps background processing testable without wiring queue implementations
// into domain services.
type Worker struct {
	sink  Sink
	inbox <-chan Event
}

func NewWorker(sink Sink, inbox <-chan Event) *Worker {
	return &Worker{sink: sink, inbox: inbox}
}

// ChanSink feeds a Worker inbox. Append blocks when the inbox is full
// rather than dropping events.
type ChanSink chan Event

func (c ChanSink) Append(ctx context.Context, event Event) error {
	select {
	case c <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
