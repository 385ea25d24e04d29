package audit

import (
	"context"
	"log/slog"
	"sync"
)

// MemorySink keeps events in memory. Used in tests and as the dev fallback
// when no Kafka brokers are configured.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// SlogSink mirrors events into the process log so warnings stay observable
// even without an external event stream.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Append(ctx context.Context, event Event) error {
	level := slog.LevelInfo
	if event.Kind == EventCleanupWarning {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "admin event",
		"kind", string(event.Kind),
		"actor", event.Actor,
		"owner_id", event.OwnerID,
		"detail", event.Detail,
	)
	return nil
}

// MultiSink fans one event out to several sinks, returning the first error.
type MultiSink []Sink

func (m MultiSink) Append(ctx context.Context, event Event) error {
	for _, sink := range m {
		if err := sink.Append(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
