package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"payment-portal/backend/internal/telemetry/domain"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []*domain.Event
	err    error
	done   chan struct{}
}

func newRecordingEmitter(err error) *recordingEmitter {
	return &recordingEmitter{err: err, done: make(chan struct{}, 8)}
}

func (r *recordingEmitter) Emit(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.done <- struct{}{}
	return r.err
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestFanout(t *testing.T) {
	first := newRecordingEmitter(errors.New("sink down"))
	second := newRecordingEmitter(nil)
	f := Fanout{first, nil, second}

	err := f.Emit(context.Background(), &domain.Event{EventType: "http_request"})
	if err == nil || err.Error() != "sink down" {
		t.Errorf("Emit() error = %v, want first sink's error", err)
	}
	if first.count() != 1 || second.count() != 1 {
		t.Error("all sinks must be tried even after an error")
	}
}

func TestEmitAsync(t *testing.T) {
	rec := newRecordingEmitter(nil)
	EmitAsync(rec, context.Background(), &domain.Event{EventType: "http_request"})

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("async emit never ran")
	}
}

func TestEmitAsyncNilSafe(t *testing.T) {
	// Must not panic.
	EmitAsync(nil, context.Background(), &domain.Event{})
	rec := newRecordingEmitter(nil)
	EmitAsync(rec, context.Background(), nil)
	select {
	case <-rec.done:
		t.Error("nil event must not be emitted")
	case <-time.After(50 * time.Millisecond):
	}
}
