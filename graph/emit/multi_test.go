package emit

import (
	"context"
	"errors"
	"testing"
)

type recordingEmitter struct {
	events   []Event
	flushed  bool
	flushErr error
}

func (r *recordingEmitter) Emit(event Event) { r.events = append(r.events, event) }

func (r *recordingEmitter) EmitBatch(_ context.Context, events []Event) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingEmitter) Flush(context.Context) error {
	r.flushed = true
	return r.flushErr
}

func TestMultiEmitter_EmitFansOutToEveryBackend(t *testing.T) {
	a, b := &recordingEmitter{}, &recordingEmitter{}
	m := NewMultiEmitter(a, b)

	event := Event{RunID: "run-001", NodeID: "specify", Msg: "node_start"}
	m.Emit(event)

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both backends to receive the event, got a=%d b=%d", len(a.events), len(b.events))
	}
}

func TestMultiEmitter_FlushPropagatesToEveryBackend(t *testing.T) {
	a, b := &recordingEmitter{}, &recordingEmitter{}
	m := NewMultiEmitter(a, b)

	if err := m.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !a.flushed || !b.flushed {
		t.Fatal("expected Flush to reach every backend")
	}
}

func TestMultiEmitter_FlushStopsAtFirstError(t *testing.T) {
	failing := &recordingEmitter{flushErr: errors.New("boom")}
	trailing := &recordingEmitter{}
	m := NewMultiEmitter(failing, trailing)

	if err := m.Flush(context.Background()); err == nil {
		t.Fatal("expected Flush to propagate the first backend's error")
	}
}
