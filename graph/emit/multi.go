package emit

import "context"

// MultiEmitter fans an event out to every backend in Emitters, the
// "multi-emit" pattern Emitter's own doc comment describes. Used to run the
// terminal/log emitter and an optional OTelEmitter side by side.
type MultiEmitter struct {
	Emitters []Emitter
}

// NewMultiEmitter returns a MultiEmitter fanning out to backends in order.
func NewMultiEmitter(backends ...Emitter) *MultiEmitter {
	return &MultiEmitter{Emitters: backends}
}

func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.Emitters {
		e.Emit(event)
	}
}

func (m *MultiEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, e := range m.Emitters {
		if err := e.EmitBatch(ctx, events); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiEmitter) Flush(ctx context.Context) error {
	for _, e := range m.Emitters {
		if err := e.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}
