package history

import (
	"context"
	"log/slog"

	"home-cloud/internal/event"
	"home-cloud/internal/model"
)

// Recorder subscribes to the event bus and persists recognition outcomes.
// It runs until its context is canceled.
type Recorder struct {
	store  *Store
	bus    event.Bus
	logger *slog.Logger
}

func NewRecorder(store *Store, bus event.Bus, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, bus: bus, logger: logger}
}

func (r *Recorder) Run(ctx context.Context) error {
	events, unsubscribe := r.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			r.handle(ctx, e)
		}
	}
}

func (r *Recorder) handle(ctx context.Context, e event.Event) {
	switch e.Type {
	case event.TypeMediaRecognized, event.TypeMediaUnrecognized:
	default:
		return
	}

	record, ok := e.Payload.(model.RecognitionRecord)
	if !ok {
		r.logger.Warn("recognition event carried unexpected payload", "type", e.Type)
		return
	}

	if _, err := r.store.Append(ctx, record); err != nil {
		r.logger.Error("failed to persist recognition record",
			"filename", record.Filename,
			"error", err,
		)
	}
}
