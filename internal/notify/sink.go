package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"plantmanager/internal/plant"
)

// Sink presents a notification to the user.
type Sink interface {
	Deliver(ctx context.Context, e *Entry) error
}

// WriterSink prints one line per notification: title, then message.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Deliver(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s %s\n", e.Title, e.Message)
	return err
}

// LogSink records notifications in the log only.
type LogSink struct {
	logger plant.Logger
}

func NewLogSink(logger plant.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(_ context.Context, e *Entry) error {
	s.logger.Info("notification", "plant_id", e.PlantID, "title", e.Title, "message", e.Message)
	return nil
}
