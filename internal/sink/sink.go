// Package sink persists decoded events and serves the windowed range
// queries the aggregator depends on. date_created is assigned here, at
// insert time, and is the only ordering key for windows.
package sink

import (
	"context"
	"fmt"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// Sink is the write side used by the committed consumer.
type Sink interface {
	WriteSensorData(ctx context.Context, r model.SensorReading) error
	WriteUserCommand(ctx context.Context, c model.UserCommand) error
}

// Store adds the read side: half-open range scans on date_created.
type Store interface {
	Sink
	SensorDataRange(ctx context.Context, start, end string) ([]model.SensorReadingRecord, error)
	UserCommandRange(ctx context.Context, start, end string) ([]model.UserCommandRecord, error)
}

// StorageError wraps any failure from the backing store. The committed
// consumer reacts to it by not committing the offset, so the record is
// redelivered.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
