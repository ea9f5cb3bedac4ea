// Package consumer runs the committed subscription that moves envelopes
// from the event topic into the persistence sink. Offsets advance only
// after the sink has acknowledged a record, so a crash replays the
// in-flight record instead of losing it (at-least-once).
package consumer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/model"
	"github.com/lucaslui/hems/event-pipeline/internal/sink"
)

// Source is the committed subscription the loop drains.
type Source interface {
	Fetch(ctx context.Context) (broker.Message, error)
	Commit(ctx context.Context, msgs ...broker.Message) error
}

type Loop struct {
	src  Source
	sink sink.Sink
	log  *log.Logger

	// fetchBackoff spaces out retries after a transient fetch error.
	fetchBackoff time.Duration
}

func NewLoop(src Source, s sink.Sink, logger *log.Logger) *Loop {
	return &Loop{src: src, sink: s, log: logger, fetchBackoff: 50 * time.Millisecond}
}

// Run drains the subscription until ctx is cancelled. The record being
// handled when cancellation arrives is finished (written and committed,
// or left uncommitted) before Run returns.
func (l *Loop) Run(ctx context.Context) {
	for {
		m, err := l.src.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.log.Printf("[consumer] stopping: %v", ctx.Err())
				return
			}
			l.log.Printf("[consumer] fetch error: %v", err)
			select {
			case <-time.After(l.fetchBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		l.Handle(ctx, m)
	}
}

// Handle processes one record. A malformed envelope or unknown type is
// logged, skipped and still committed so the partition keeps moving; a
// sink failure leaves the offset where it was, forcing redelivery.
func (l *Loop) Handle(ctx context.Context, m broker.Message) {
	var env model.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		l.log.Printf("[consumer] skipping undecodable message at offset %d: %v", m.Offset, err)
		l.commit(ctx, m)
		return
	}

	var werr error
	switch env.Type {
	case model.EventSensorData:
		var r model.SensorReading
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			l.log.Printf("[consumer] skipping bad sensor_data payload at offset %d: %v", m.Offset, err)
			l.commit(ctx, m)
			return
		}
		werr = l.sink.WriteSensorData(ctx, r)
	case model.EventUserCommand:
		var c model.UserCommand
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			l.log.Printf("[consumer] skipping bad user_command payload at offset %d: %v", m.Offset, err)
			l.commit(ctx, m)
			return
		}
		werr = l.sink.WriteUserCommand(ctx, c)
	default:
		l.log.Printf("[consumer] skipping unknown event type %q at offset %d", env.Type, m.Offset)
		l.commit(ctx, m)
		return
	}

	if werr != nil {
		l.log.Printf("[consumer] sink write failed at offset %d, not committing: %v", m.Offset, werr)
		return
	}
	l.commit(ctx, m)
}

func (l *Loop) commit(ctx context.Context, m broker.Message) {
	if err := l.src.Commit(ctx, m); err != nil {
		// The write already happened; the worst case after a failed
		// commit is one redelivered record, which the sink tolerates.
		l.log.Printf("[consumer] commit failed at offset %d: %v", m.Offset, err)
	}
}
