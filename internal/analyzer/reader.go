// Package analyzer answers ad-hoc questions about the raw topic by
// rescanning it from the earliest offset. Every call is O(topic size);
// that is fine for the debugging surface it serves and no materialized
// index is kept. Scans are anonymous: they never share a group with
// the storage consumer, whose committed offsets must not move.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// ErrNotFound means the scan drained the topic without reaching the
// requested index. Distinct from a failed scan.
var ErrNotFound = errors.New("not found")

// EventStream is one ephemeral pass over the topic. Next returns
// broker.ErrEndOfStream once the topic idles out.
type EventStream interface {
	Next(ctx context.Context) (broker.Message, error)
	Close() error
}

// StreamOpener starts a fresh scan from the earliest offset.
type StreamOpener func(ctx context.Context) (EventStream, error)

type Reader struct {
	open StreamOpener
	log  *log.Logger
}

func NewReader(open StreamOpener, logger *log.Logger) *Reader {
	return &Reader{open: open, log: logger}
}

// Stats are per-type message counts over the whole topic.
type Stats struct {
	NumSensorData  int `json:"num_sensor_data"`
	NumUserCommand int `json:"num_user_command"`
}

// ReadByIndex returns the payload of the index-th (0-based) message of
// eventType. Messages of other types do not consume an index; malformed
// messages are skipped.
func (r *Reader) ReadByIndex(ctx context.Context, eventType string, index int) (json.RawMessage, error) {
	st, err := r.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open replay stream: %w", err)
	}
	defer st.Close()

	count := 0
	for {
		m, err := st.Next(ctx)
		if errors.Is(err, broker.ErrEndOfStream) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("replay scan: %w", err)
		}

		var env model.Envelope
		if jerr := json.Unmarshal(m.Value, &env); jerr != nil {
			r.log.Printf("[analyzer] skipping undecodable message at offset %d: %v", m.Offset, jerr)
			continue
		}
		if env.Type != eventType {
			continue
		}
		if count == index {
			r.log.Printf("[analyzer] returning %s at index %d (offset %d)", eventType, index, m.Offset)
			return env.Payload, nil
		}
		count++
	}
}

// ReadStats drains the topic and tallies messages per type.
func (r *Reader) ReadStats(ctx context.Context) (Stats, error) {
	st, err := r.open(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("open replay stream: %w", err)
	}
	defer st.Close()

	var stats Stats
	for {
		m, err := st.Next(ctx)
		if errors.Is(err, broker.ErrEndOfStream) {
			r.log.Printf("[analyzer] stats: sensor_data=%d user_command=%d", stats.NumSensorData, stats.NumUserCommand)
			return stats, nil
		}
		if err != nil {
			return Stats{}, fmt.Errorf("replay scan: %w", err)
		}

		var env model.Envelope
		if jerr := json.Unmarshal(m.Value, &env); jerr != nil {
			continue
		}
		switch env.Type {
		case model.EventSensorData:
			stats.NumSensorData++
		case model.EventUserCommand:
			stats.NumUserCommand++
		}
	}
}
