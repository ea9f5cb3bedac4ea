// Package gateway is the producer edge of the pipeline: it validates an
// inbound device event, stamps it with a trace id, wraps it in the
// topic envelope and publishes it with bounded retry.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/lucaslui/hems/event-pipeline/internal/broker"
	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// Publisher is the durable-log edge the gateway publishes through.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Forwarder is the optional synchronous storage-facing copy. Its
// failures are reported alongside a successful publish, never instead
// of one.
type Forwarder interface {
	Forward(ctx context.Context, eventType string, payload []byte) error
}

type Gateway struct {
	pub     Publisher
	fwd     Forwarder // may be nil
	policy  broker.RetryPolicy
	log     *log.Logger
	now     func() time.Time
	newUUID func() string
}

func New(pub Publisher, fwd Forwarder, policy broker.RetryPolicy, logger *log.Logger) *Gateway {
	return &Gateway{
		pub:     pub,
		fwd:     fwd,
		policy:  policy,
		log:     logger,
		now:     time.Now,
		newUUID: uuid.NewString,
	}
}

// Result carries the two independent outcomes of an ingest: the trace
// id of the published envelope, and the error (if any) from the
// optional storage forward.
type Result struct {
	TraceID    string
	ForwardErr error
}

// Ingest validates body for eventType, assigns a fresh trace id,
// envelopes it and publishes. At most one envelope is ever published
// per call: the retry policy only applies before the first successful
// ack. On exhaustion the event is dropped, not queued; callers are
// told via a retryable broker error.
func (g *Gateway) Ingest(ctx context.Context, eventType string, body []byte) (Result, error) {
	fields, err := decodeBody(body)
	if err != nil {
		return Result{}, &ValidationError{Field: "body", Reason: err.Error()}
	}
	if err := checkRequired(eventType, fields); err != nil {
		return Result{}, err
	}

	traceID := g.newUUID()
	fields["trace_id"] = traceID
	payload, err := json.Marshal(fields)
	if err != nil {
		return Result{}, fmt.Errorf("encode payload: %w", err)
	}

	env := model.Envelope{
		Type:     eventType,
		Datetime: g.now().UTC().Format(model.TimeLayout),
		Payload:  payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return Result{}, fmt.Errorf("encode envelope: %w", err)
	}

	g.log.Printf("[ingest] received %s event, trace_id=%s", eventType, traceID)

	attempt := 0
	err = g.policy.Do(ctx, func() error {
		attempt++
		perr := g.pub.Publish(ctx, []byte(eventType), value)
		if perr != nil {
			g.log.Printf("[ingest] publish attempt %d/%d failed: %v", attempt, g.policy.MaxAttempts, perr)
		}
		return perr
	})
	if err != nil {
		g.log.Printf("[ingest] dropping %s event trace_id=%s after %d attempts: %v", eventType, traceID, attempt, err)
		return Result{}, err
	}
	g.log.Printf("[ingest] produced %s event trace_id=%s", eventType, traceID)

	res := Result{TraceID: traceID}
	if g.fwd != nil {
		if ferr := g.fwd.Forward(ctx, eventType, payload); ferr != nil {
			g.log.Printf("[ingest] storage forward failed for trace_id=%s: %v", traceID, ferr)
			res.ForwardErr = ferr
		}
	}
	return res, nil
}

func decodeBody(body []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
