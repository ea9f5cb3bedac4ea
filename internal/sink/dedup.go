package sink

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lucaslui/hems/event-pipeline/internal/model"
)

// Deduper tracks which trace ids have been persisted. The pipeline is
// at-least-once, so a crash between a sink write and the offset commit
// redelivers the record; deduplication is an explicit, optional policy,
// not a delivery guarantee. Seen and Mark are separate so a failed
// write never poisons the trace id: Mark runs only after the sink has
// acknowledged. The consumer is a single group member, so there is no
// check-then-set race.
type Deduper interface {
	Seen(ctx context.Context, eventType, traceID string) (bool, error)
	Mark(ctx context.Context, eventType, traceID string) error
}

// RedisDeduper keeps trace ids under a TTL. The TTL only needs to
// outlive the redelivery horizon (consumer restart lag), not the full
// retention of the topic.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(addr, password string, db int, ttl time.Duration) *RedisDeduper {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func dedupKey(eventType, traceID string) string {
	return fmt.Sprintf("dedup:%s:%s", eventType, traceID)
}

func (d *RedisDeduper) Seen(ctx context.Context, eventType, traceID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, dedupKey(eventType, traceID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduper) Mark(ctx context.Context, eventType, traceID string) error {
	return d.rdb.Set(ctx, dedupKey(eventType, traceID), 1, d.ttl).Err()
}

func (d *RedisDeduper) Close() error { return d.rdb.Close() }

// DedupSink drops writes whose trace id was already persisted. A
// dedup-store failure fails open: writing a duplicate is acceptable,
// silently dropping a fresh record is not.
type DedupSink struct {
	inner Sink
	d     Deduper
	log   *log.Logger
}

func WithDedup(inner Sink, d Deduper, logger *log.Logger) *DedupSink {
	return &DedupSink{inner: inner, d: d, log: logger}
}

func (s *DedupSink) WriteSensorData(ctx context.Context, r model.SensorReading) error {
	if s.seen(ctx, model.EventSensorData, r.TraceID) {
		return nil
	}
	if err := s.inner.WriteSensorData(ctx, r); err != nil {
		return err
	}
	s.mark(ctx, model.EventSensorData, r.TraceID)
	return nil
}

func (s *DedupSink) WriteUserCommand(ctx context.Context, c model.UserCommand) error {
	if s.seen(ctx, model.EventUserCommand, c.TraceID) {
		return nil
	}
	if err := s.inner.WriteUserCommand(ctx, c); err != nil {
		return err
	}
	s.mark(ctx, model.EventUserCommand, c.TraceID)
	return nil
}

func (s *DedupSink) seen(ctx context.Context, eventType, traceID string) bool {
	if traceID == "" {
		return false
	}
	seen, err := s.d.Seen(ctx, eventType, traceID)
	if err != nil {
		s.log.Printf("[dedup] lookup failed for trace_id=%s, writing anyway: %v", traceID, err)
		return false
	}
	if seen {
		s.log.Printf("[dedup] dropping duplicate %s trace_id=%s", eventType, traceID)
	}
	return seen
}

func (s *DedupSink) mark(ctx context.Context, eventType, traceID string) {
	if traceID == "" {
		return
	}
	if err := s.d.Mark(ctx, eventType, traceID); err != nil {
		s.log.Printf("[dedup] mark failed for trace_id=%s: %v", traceID, err)
	}
}
