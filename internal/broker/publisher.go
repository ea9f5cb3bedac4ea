package broker

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher writes single envelopes to the event topic and waits for
// the broker's ack. Unlike the batching writers elsewhere in the stack
// it is deliberately synchronous: the ingestion gateway needs a per-call
// success signal so its bounded retry never double-publishes.
type Publisher struct {
	w   *kafka.Writer
	log *log.Logger
}

func NewPublisher(brokers []string, topic string, logger *log.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},

		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,

		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  1, // retries belong to the caller's policy
	}
	return &Publisher{w: w, log: logger}
}

// Connect probes the bootstrap broker under the given policy. The
// writer itself dials lazily; this exists so a service can fail fast at
// boot instead of on its first request.
func (p *Publisher) Connect(ctx context.Context, policy RetryPolicy) error {
	addr := p.w.Addr.String()
	attempt := 0
	return policy.Do(ctx, func() error {
		attempt++
		p.log.Printf("[kafka] connecting to %s (attempt %d/%d)", addr, attempt, policy.MaxAttempts)
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			return classify(err)
		}
		_ = conn.Close()
		p.log.Printf("[kafka] connected to %s", addr)
		return nil
	})
}

func (p *Publisher) Publish(ctx context.Context, key, value []byte) error {
	err := p.w.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
	return classify(err)
}

func (p *Publisher) Close() error { return p.w.Close() }
