package broker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReplayStream is an ephemeral, non-committing scan of the topic from
// the earliest offset. It carries no consumer group, so it can never
// disturb the storage service's committed position. Next returns
// ErrEndOfStream once no message arrives within the idle timeout.
type ReplayStream struct {
	r    *kafka.Reader
	idle time.Duration
}

func OpenReplayStream(brokers, topic string, idle time.Duration) *ReplayStream {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         strings.Split(brokers, ","),
		Topic:           topic,
		StartOffset:     kafka.FirstOffset,
		MinBytes:        1,
		MaxBytes:        10e6,
		ReadLagInterval: -1,
	})
	return &ReplayStream{r: r, idle: idle}
}

func (s *ReplayStream) Next(ctx context.Context) (Message, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.idle)
	defer cancel()

	m, err := s.r.FetchMessage(fetchCtx)
	if err != nil {
		// The inner deadline firing means the topic went quiet, which
		// ends the scan; the caller's own cancellation stays an error.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Message{}, ErrEndOfStream
		}
		return Message{}, classify(err)
	}
	return fromKafka(m), nil
}

func (s *ReplayStream) Close() error { return s.r.Close() }
