package broker

import (
	"context"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Message is the broker-neutral view of a consumed record. Topic,
// Partition and Offset are enough to commit it back.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
}

func fromKafka(m kafka.Message) Message {
	return Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
	}
}

func toKafka(m Message) kafka.Message {
	return kafka.Message{Topic: m.Topic, Partition: m.Partition, Offset: m.Offset}
}

// GroupReader is a committed consumer-group subscription. Fetch and
// Commit are decoupled so the caller can ack a message only after it
// has been durably processed (at-least-once).
type GroupReader struct {
	r *kafka.Reader
}

// NewGroupReader subscribes groupID to topic. With skipBacklog the
// group starts from the latest offset when it has no committed
// position; otherwise it starts from the earliest.
func NewGroupReader(brokers string, groupID, topic string, skipBacklog bool) *GroupReader {
	start := kafka.FirstOffset
	if skipBacklog {
		start = kafka.LastOffset
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         strings.Split(brokers, ","),
		GroupID:         groupID,
		Topic:           topic,
		StartOffset:     start,
		MinBytes:        1,
		MaxBytes:        10e6,
		ReadLagInterval: -1,
	})
	return &GroupReader{r: r}
}

func (g *GroupReader) Fetch(ctx context.Context) (Message, error) {
	m, err := g.r.FetchMessage(ctx)
	if err != nil {
		return Message{}, classify(err)
	}
	return fromKafka(m), nil
}

func (g *GroupReader) Commit(ctx context.Context, msgs ...Message) error {
	ks := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		ks[i] = toKafka(m)
	}
	return classify(g.r.CommitMessages(ctx, ks...))
}

func (g *GroupReader) Close() error { return g.r.Close() }
