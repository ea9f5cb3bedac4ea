package broker

import (
	"context"
	"log"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// EnsureTopic creates topic on the cluster if it does not exist yet.
// Idempotent; intended for service boot.
func EnsureTopic(ctx context.Context, bootstrap, topic string, partitions, replicationFactor int, logger *log.Logger) error {
	conn, err := kafka.DialContext(ctx, "tcp", bootstrap)
	if err != nil {
		return classify(err)
	}
	defer conn.Close()

	if parts, err := conn.ReadPartitions(topic); err == nil && len(parts) > 0 {
		logger.Printf("[kafka] topic %s already exists — skipping", topic)
		return nil
	}

	controller, err := conn.Controller()
	if err != nil {
		return classify(err)
	}
	ctrlAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	ctrlConn, err := kafka.DialContext(ctx, "tcp", ctrlAddr)
	if err != nil {
		return classify(err)
	}
	defer ctrlConn.Close()

	logger.Printf("[kafka] creating topic %s (partitions=%d rf=%d)", topic, partitions, replicationFactor)
	return classify(ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	}))
}
