package broker

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrUnavailable marks transient broker failures (connection refused,
	// leader election, broker restart). Callers may retry.
	ErrUnavailable = errors.New("broker unavailable")

	// ErrTimeout marks an operation that ran out of time. Retryable.
	ErrTimeout = errors.New("broker timeout")

	// ErrEndOfStream is returned by a replay stream once it has idled
	// past its timeout with no new messages. Not a failure.
	ErrEndOfStream = errors.New("end of stream")
)

// classify maps a kafka-go error onto the retryable sentinels, leaving
// everything else (bad topic, message too large, auth) fatal as-is.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) && kerr.Temporary() {
		return errors.Join(ErrUnavailable, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return errors.Join(ErrTimeout, err)
		}
		return errors.Join(ErrUnavailable, err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}
