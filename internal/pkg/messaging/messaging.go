package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// HeaderCorrelationID carries the request correlation id across the broker.
const HeaderCorrelationID = "cID"

var (
	// ErrUnsupported is returned when a feature is not supported by the selected broker.
	ErrUnsupported = errors.New("messaging: unsupported operation")
	// ErrClosed is returned when the client has been closed.
	ErrClosed = errors.New("messaging: client is closed")
	// ErrTopicRequired is returned when the topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned when the driver needs a consumer group and none was given.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
)

// Messaging is a broker-agnostic client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer consumes messages from a topic. Consume blocks until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	// Key is used by Kafka for partitioning.
	Key     string
	Body    []byte
	Headers map[string]string
}

// Message is a received message.
type Message struct {
	ID      string
	Topic   string
	Key     string
	Body    []byte
	Headers map[string]string
	// Attempt starts at 1 and grows with every redelivery the broker reports.
	Attempt   int
	Timestamp time.Time
}

// Header returns the value of header k, or "".
func (m Message) Header(k string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[k]
}

func cloneHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
