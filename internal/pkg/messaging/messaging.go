package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when a driver cannot honor an option.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// Messaging is the full broker client.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes to a topic or subject.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer blocks consuming from topic until ctx is done or a fatal error occurs.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	Body []byte
	// Key is the partition key on Kafka and the ordering key on Pub/Sub.
	Key     []byte
	Headers []Header
}

// Header is one message header. NSQ has no headers and drops them.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult describes an accepted publish.
type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

// Message is a received message.
type Message interface {
	ID() string
	Body() []byte
	Headers() []Header

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

// HeaderValue returns the first value for key, or "".
func HeaderValue(msg Message, key string) string {
	for _, h := range msg.Headers() {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
