package messaging

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"
)

var (
	// ErrMemoryTopicRequired is returned for an empty topic.
	ErrMemoryTopicRequired = errors.New("messaging: memory topic is required")
	// ErrMemoryBacklogFull is returned when a topic without consumers is full.
	ErrMemoryBacklogFull = errors.New("messaging: memory backlog is full")
)

// Memory is an in-process broker for local runs and tests.
//
// Each group receives every message published to the topic; consumers in the
// same group share its queue. Messages published before any consumer exists
// are buffered per topic and handed to the first group that subscribes.
// A Nack requeues the message at the tail of its group queue, at most
// memoryMaxDeliveries times in total.
type Memory struct {
	mu      sync.Mutex
	seq     uint64
	pending map[string][]*memoryMessage
	groups  map[string]map[string]chan *memoryMessage
	closed  bool
	done    chan struct{}
}

// NewMemory returns an empty broker.
func NewMemory() *Memory {
	return &Memory{
		pending: map[string][]*memoryMessage{},
		groups:  map[string]map[string]chan *memoryMessage{},
		done:    make(chan struct{}),
	}
}

const (
	memoryQueueSize     = 1024
	memoryMaxDeliveries = 3
)

// Close stops every consumer.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish fans msg out to every group of topic.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	if topic == "" {
		return PublishResult{}, ErrMemoryTopicRequired
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return PublishResult{}, io.ErrClosedPipe
	}
	m.seq++
	id := strconv.FormatUint(m.seq, 10)
	groups := m.groups[topic]
	if len(groups) == 0 {
		if len(m.pending[topic]) >= memoryQueueSize {
			m.mu.Unlock()
			return PublishResult{}, ErrMemoryBacklogFull
		}
		m.pending[topic] = append(m.pending[topic], m.newMessage(id, msg, nil))
		m.mu.Unlock()
		return PublishResult{MessageID: id, Topic: topic, Timestamp: time.Now()}, nil
	}
	queues := make([]chan *memoryMessage, 0, len(groups))
	for _, q := range groups {
		queues = append(queues, q)
	}
	m.mu.Unlock()

	for _, q := range queues {
		select {
		case q <- m.newMessage(id, msg, q):
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{MessageID: id, Topic: topic, Timestamp: time.Now()}, nil
}

// Consume drains the group queue until ctx is done or the broker is closed.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrMemoryTopicRequired
	}
	co := newConsumeOptions(opts...)

	q, err := m.queue(topic, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case msg := <-q:
					//nolint:errcheck // in-memory settle cannot fail
					_ = dispatch(ctx, DriverMemory, handler, msg, co.autoAck)
				}
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return io.ErrClosedPipe
}

func (m *Memory) queue(topic, group string) (chan *memoryMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, io.ErrClosedPipe
	}
	if m.groups[topic] == nil {
		m.groups[topic] = map[string]chan *memoryMessage{}
	}
	if q, ok := m.groups[topic][group]; ok {
		return q, nil
	}

	q := make(chan *memoryMessage, memoryQueueSize)
	for _, msg := range m.pending[topic] {
		msg.queue = q
		q <- msg
	}
	delete(m.pending, topic)
	m.groups[topic][group] = q
	return q, nil
}

func (m *Memory) newMessage(id string, msg OutgoingMessage, q chan *memoryMessage) *memoryMessage {
	return &memoryMessage{
		id:      id,
		body:    append([]byte(nil), msg.Body...),
		headers: append([]Header(nil), msg.Headers...),
		queue:   q,
		tries:   1,
	}
}

type memoryMessage struct {
	settleOnce

	id      string
	body    []byte
	headers []Header
	queue   chan *memoryMessage
	tries   int
}

func (m *memoryMessage) ID() string        { return m.id }
func (m *memoryMessage) Body() []byte      { return m.body }
func (m *memoryMessage) Headers() []Header { return m.headers }

func (m *memoryMessage) Ack(context.Context) error {
	m.claim()
	return nil
}

func (m *memoryMessage) Nack(ctx context.Context) error {
	if !m.claim() || m.tries >= memoryMaxDeliveries {
		return nil
	}
	redo := &memoryMessage{id: m.id, body: m.body, headers: m.headers, queue: m.queue, tries: m.tries + 1}
	select {
	case m.queue <- redo:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
