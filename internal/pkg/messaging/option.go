package messaging

type consumeOptions struct {
	concurrency int
	autoAck     bool
	maxInFlight int

	// group names the logical consumer. Each driver maps it onto its own
	// concept: Kafka consumer group, NATS queue group, NSQ channel and
	// Pub/Sub subscription.
	group string
}

// ConsumeOption tunes Consume.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	return co
}

// WithConcurrency sets the number of concurrent handler invocations.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithGroup sets the consumer name shared by all replicas.
func WithGroup(name string) ConsumeOption {
	return func(o *consumeOptions) { o.group = name }
}

// WithAutoAck settles messages from the handler result.
func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}

// WithMaxInFlight bounds unacknowledged messages where the driver supports it.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}
