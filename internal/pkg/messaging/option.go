package messaging

// DefaultMaxAttempts bounds redeliveries for drivers that track attempts.
const DefaultMaxAttempts = 5

type consumeOptions struct {
	// group names the consumer group (Kafka group, NSQ channel, NATS queue group,
	// Pub/Sub subscription suffix).
	// Every group receives each message once.
	group string

	// concurrency specifies the number of handlers processing messages in parallel.
	concurrency int

	maxAttempts int
}

// ConsumeOption configures consumer behavior.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&co)
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	if co.maxAttempts <= 0 {
		co.maxAttempts = DefaultMaxAttempts
	}
	return co
}

// WithGroup sets the consumer group name.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithConcurrency sets how many handler goroutines process messages in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithMaxAttempts caps how many times a failing message is handed to the handler.
func WithMaxAttempts(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxAttempts = n }
}
