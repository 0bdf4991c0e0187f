package messaging

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const memoryBuffer = 256

// Memory is an in-process broker. Messages published while no group is
// subscribed to a topic are dropped, like core NATS.
type Memory struct {
	mu     sync.RWMutex
	topics map[string]map[string]*memoryGroup

	closed    *atomic.Bool
	seq       *atomic.Uint64
	delivered *atomic.Int64
}

type memoryGroup struct {
	ch          chan Message
	consumers   int
	maxAttempts int
}

// NewMemory constructs an in-process broker.
func NewMemory() *Memory {
	return &Memory{
		topics:    map[string]map[string]*memoryGroup{},
		closed:    atomic.NewBool(false),
		seq:       atomic.NewUint64(0),
		delivered: atomic.NewInt64(0),
	}
}

// Close stops accepting new messages.
func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}

// Delivered reports how many messages handlers have processed without error.
func (m *Memory) Delivered() int64 {
	return m.delivered.Load()
}

// Publish fans msg out to every group subscribed to topic.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if m.closed.Load() {
		return ErrClosed
	}

	out := Message{
		ID:        strconv.FormatUint(m.seq.Inc(), 10),
		Topic:     topic,
		Key:       msg.Key,
		Body:      append([]byte(nil), msg.Body...),
		Headers:   cloneHeaders(msg.Headers),
		Attempt:   1,
		Timestamp: time.Now(),
	}

	m.mu.RLock()
	groups := make([]*memoryGroup, 0, len(m.topics[topic]))
	for _, g := range m.topics[topic] {
		groups = append(groups, g)
	}
	m.mu.RUnlock()

	for _, g := range groups {
		select {
		case g.ch <- out:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Consume joins group (default "default") on topic and blocks until ctx is done.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}
	if m.closed.Load() {
		return ErrClosed
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		co.group = "default"
	}

	g := m.join(topic, co)
	defer m.leave(topic, co.group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-g.ch:
					m.handle(ctx, g, handler, msg)
				}
			}
		})
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (m *Memory) handle(ctx context.Context, g *memoryGroup, handler Handler, msg Message) {
	err := callHandler(ctx, "memory", handler, msg)
	if err == nil {
		m.delivered.Inc()
		return
	}

	if msg.Attempt >= g.maxAttempts {
		slog.ErrorContext(ctx, "messaging: dropping message after max attempts", "topic", msg.Topic, "id", msg.ID, "attempt", msg.Attempt, "error", err)
		return
	}

	msg.Attempt++
	select {
	case g.ch <- msg:
	case <-ctx.Done():
	}
}

func (m *Memory) join(topic string, co consumeOptions) *memoryGroup {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups, ok := m.topics[topic]
	if !ok {
		groups = map[string]*memoryGroup{}
		m.topics[topic] = groups
	}

	g, ok := groups[co.group]
	if !ok {
		g = &memoryGroup{ch: make(chan Message, memoryBuffer), maxAttempts: co.maxAttempts}
		groups[co.group] = g
	}
	g.consumers++
	return g
}

func (m *Memory) leave(topic, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.topics[topic][group]
	if !ok {
		return
	}
	g.consumers--
	if g.consumers <= 0 {
		delete(m.topics[topic], group)
	}
}
