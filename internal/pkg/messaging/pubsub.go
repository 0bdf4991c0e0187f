package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// pubSubKeyAttribute carries OutgoingMessage.Key. Ordering keys are not used
// because they require ordered publishers on every topic.
const pubSubKeyAttribute = "x-message-key"

// ErrPubSubProjectIDRequired is returned when the Google Cloud project is missing.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	ProjectID string

	// Client provides an existing Pub/Sub client. ClientOptions are ignored when set.
	Client        *pubsub.Client
	ClientOptions []option.ClientOption

	// AutoCreate creates missing topics and subscriptions. Meant for the
	// emulator and local setups; production resources are provisioned up front.
	AutoCreate bool
}

// PubSub is a messaging implementation backed by Google Pub/Sub. A consumer
// group maps to the subscription "<topic>.<group>".
type PubSub struct {
	client     *pubsub.Client
	project    string
	autoCreate bool

	mu         sync.Mutex
	closed     bool
	publishers map[string]*pubsub.Publisher
	ensured    map[string]struct{}
}

// NewPubSub constructs a PubSub messaging client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	client := cfg.Client
	if client == nil {
		c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
		if err != nil {
			return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
		}
		client = c
	}

	return &PubSub{
		client:     client,
		project:    cfg.ProjectID,
		autoCreate: cfg.AutoCreate,
		publishers: map[string]*pubsub.Publisher{},
		ensured:    map[string]struct{}{},
	}, nil
}

// Close stops publishers and closes the Pub/Sub client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := make([]*pubsub.Publisher, 0, len(p.publishers))
	for _, pub := range p.publishers {
		pubs = append(pubs, pub)
	}
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}

// Publish sends a message to a Pub/Sub topic and waits for the server ack.
func (p *PubSub) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if err := p.ensureOpen(); err != nil {
		return err
	}

	if p.autoCreate {
		if err := p.ensureTopic(ctx, topic); err != nil {
			return err
		}
	}

	pub, err := p.publisher(topic)
	if err != nil {
		return err
	}

	attrs := cloneHeaders(msg.Headers)
	if msg.Key != "" {
		if attrs == nil {
			attrs = map[string]string{}
		}
		attrs[pubSubKeyAttribute] = msg.Key
	}

	res := pub.Publish(ctx, &pubsub.Message{Data: msg.Body, Attributes: attrs})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}

// Consume receives from the group's subscription and blocks until ctx is done.
func (p *PubSub) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, topic, handler); err != nil {
		return err
	}

	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	if err := p.ensureOpen(); err != nil {
		return err
	}

	if p.autoCreate {
		if err := p.ensureSubscription(ctx, topic, co.group); err != nil {
			return err
		}
	}

	sub := p.client.Subscriber(p.subscriptionName(topic, co.group))
	sub.ReceiveSettings.MaxOutstandingMessages = co.concurrency

	err := sub.Receive(ctx, func(mctx context.Context, m *pubsub.Message) {
		p.handle(mctx, handler, topic, co, m)
	})
	if err != nil {
		return fmt.Errorf("messaging: pubsub receive: %w", err)
	}
	return ctx.Err()
}

func (p *PubSub) handle(ctx context.Context, handler Handler, topic string, co consumeOptions, m *pubsub.Message) {
	msg := Message{
		ID:        m.ID,
		Topic:     topic,
		Body:      m.Data,
		Attempt:   1,
		Timestamp: m.PublishTime,
	}
	for k, v := range m.Attributes {
		if k == pubSubKeyAttribute {
			msg.Key = v
			continue
		}
		if msg.Headers == nil {
			msg.Headers = make(map[string]string, len(m.Attributes))
		}
		msg.Headers[k] = v
	}
	// Only reported when the subscription has a dead-letter policy.
	if m.DeliveryAttempt != nil {
		msg.Attempt = *m.DeliveryAttempt
	}

	if err := callHandler(ctx, "pubsub", handler, msg); err != nil {
		if msg.Attempt >= co.maxAttempts {
			slog.WarnContext(ctx, "messaging: pubsub dropping message after max attempts",
				"topic", topic, "group", co.group, "message_id", m.ID, "attempt", msg.Attempt, "error", err)
			m.Ack()
			return
		}
		m.Nack()
		return
	}
	m.Ack()
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}
	pub := p.client.Publisher(p.topicName(topic))
	p.publishers[topic] = pub
	return pub, nil
}

func (p *PubSub) ensureOpen() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	return nil
}

func (p *PubSub) ensureTopic(ctx context.Context, topic string) error {
	name := p.topicName(topic)
	if p.isEnsured(name) {
		return nil
	}

	_, err := p.client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: name})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("messaging: pubsub create topic %s: %w", topic, err)
	}

	p.markEnsured(name)
	return nil
}

func (p *PubSub) ensureSubscription(ctx context.Context, topic, group string) error {
	if err := p.ensureTopic(ctx, topic); err != nil {
		return err
	}

	name := p.subscriptionName(topic, group)
	if p.isEnsured(name) {
		return nil
	}

	_, err := p.client.SubscriptionAdminClient.CreateSubscription(ctx, &pubsubpb.Subscription{
		Name:  name,
		Topic: p.topicName(topic),
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("messaging: pubsub create subscription %s: %w", name, err)
	}

	p.markEnsured(name)
	return nil
}

func (p *PubSub) isEnsured(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.ensured[name]
	return ok
}

func (p *PubSub) markEnsured(name string) {
	p.mu.Lock()
	p.ensured[name] = struct{}{}
	p.mu.Unlock()
}

func (p *PubSub) topicName(topic string) string {
	return fmt.Sprintf("projects/%s/topics/%s", p.project, topic)
}

func (p *PubSub) subscriptionName(topic, group string) string {
	return fmt.Sprintf("projects/%s/subscriptions/%s.%s", p.project, topic, group)
}
