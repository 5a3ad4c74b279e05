package pkg

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStream implements events.Subscriber and MessagePublisher on NATS
// JetStream. Each subscribed topic gets its own durable consumer.
type NATSStream struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	prefix string
	logger aqm.Logger

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
}

// NATSStreamConfig configures a NATSStream instance.
type NATSStreamConfig struct {
	URL            string        // NATS server URL
	StreamName     string        // JetStream stream name (e.g., "DELIVERY_EVENTS")
	Subjects       []string      // Subjects captured by the stream
	ConsumerPrefix string        // Durable consumer prefix for this service
	MaxAge         time.Duration // How long to retain events
	MaxMsgs        int64         // Maximum number of messages to retain (0 = unlimited)
	Logger         aqm.Logger
}

// NewNATSStream creates a new NATSStream and ensures the stream exists.
func NewNATSStream(cfg NATSStreamConfig) (*NATSStream, error) {
	if len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("stream %s has no subjects", cfg.StreamName)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamConfig := jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   cfg.Subjects,
		MaxAge:     cfg.MaxAge,
		Duplicates: 2 * time.Minute,
	}
	if cfg.MaxMsgs > 0 {
		streamConfig.MaxMsgs = cfg.MaxMsgs
	}

	stream, err := js.CreateOrUpdateStream(context.Background(), streamConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	return &NATSStream{
		conn:   conn,
		js:     js,
		stream: stream,
		prefix: cfg.ConsumerPrefix,
		logger: logger,
	}, nil
}

// Publish publishes a message to the stream.
func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// PublishMessage publishes msg using its ID as the JetStream de-duplication id,
// so a retried delivery of the same message is stored once.
func (s *NATSStream) PublishMessage(ctx context.Context, msg Message) error {
	opts := []jetstream.PublishOpt{}
	if msg.ID != "" {
		opts = append(opts, jetstream.WithMsgID(msg.ID))
	}
	if _, err := s.js.PublishMsg(ctx, natsMsg(msg), opts...); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// Subscribe binds a durable consumer named after the service and topic.
// Handler errors Nak the message for redelivery.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	name := ConsumerName(s.prefix, topic)
	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          name,
		Durable:       name,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: topic,
		MaxDeliver:    10,
		BackOff:       []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer %s: %w", name, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			s.logger.Error("event handler failed", "topic", topic, "key", msg.Headers().Get(KeyHeader), "error", err)
			msg.Nak()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", topic, err)
	}

	s.mu.Lock()
	s.consumes = append(s.consumes, cc)
	s.mu.Unlock()
	return nil
}

// Close stops consumers and closes the NATS connection.
func (s *NATSStream) Close() error {
	s.mu.Lock()
	for _, cc := range s.consumes {
		cc.Stop()
	}
	s.consumes = nil
	s.mu.Unlock()

	s.conn.Close()
	return nil
}

// ConsumerName builds a durable consumer name valid for JetStream.
func ConsumerName(prefix, topic string) string {
	name := topic
	if prefix != "" {
		name = prefix + "-" + topic
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '.', '*', '>', ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
