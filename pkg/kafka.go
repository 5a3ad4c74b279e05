package pkg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes keyed messages. Messages with the same key land on
// the same partition, which keeps per-order ordering.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	return p.PublishMessage(ctx, Message{Topic: topic, Data: msg})
}

func (p *KafkaPublisher) PublishMessage(ctx context.Context, msg Message) error {
	km := kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.Key),
		Value: msg.Data,
	}
	if msg.ID != "" {
		km.Headers = append(km.Headers, kafka.Header{Key: "id", Value: []byte(msg.ID)})
	}
	if err := p.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaSubscriberConfig tunes how a consumer group treats failing handlers.
type KafkaSubscriberConfig struct {
	Brokers []string
	GroupID string
	// MaxAttempts is how many times a message is handled before it is parked
	// on DeadLetter. Zero, or a nil DeadLetter, retries until the handler
	// succeeds.
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
	DeadLetter  MessagePublisher
	Logger      aqm.Logger
}

// DeadLetterSuffix is appended to a topic to name its parking topic.
const DeadLetterSuffix = ".DLQ"

// kafkaReader is the part of *kafka.Reader the consume loop needs.
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSubscriber reads each subscribed topic with a consumer group named
// after the service. A message is committed only once its handler succeeds
// or it has been parked, and nothing on the partition is fetched past a
// message still being retried.
type KafkaSubscriber struct {
	brokers     []string
	groupID     string
	maxAttempts int
	retryBase   time.Duration
	retryMax    time.Duration
	deadLetter  MessagePublisher
	logger      aqm.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
	wg      sync.WaitGroup
}

func NewKafkaSubscriber(cfg KafkaSubscriberConfig) *KafkaSubscriber {
	if cfg.Logger == nil {
		cfg.Logger = aqm.NewNoopLogger()
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMax < cfg.RetryBase {
		cfg.RetryMax = 30 * time.Second
	}
	return &KafkaSubscriber{
		brokers:     cfg.Brokers,
		groupID:     cfg.GroupID,
		maxAttempts: cfg.MaxAttempts,
		retryBase:   cfg.RetryBase,
		retryMax:    cfg.RetryMax,
		deadLetter:  cfg.DeadLetter,
		logger:      cfg.Logger,
	}
}

func (s *KafkaSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  s.brokers,
		Topic:    topic,
		GroupID:  s.groupID + "-group",
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})

	s.mu.Lock()
	s.readers = append(s.readers, reader)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consume(ctx, topic, reader, handler)
	}()
	return nil
}

func (s *KafkaSubscriber) consume(ctx context.Context, topic string, reader kafkaReader, handler events.HandlerFunc) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			s.logger.Error("kafka fetch failed", "topic", topic, "error", err)
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		if !s.process(ctx, topic, msg, handler) {
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			s.logger.Error("kafka commit failed", "topic", topic, "offset", msg.Offset, "error", err)
		}
	}
}

// process handles msg until it succeeds or is parked. It returns false when
// ctx ends first, leaving msg uncommitted for the group to read again.
func (s *KafkaSubscriber) process(ctx context.Context, topic string, msg kafka.Message, handler events.HandlerFunc) bool {
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Value)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		s.logger.Error("event handler failed", "topic", topic, "key", string(msg.Key), "offset", msg.Offset, "attempt", attempt, "error", err)

		if s.deadLetter != nil && s.maxAttempts > 0 && attempt >= s.maxAttempts {
			perr := s.park(ctx, topic, msg)
			if perr == nil {
				s.logger.Error("event parked on dead letter topic", "topic", topic+DeadLetterSuffix, "key", string(msg.Key), "offset", msg.Offset, "error", err)
				return true
			}
			s.logger.Error("dead letter publish failed", "topic", topic+DeadLetterSuffix, "error", perr)
		}

		if !sleepCtx(ctx, s.retryDelay(attempt)) {
			return false
		}
	}
}

func (s *KafkaSubscriber) park(ctx context.Context, topic string, msg kafka.Message) error {
	out := Message{Topic: topic + DeadLetterSuffix, Key: string(msg.Key), Data: msg.Value}
	for _, h := range msg.Headers {
		if h.Key == "id" {
			out.ID = string(h.Value)
		}
	}
	return s.deadLetter.PublishMessage(ctx, out)
}

// retryDelay doubles from retryBase per attempt, capped at retryMax.
func (s *KafkaSubscriber) retryDelay(attempt int) time.Duration {
	d := s.retryBase
	for i := 1; i < attempt && d < s.retryMax; i++ {
		d *= 2
	}
	if d > s.retryMax {
		return s.retryMax
	}
	return d
}

func (s *KafkaSubscriber) Close() error {
	s.mu.Lock()
	readers := s.readers
	s.readers = nil
	s.mu.Unlock()

	var firstErr error
	for _, r := range readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.wg.Wait()
	return firstErr
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
