package pkg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
)

const (
	// KeyHeader carries the partition key of a message on transports that
	// have no native key.
	KeyHeader = "Msg-Key"

	driverNATS  = "nats"
	driverKafka = "kafka"
)

// Message is an event ready for delivery. ID identifies this delivery for
// de-duplication; Key identifies the aggregate it belongs to.
type Message struct {
	ID    string
	Topic string
	Key   string
	Data  []byte
}

// MessagePublisher publishes keyed messages.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg Message) error
}

// Bus bundles the publisher and subscriber of one service on the configured
// transport.
type Bus struct {
	Publisher  MessagePublisher
	Subscriber events.Subscriber
	closers    []func() error
}

// BusConfig names the consumer identity of a service on the bus.
type BusConfig struct {
	Service string
	Topics  []string
}

// NewBus connects to the transport selected by "events.driver" (nats or kafka).
// With NATS, "nats.stream.enabled" switches from core NATS to JetStream.
func NewBus(config *aqm.Config, cfg BusConfig, logger aqm.Logger) (*Bus, error) {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	driver := strings.ToLower(config.GetStringOrDef("events.driver", driverNATS))

	switch driver {
	case driverKafka:
		brokers := SplitList(config.GetStringOrDef("kafka.brokers", "localhost:9092"))
		pub := NewKafkaPublisher(brokers)
		subCfg := KafkaSubscriberConfig{
			Brokers:     brokers,
			GroupID:     cfg.Service,
			MaxAttempts: IntOrDef(config, "kafka.retry.max_attempts", 10),
			RetryBase:   DurationOrDef(config, "kafka.retry.base", 500*time.Millisecond),
			RetryMax:    DurationOrDef(config, "kafka.retry.max", 30*time.Second),
			Logger:      logger,
		}
		if BoolOrDef(config, "kafka.dead_letter.enabled", true) {
			subCfg.DeadLetter = pub
		}
		sub := NewKafkaSubscriber(subCfg)
		logger.Info("Event bus ready", "driver", driverKafka, "brokers", strings.Join(brokers, ","))
		return &Bus{
			Publisher:  pub,
			Subscriber: sub,
			closers:    []func() error{sub.Close, pub.Close},
		}, nil

	case driverNATS:
		natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

		streamEnabled, _ := config.GetString("nats.stream.enabled")
		if streamEnabled == "true" {
			stream, err := NewNATSStream(NATSStreamConfig{
				URL:            natsURL,
				StreamName:     config.GetStringOrDef("nats.stream.name", "DELIVERY_EVENTS"),
				Subjects:       cfg.Topics,
				ConsumerPrefix: cfg.Service,
				MaxAge:         DurationOrDef(config, "nats.stream.max_age", 24*time.Hour),
				Logger:         logger,
			})
			if err != nil {
				return nil, err
			}
			logger.Info("Event bus ready", "driver", "jetstream", "url", natsURL)
			return &Bus{
				Publisher:  stream,
				Subscriber: stream,
				closers:    []func() error{stream.Close},
			}, nil
		}

		pub, err := NewNATSPublisher(natsURL)
		if err != nil {
			return nil, err
		}
		sub, err := NewNATSSubscriber(natsURL, logger)
		if err != nil {
			pub.Close()
			return nil, err
		}
		logger.Info("Event bus ready", "driver", driverNATS, "url", natsURL)
		return &Bus{
			Publisher:  pub,
			Subscriber: sub,
			closers:    []func() error{sub.Close, pub.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unknown events driver %q", driver)
	}
}

// Close releases every connection held by the bus.
func (b *Bus) Close() error {
	var firstErr error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stop lets the bus be registered as a lifecycle.
func (b *Bus) Stop(context.Context) error {
	return b.Close()
}
