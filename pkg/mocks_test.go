package pkg

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
)

// MockKafkaReader serves Messages in order and cancels the consume loop once
// they run out.
type MockKafkaReader struct {
	Messages  []kafka.Message
	Fetched   int
	Committed []int64
	CommitErr error
	cancel    context.CancelFunc
}

func (m *MockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if m.Fetched >= len(m.Messages) {
		m.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := m.Messages[m.Fetched]
	m.Fetched++
	return msg, nil
}

func (m *MockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.CommitErr != nil {
		return m.CommitErr
	}
	for _, msg := range msgs {
		m.Committed = append(m.Committed, msg.Offset)
	}
	return nil
}

type MockPublisher struct {
	mu        sync.Mutex
	Published []Message
	Attempts  int
	Err       error
}

func (m *MockPublisher) PublishMessage(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts++
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, msg)
	return nil
}
