// Package kafka publishes decision notifications to a Kafka topic
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/newthinker/augur/internal/notifier"
)

// messageWriter is the part of *kafka.Writer the notifier uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka implements the Notifier interface on a kafka-go writer. Messages
// are keyed by signal ID so one signal's decisions stay ordered.
type Kafka struct {
	brokers []string
	topic   string
	writer  messageWriter
}

// New creates a Kafka notifier for topic on brokers.
func New(brokers []string, topic string) *Kafka {
	return &Kafka{brokers: brokers, topic: topic}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Init(cfg notifier.Config) error {
	if brokers, ok := cfg.Params["brokers"].([]string); ok {
		k.brokers = brokers
	}
	if topic, ok := cfg.Params["topic"].(string); ok {
		k.topic = topic
	}

	if len(k.brokers) == 0 {
		return fmt.Errorf("kafka: brokers are required")
	}
	if k.topic == "" {
		return fmt.Errorf("kafka: topic is required")
	}

	if k.writer == nil {
		k.writer = &kafka.Writer{
			Addr:         kafka.TCP(k.brokers...),
			Topic:        k.topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Gzip,
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		}
	}
	return nil
}

func (k *Kafka) Send(ctx context.Context, n notifier.Notification) error {
	msg, err := toMessage(n)
	if err != nil {
		return err
	}
	return k.write(ctx, msg)
}

func (k *Kafka) SendBatch(ctx context.Context, ns []notifier.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(ns))
	for _, n := range ns {
		msg, err := toMessage(n)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return k.write(ctx, msgs...)
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

func (k *Kafka) write(ctx context.Context, msgs ...kafka.Message) error {
	if k.writer == nil {
		return fmt.Errorf("kafka: notifier not initialised")
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", k.topic, err)
	}
	return nil
}

func toMessage(n notifier.Notification) (kafka.Message, error) {
	value, err := json.Marshal(n)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: marshal notification: %w", err)
	}
	return kafka.Message{
		Key:   []byte(n.SignalID),
		Value: value,
		Time:  n.GeneratedAt,
		Headers: []kafka.Header{
			{Key: "decision", Value: []byte(n.Decision)},
		},
	}, nil
}
