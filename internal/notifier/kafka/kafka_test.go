package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/notifier"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafka_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Kafka)(nil)
}

func TestKafka_Init(t *testing.T) {
	k := &Kafka{}
	err := k.Init(notifier.Config{Params: map[string]any{
		"brokers": []string{"localhost:9092"},
		"topic":   "augur.decisions",
	}})
	require.NoError(t, err)

	w, ok := k.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "augur.decisions", w.Topic)
	assert.NoError(t, k.Close())
}

func TestKafka_InitValidation(t *testing.T) {
	assert.Error(t, (&Kafka{}).Init(notifier.Config{Params: map[string]any{"topic": "t"}}))
	assert.Error(t, (&Kafka{}).Init(notifier.Config{Params: map[string]any{"brokers": []string{"b:9092"}}}))
}

func TestKafka_Send(t *testing.T) {
	fw := &fakeWriter{}
	k := New([]string{"localhost:9092"}, "augur.decisions")
	k.writer = fw

	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	n := notifier.Notification{SignalID: "S3", Decision: core.DecisionStrongBuy, Confidence: 84, GeneratedAt: at}
	require.NoError(t, k.Send(context.Background(), n))

	require.Len(t, fw.msgs, 1)
	msg := fw.msgs[0]
	assert.Equal(t, "S3", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, "STRONG_BUY", string(msg.Headers[0].Value))

	var decoded notifier.Notification
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 84.0, decoded.Confidence)
}

func TestKafka_SendBatchAndErrors(t *testing.T) {
	fw := &fakeWriter{}
	k := New([]string{"localhost:9092"}, "augur.decisions")
	k.writer = fw

	require.NoError(t, k.SendBatch(context.Background(), nil))
	require.NoError(t, k.SendBatch(context.Background(), []notifier.Notification{{SignalID: "S1"}, {SignalID: "S2"}}))
	assert.Len(t, fw.msgs, 2)

	fw.err = errors.New("leader not available")
	assert.Error(t, k.Send(context.Background(), notifier.Notification{SignalID: "S1"}))

	assert.Error(t, New(nil, "").Send(context.Background(), notifier.Notification{}))

	require.NoError(t, k.Close())
	assert.True(t, fw.closed)
}
