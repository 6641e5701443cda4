package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	topic  string
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func newTestPublisher() (*KafkaPublisher, map[string]*recordingWriter) {
	created := map[string]*recordingWriter{}
	p := NewKafkaPublisher([]string{"localhost:9092"}, "mindvault.user-activity")
	p.newWriter = func(topic string) messageWriter {
		w := &recordingWriter{topic: topic}
		created[topic] = w
		return w
	}
	return p, created
}

func TestKafkaPublisherEncodesActivity(t *testing.T) {
	p, created := newTestPublisher()

	goalID := "goal-1"
	event := ActivityEvent{
		ID:         "act-1",
		UserID:     "user-1",
		Type:       "goal_created",
		GoalID:     &goalID,
		Metadata:   json.RawMessage(`{"title":"Run"}`),
		OccurredAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishActivity(context.Background(), event))
	require.NoError(t, p.PublishActivity(context.Background(), event))

	// One writer per topic, reused
	require.Len(t, created, 1)
	w := created["mindvault.user-activity"]
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "user-1", string(w.msgs[0].Key))
	assert.Equal(t, "goal_created", string(w.msgs[0].Headers[0].Value))

	var decoded ActivityEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "act-1", decoded.ID)
	assert.JSONEq(t, `{"title":"Run"}`, string(decoded.Metadata))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherWrapsErrors(t *testing.T) {
	p, _ := newTestPublisher()
	p.newWriter = func(string) messageWriter { return &recordingWriter{err: errors.New("broker down")} }

	err := p.PublishActivity(context.Background(), ActivityEvent{UserID: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.PublishActivity(context.Background(), ActivityEvent{}))
	assert.NoError(t, p.Close())
}
