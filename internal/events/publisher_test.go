package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"agri-credit-workers/internal/common/config"
	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/models"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestDecisionPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := NewDecisionPublisher(w, "loan.decision.recorded", logger.NewTestLogger(t))
	p.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }

	evt := p.NewDecisionEvent(models.LoanApplication{
		ID:            "app-1",
		FarmerID:      "farmer-1",
		Status:        models.StatusApproved,
		DecisionNotes: "income verified",
		DecidedBy:     "officer-7",
	})
	require.NoError(t, p.Publish(context.Background(), evt))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "app-1", string(msg.Key))
	assert.Equal(t, EventTypeDecisionRecorded, header(msg, "event_type"))
	assert.Equal(t, evt.EventID, header(msg, "event_id"))

	var decoded models.DecisionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, models.StatusApproved, decoded.Status)
	assert.Equal(t, "officer-7", decoded.DecidedBy)
	assert.Equal(t, "2026-03-02T10:00:00Z", decoded.OccurredAt)
}

func TestDecisionPublisher_EventIDsAreUnique(t *testing.T) {
	p := NewDecisionPublisher(&recordingWriter{}, "t", logger.NewNoOpLogger())
	app := models.LoanApplication{ID: "app-1"}

	assert.NotEqual(t, p.NewDecisionEvent(app).EventID, p.NewDecisionEvent(app).EventID)
}

func TestDecisionPublisher_WriteError(t *testing.T) {
	boom := errors.New("leader not available")
	w := &recordingWriter{err: boom}
	p := NewDecisionPublisher(w, "loan.decision.recorded", logger.NewNoOpLogger())

	err := p.Publish(context.Background(), models.DecisionEvent{ApplicationID: "app-1"})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "loan.decision.recorded")
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(config.KafkaConfig{
		Brokers:       []string{"kafka-1:9092", "kafka-2:9092"},
		DecisionTopic: "loan.decision.recorded",
		BatchTimeout:  10,
		WriteTimeout:  5000,
	})

	assert.Equal(t, "loan.decision.recorded", w.Topic)
	assert.Equal(t, kafkago.RequireAll, w.RequiredAcks)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.Equal(t, 5*time.Second, w.WriteTimeout)
}
