// Package events publishes committed loan decisions to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agri-credit-workers/internal/common/config"
	"agri-credit-workers/internal/common/logger"
	"agri-credit-workers/internal/models"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const EventTypeDecisionRecorded = "loan.decision.recorded"

// MessageWriter is the subset of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewWriter builds a kafka-go writer for the decision topic.
func NewWriter(cfg config.KafkaConfig) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.DecisionTopic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: config.GetDuration(cfg.BatchTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
		RequiredAcks: kafkago.RequireAll,
	}
}

// DecisionPublisher writes DecisionEvents keyed by application ID, so every
// event for one application lands on the same partition.
type DecisionPublisher struct {
	writer MessageWriter
	topic  string
	logger logger.Logger
	now    func() time.Time
}

func NewDecisionPublisher(w MessageWriter, topic string, log logger.Logger) *DecisionPublisher {
	return &DecisionPublisher{
		writer: w,
		topic:  topic,
		logger: log,
		now:    time.Now,
	}
}

// NewDecisionEvent stamps a fresh event for a committed application.
func (p *DecisionPublisher) NewDecisionEvent(app models.LoanApplication) models.DecisionEvent {
	return models.DecisionEvent{
		EventID:       uuid.NewString(),
		EventType:     EventTypeDecisionRecorded,
		ApplicationID: app.ID,
		FarmerID:      app.FarmerID,
		Status:        app.Status,
		Notes:         app.DecisionNotes,
		DecidedBy:     app.DecidedBy,
		OccurredAt:    p.now().UTC().Format(time.RFC3339),
	}
}

func (p *DecisionPublisher) Publish(ctx context.Context, evt models.DecisionEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", evt.EventType, err)
	}

	p.logger.Debug("publishing decision event", map[string]interface{}{
		"eventId":       evt.EventID,
		"applicationId": evt.ApplicationID,
		"status":        evt.Status,
		"topic":         p.topic,
		"payloadSize":   len(payload),
	})

	msg := kafkago.Message{
		Key:   []byte(evt.ApplicationID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
			{Key: "event_id", Value: []byte(evt.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *DecisionPublisher) Close() error {
	return p.writer.Close()
}
