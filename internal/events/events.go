// Package events publishes report lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/outbreak-atlas/atlas-server/internal/models"
)

// Event types.
const (
	ReportCreated = "report.created"
	ReportUpdated = "report.updated"
	ReportDeleted = "report.deleted"
)

// ReportEvent is the message body published for every report change.
type ReportEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ReportID   int64     `json:"report_id"`
	UserID     *int64    `json:"user_id"`
	State      string    `json:"state"`
	Zipcode    string    `json:"zipcode"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewReportEvent builds an event of type typ for r.
func NewReportEvent(typ string, r *models.Report) ReportEvent {
	return ReportEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		ReportID:   r.ID,
		UserID:     r.UserID,
		State:      r.State,
		Zipcode:    r.Zipcode,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers report events.
type Publisher interface {
	Publish(ctx context.Context, ev ReportEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic, keyed by state so one
// state's events stay ordered on a partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.SugaredLogger
}

// NewKafkaPublisher creates a publisher for topic on brokers. Writes are
// asynchronous: Publish only queues the message, delivery failures are
// logged, and Close flushes what is still queued.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.SugaredLogger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
	}
	p := &KafkaPublisher{writer: w, logger: logger}
	w.Completion = p.delivered
	return p
}

// delivered is the writer's completion callback.
func (p *KafkaPublisher) delivered(msgs []kafka.Message, err error) {
	for _, m := range msgs {
		if err != nil {
			p.logger.Warnw("Report event delivery failed",
				"type", eventType(m),
				"key", string(m.Key),
				"error", err,
			)
			continue
		}
		p.logger.Debugw("Report event delivered", "type", eventType(m), "partition", m.Partition, "offset", m.Offset)
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "type" {
			return string(h.Value)
		}
	}
	return ""
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev ReportEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.State),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}

	p.logger.Debugw("Report event queued", "type", ev.Type, "report_id", ev.ReportID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReportEvent) error { return nil }
func (NopPublisher) Close() error                               { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)
