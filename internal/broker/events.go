package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// NotificationEvent is published once per committed notification row.
type NotificationEvent struct {
	EventID        string                  `json:"event_id"`
	NotificationID uint                    `json:"notification_id"`
	RecipientID    uint                    `json:"recipient_id"`
	ActorID        uint                    `json:"actor_id"`
	Type           models.NotificationType `json:"notification_type"`
	Verb           string                  `json:"verb"`
	TargetID       *uint                   `json:"target_id,omitempty"`
	TargetType     models.TargetType       `json:"target_type,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

// NewNotificationEvent builds the event for a stored notification.
func NewNotificationEvent(n *models.Notification) NotificationEvent {
	return NotificationEvent{
		EventID:        uuid.NewString(),
		NotificationID: n.ID,
		RecipientID:    n.RecipientID,
		ActorID:        n.ActorID,
		Type:           n.Type,
		Verb:           n.Verb,
		TargetID:       n.TargetID,
		TargetType:     n.TargetType,
		CreatedAt:      n.CreatedAt,
	}
}

// DedupeKey identifies "the same thing happened again": same actor, recipient, type and target.
func (e NotificationEvent) DedupeKey() string {
	target := "-"
	if e.TargetID != nil {
		target = string(e.TargetType) + ":" + strconv.FormatUint(uint64(*e.TargetID), 10)
	}
	return fmt.Sprintf("%d>%d/%s/%s", e.ActorID, e.RecipientID, e.Type, target)
}

// Publisher hands committed notifications to the push pipeline.
type Publisher interface {
	Publish(ctx context.Context, events ...NotificationEvent) error
}

// KafkaPublisher writes JSON encoded events keyed by recipient id.
type KafkaPublisher struct {
	writer KafkaWriter
}

func NewKafkaPublisher(w KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...NotificationEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(e.RecipientID), 10)),
			Value: data,
		})
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...NotificationEvent) error { return nil }

// DecodeEvent parses a message value written by KafkaPublisher.
func DecodeEvent(data []byte) (NotificationEvent, error) {
	var e NotificationEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, err
	}
	if e.RecipientID == 0 {
		return e, fmt.Errorf("notification event %q has no recipient", e.EventID)
	}
	return e, nil
}
