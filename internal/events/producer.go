package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/usagi-project/usagi-api/internal/logging"
)

// Event types published on the user lifecycle topic.
const (
	TypeUserRegistered      = "user.registered"
	TypeUserBanned          = "user.banned"
	TypeUserRoleChanged     = "user.role_changed"
	TypeUserPasswordChanged = "user.password_changed"
	TypeUserDeleted         = "user.deleted"
)

type envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Producer publishes user lifecycle events. A nil Producer is a no-op so the
// service runs without a broker configured.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Publish sends one JSON-encoded event keyed by the subject user id.
// Failures are logged, not propagated: the flows must not fail because the
// broker is down.
func (p *Producer) Publish(ctx context.Context, eventType, userID string, payload any) {
	if p == nil || p.writer == nil {
		return
	}
	l := logging.FromContext(ctx).With("component", "events", "event", eventType)

	data, err := json.Marshal(envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		l.Error("event_marshal_failed", "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(userID),
		Value: data,
	}); err != nil {
		l.Error("event_publish_failed", "error", err)
		return
	}
	l.Info("event_published", "user_id", userID)
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
