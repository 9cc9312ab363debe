package service

import (
	"context"
	"encoding/json"
	"time"

	"signals-api/internal/client"
	"signals-api/internal/util"
)

// AuthEvent is the payload published to Kafka and recorded in the audit
// table for every significant account action.
type AuthEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	eventUserRegistered = "user.registered"
	eventUserLoggedIn   = "user.logged_in"
	eventResetRequested = "user.reset_requested"
	eventResetConfirmed = "user.reset_confirmed"
)

// EventPublisher emits auth events to Kafka. Publication is best-effort:
// failures are logged and never surfaced to the caller.
type EventPublisher struct {
	producer *client.KafkaProducer
}

func NewEventPublisher(producer *client.KafkaProducer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType, userID string) {
	if p == nil || p.producer == nil {
		return
	}
	event := AuthEvent{Type: eventType, UserID: userID, Timestamp: time.Now().UTC()}
	payload, err := json.Marshal(event)
	if err != nil {
		util.Error("Failed to marshal auth event", util.ErrorField(err))
		return
	}
	headers := map[string]string{"event_type": eventType}
	if err := p.producer.ProduceMessage(ctx, []byte(userID), payload, headers); err != nil {
		util.Warn("Failed to publish auth event",
			util.String("event_type", eventType),
			util.ErrorField(err))
	}
}

const auditInsertQuery = `
	INSERT INTO auth_audit (event_type, user_id, occurred_at)
	VALUES (?, ?, ?)`

// AuditRecorder writes auth events into ClickHouse for offline analysis.
// Recording is best-effort and never blocks the request path for long.
type AuditRecorder struct {
	ch *client.ClickHouseClient
}

func NewAuditRecorder(ch *client.ClickHouseClient) *AuditRecorder {
	return &AuditRecorder{ch: ch}
}

func (r *AuditRecorder) Record(eventType, userID string) {
	if r == nil || r.ch == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.ch.Exec(ctx, auditInsertQuery, eventType, userID, time.Now().UTC()); err != nil {
		util.Warn("Failed to record audit event",
			util.String("event_type", eventType),
			util.ErrorField(err))
	}
}
