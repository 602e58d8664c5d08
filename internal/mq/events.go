package mq

import (
	"context"
	"encoding/json"
	"time"
)

// UserEventsChannel is the channel user lifecycle events are published to.
const UserEventsChannel = "users.events"

// User lifecycle event types.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// UserEvent is the envelope published for every user lifecycle change.
// Password material is never included.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     int       `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Events publishes user lifecycle events through an MQ.
type Events struct {
	mq      *MQ
	channel string
}

// NewEvents constructs an Events publisher on the default channel.
func NewEvents(m *MQ) *Events {
	return &Events{
		mq:      m,
		channel: UserEventsChannel,
	}
}

// UserCreated publishes a user.created event.
func (e *Events) UserCreated(ctx context.Context, userID int, email string) error {
	return e.publish(ctx, UserEvent{
		Type:       EventUserCreated,
		UserID:     userID,
		Email:      email,
		OccurredAt: time.Now(),
	})
}

// UserUpdated publishes a user.updated event.
func (e *Events) UserUpdated(ctx context.Context, userID int, email string) error {
	return e.publish(ctx, UserEvent{
		Type:       EventUserUpdated,
		UserID:     userID,
		Email:      email,
		OccurredAt: time.Now(),
	})
}

// UserDeleted publishes a user.deleted event.
func (e *Events) UserDeleted(ctx context.Context, userID int) error {
	return e.publish(ctx, UserEvent{
		Type:       EventUserDeleted,
		UserID:     userID,
		OccurredAt: time.Now(),
	})
}

func (e *Events) publish(ctx context.Context, event UserEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	attrs := map[string]string{"type": event.Type}
	_, err = e.mq.Publish(ctx, e.channel, data, attrs)
	return err
}
