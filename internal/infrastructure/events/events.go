// Package events carries account lifecycle events from the API to the
// directory indexer.
package events

import (
	"context"
	"time"

	"github.com/oksasatya/user-account-service/internal/domain/entity"
)

type Type string

const (
	UserCreated Type = "user.created"
	UserUpdated Type = "user.updated"
	UserDeleted Type = "user.deleted"
)

// AccountEvent is the message published after a successful mutation. User is
// nil for deletions and never carries the password digest.
type AccountEvent struct {
	Type       Type         `json:"type"`
	UserID     string       `json:"userId"`
	User       *entity.User `json:"user,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

func NewAccountEvent(t Type, userID string, u *entity.User) AccountEvent {
	return AccountEvent{
		Type:       t,
		UserID:     userID,
		User:       u.WithoutPassword(),
		OccurredAt: time.Now().UTC(),
	}
}

// NopPublisher drops every event. Used when RABBITMQ_URL is unset.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AccountEvent) error { return nil }
