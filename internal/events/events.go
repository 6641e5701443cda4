// Package events publishes user activity to a message broker.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// ActivityEvent is the wire form of one user_activity row.
type ActivityEvent struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Type       string          `json:"activityType"`
	GoalID     *string         `json:"goalId,omitempty"`
	EntityID   *string         `json:"entityId,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type Publisher interface {
	PublishActivity(ctx context.Context, event ActivityEvent) error
	Close() error
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishActivity(context.Context, ActivityEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
