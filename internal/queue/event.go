// Package queue defines the activity event payload and the background
// consumer that turns events into an audit log.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/activity-tracker/internal/model"
)

// ActivityQueueName is the durable queue activity events travel on.
const ActivityQueueName = "activity.events"

// Event types.
const (
	ActivityCreated = "activity.created"
	ActivityUpdated = "activity.updated"
	ActivityDeleted = "activity.deleted"
)

// ActivityEvent is published after an activity write commits.  It carries
// enough for downstream consumers to log or analyse without reading MySQL.
type ActivityEvent struct {
	EventID      string    `json:"event_id"`
	Type         string    `json:"type"`
	ActivityID   uint64    `json:"activity_id"`
	UserID       uint64    `json:"user_id"`
	ActivityType string    `json:"activity_type,omitempty"`
	Distance     float64   `json:"distance"`
	Date         time.Time `json:"date"`
	RoutePoints  int       `json:"route_points"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewActivityEvent builds an event of the given type for a.
func NewActivityEvent(eventType string, a *model.Activity, at time.Time) ActivityEvent {
	return ActivityEvent{
		EventID:      uuid.NewString(),
		Type:         eventType,
		ActivityID:   a.ID,
		UserID:       a.UserID,
		ActivityType: string(a.ActivityType),
		Distance:     a.Distance,
		Date:         a.Date.UTC(),
		RoutePoints:  len(a.RoutePoints),
		OccurredAt:   at.UTC(),
	}
}
