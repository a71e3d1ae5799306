package dues

import (
	"context"
	"time"
)

// Event types published after successful writes.
const (
	EventDueCreated          = "due.created"
	EventDueDeleted          = "due.deleted"
	EventScheduleRegenerated = "due.schedule_regenerated"
	EventInstancePaid        = "instance.paid"
	EventInstanceUnpaid      = "instance.unpaid"
)

// Event is a notification about a change to an owner's dues.
type Event struct {
	Type       string    `json:"type"`
	OwnerID    string    `json:"owner_id"`
	DueID      string    `json:"due_id"`
	InstanceID string    `json:"instance_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`

	// Set for due.created and due.schedule_regenerated.
	Kept      int `json:"kept,omitempty"`
	Discarded int `json:"discarded,omitempty"`
	Inserted  int `json:"inserted,omitempty"`
}

// Publisher delivers events. Publish errors are logged by the service and
// never fail the operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
