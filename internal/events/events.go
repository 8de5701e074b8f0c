package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "lab-service"
	EventVersion = "1.0"
	DefaultTopic = "lab-events"
)

type EventType string

const (
	AllocationCreated         EventType = "allocation.created"
	AllocationCompleted       EventType = "allocation.completed"
	AllocationOverdue         EventType = "allocation.overdue"
	UserVerificationRequested EventType = "user.verification_requested"
)

// Event is the envelope published for every lifecycle change
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type AllocationEventData struct {
	AllocationID string     `json:"allocation_id"`
	LabID        string     `json:"lab_id"`
	UserID       string     `json:"user_id"`
	Status       string     `json:"status"`
	AllocatedAt  time.Time  `json:"allocated_at"`
	DueDate      time.Time  `json:"due_date"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Score        *float64   `json:"score,omitempty"`
}

type UserEventData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// EventPublisher publishes events to the configured broker
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
