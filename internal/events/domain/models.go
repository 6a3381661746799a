package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventType names a domain event emitted through the outbox.
type EventType string

const (
	EventMilesGranted     EventType = "miles.granted"
	EventMilesExpired     EventType = "miles.expired"
	EventRequestSubmitted EventType = "request.submitted"
	EventRequestCanceled  EventType = "request.canceled"
)

// OutboxEvent is a row in the transactional outbox. Events are written in
// the same transaction as the state change they describe and drained by a
// separate dispatcher; the dedupe key keeps retried writers from queueing
// the same event twice.
type OutboxEvent struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	EventType   EventType      `gorm:"type:text;not null;index" json:"eventType"`
	DedupeKey   string         `gorm:"type:text;not null;uniqueIndex" json:"dedupeKey"`
	Payload     datatypes.JSON `gorm:"not null" json:"payload"`
	PublishedAt *time.Time     `gorm:"index" json:"publishedAt,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
}

// TableName sets the database table name.
func (OutboxEvent) TableName() string { return "miles_events" }
