package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventUploadStored   EventType = "upload_stored"
)

// AllEventTypes lists every type the service emits.
var AllEventTypes = []EventType{EventUserRegistered, EventUserLoggedIn, EventUploadStored}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, userID int64, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string `json:"username"`
	Tier     string `json:"tier"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadStoredPayload payload.
type UploadStoredPayload struct {
	UploadID       int64  `json:"upload_id"`
	Filename       string `json:"filename"`
	Path           string `json:"path"`
	MimeType       string `json:"mime_type"`
	SizeBytes      int64  `json:"size_bytes"`
	ChecksumSHA256 string `json:"checksum_sha256"`
}
