package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintRegistered    EventType = "complaint_registered"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintUpdated       EventType = "complaint_updated"
	EventComplaintDeleted       EventType = "complaint_deleted"
	EventEvidenceAttached       EventType = "evidence_attached"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type        domain.SubjectType `json:"type"`
	UserID      *string            `json:"user_id,omitempty"`
	AuthorityID *string            `json:"authority_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintRegisteredPayload payload.
type ComplaintRegisteredPayload struct {
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	PreviousStatusID string `json:"previous_status_id"`
	NewStatusID      string `json:"new_status_id"`
	Comment          string `json:"comment,omitempty"`
}

// ComplaintUpdatedPayload payload.
type ComplaintUpdatedPayload struct {
	Title string `json:"title"`
}

// ComplaintDeletedPayload payload.
type ComplaintDeletedPayload struct {
	StorageKeys []string `json:"storage_keys"`
}

// EvidenceAttachedPayload payload.
type EvidenceAttachedPayload struct {
	Count     int      `json:"count"`
	FileNames []string `json:"file_names"`
}
