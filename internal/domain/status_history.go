package domain

import "time"

// StatusHistory is an immutable audit trail entry recording one status
// change. PreviousStatusID is nil only for the entry written at complaint
// creation; every later entry chains off the preceding entry's NewStatusID.
type StatusHistory struct {
	ID               string
	ComplaintID      string
	PreviousStatusID *string
	NewStatusID      string
	ChangedByID      string
	Comment          string
	CreatedAt        time.Time
}
