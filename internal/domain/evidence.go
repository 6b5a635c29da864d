package domain

import "time"

// EvidencePhoto references an uploaded file attached to a complaint. The
// file itself lives in external storage; only the pointer is tracked here.
type EvidencePhoto struct {
	ID          string
	ComplaintID string
	StorageKey  string
	FileName    string
	UploadedAt  time.Time
}
