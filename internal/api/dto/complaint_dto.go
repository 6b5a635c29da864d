package dto

import "time"

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	CategoryID  string   `json:"category_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
	IsAnonymous bool     `json:"is_anonymous"`
}

// UpdateComplaintRequest carries editable fields for a freshly registered complaint.
type UpdateComplaintRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
}

// ChangeStatusRequest payload for authority status transitions.
type ChangeStatusRequest struct {
	NewStatusID string `json:"new_status_id"`
	Comment     string `json:"comment"`
}

// AttachEvidenceRequest payload.
type AttachEvidenceRequest struct {
	Photos []EvidencePhotoRequest `json:"photos"`
}

// EvidencePhotoRequest describes one uploaded file pointer.
type EvidencePhotoRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
}

// ComplaintSummary response.
type ComplaintSummary struct {
	ID              string    `json:"id"`
	PublicKey       string    `json:"public_key"`
	CategoryID      string    `json:"category_id"`
	CurrentStatusID string    `json:"current_status_id"`
	Title           string    `json:"title"`
	IsAnonymous     bool      `json:"is_anonymous"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ComplaintDetailResponse provides full complaint info.
type ComplaintDetailResponse struct {
	ID              string                  `json:"id"`
	PublicKey       string                  `json:"public_key"`
	ReporterID      string                  `json:"reporter_id,omitempty"`
	CategoryID      string                  `json:"category_id"`
	CurrentStatusID string                  `json:"current_status_id"`
	Title           string                  `json:"title"`
	Description     string                  `json:"description"`
	Latitude        *float64                `json:"latitude"`
	Longitude       *float64                `json:"longitude"`
	Address         *string                 `json:"address"`
	IsAnonymous     bool                    `json:"is_anonymous"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	History         []StatusHistoryResponse `json:"history"`
	Evidence        []EvidencePhotoResponse `json:"evidence"`
}

// StatusHistoryResponse represents one audit trail entry.
type StatusHistoryResponse struct {
	ID               string    `json:"id"`
	PreviousStatusID *string   `json:"previous_status_id"`
	NewStatusID      string    `json:"new_status_id"`
	ChangedByID      string    `json:"changed_by_id"`
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"created_at"`
}

// EvidencePhotoResponse metadata.
type EvidencePhotoResponse struct {
	ID         string    `json:"id"`
	StorageKey string    `json:"storage_key"`
	FileName   string    `json:"file_name"`
	UploadedAt time.Time `json:"uploaded_at"`
}
