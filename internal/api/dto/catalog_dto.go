package dto

import "time"

// StatusResponse describes one catalog entry.
type StatusResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FlowOrder   int       `json:"flow_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryResponse describes one complaint category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpsertCategoryRequest payload for category administration.
type UpsertCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}
