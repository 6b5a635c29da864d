package domain

import "time"

// Category classifies complaints (public lighting, waste, noise, ...).
type Category struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
