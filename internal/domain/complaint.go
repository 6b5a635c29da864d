package domain

import "time"

// Complaint is the aggregate root for citizen reports. History entries and
// evidence photos are owned by the complaint and never outlive it.
type Complaint struct {
	ID              string
	PublicKey       string
	ReporterID      string
	CategoryID      string
	CurrentStatusID string
	Title           string
	Description     string
	Latitude        *float64
	Longitude       *float64
	Address         *string
	IsAnonymous     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
