package domain

import "time"

// SubjectType differentiates citizen vs authority tokens.
type SubjectType string

const (
	SubjectTypeCitizen   SubjectType = "CITIZEN"
	SubjectTypeAuthority SubjectType = "AUTHORITY"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *AuthorityRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
