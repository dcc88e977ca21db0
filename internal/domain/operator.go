package domain

import "time"

// Operator is a triage dashboard user.
type Operator struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
