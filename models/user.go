package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform user. Authentication is delegated to the
// identity provider port; this is the profile record other components see.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Username  string    `json:"username" db:"username"`
	Language  string    `json:"language" db:"language"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
