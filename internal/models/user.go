package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. A user may belong to at most one
// mess at a time; the membership itself is modeled by Member.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the user's email address (unique). Used for login.
	Email string `json:"email"`

	// FullName is the display name of the user.
	FullName string `json:"full_name"`

	// Phone is an optional contact number.
	Phone string `json:"phone,omitempty"`

	// PasswordHash is the bcrypt hash of the user's password. Never
	// serialized.
	PasswordHash string `json:"-"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64 `json:"updated_at"`
}

// NewUser creates a User with a fresh ID and timestamps.
func NewUser(email, fullName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
