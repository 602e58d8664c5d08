package types

import "time"

// Role names recognized by the access policy.
const (
	RoleUser = "USER"
	RoleRoot = "ROOT"
)

// User represents an account in the system.
// It contains identity, roles, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's login identifier. Unique.
	Email string `json:"email" db:"email"`

	// Phone is the user's contact phone number.
	Phone string `json:"phone" db:"phone"`

	// Roles holds the user's role names. Always contains at least
	// RoleUser or RoleRoot.
	Roles []string `json:"roles" db:"roles"`

	// PasswordHash stores the hashed representation of the user's password.
	// The plaintext password is never persisted.
	PasswordHash string `json:"-" db:"password"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Principal is the authenticated identity resolved from a bearer token.
type Principal struct {
	UserID int
	Roles  []string
}
