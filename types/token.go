package types

import "time"

// ApiToken is an opaque bearer credential bound to a single user.
// Tokens are issued out-of-band, never mutated, and stop resolving
// once ExpiresAt has passed.
type ApiToken struct {
	// Token is the opaque credential string presented by clients.
	Token string `json:"token" db:"token"`

	// UserID references the owning user. Deleting the user cascades
	// to its tokens.
	UserID int `json:"user_id" db:"user_id"`

	// ExpiresAt is the instant after which the token is invalid.
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`

	// CreatedAt is the timestamp when the token was issued.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
