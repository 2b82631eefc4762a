package domain

import "time"

// RefreshToken stores only the SHA-256 lookup hash of the opaque secret; the
// plaintext is delivered once to the client and never persisted.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
