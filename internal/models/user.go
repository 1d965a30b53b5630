package models

import "time"

// User is the account record. Avatar holds the normalized PNG inline; it is
// nil until an upload succeeds. Session tokens live in their own table and
// are loaded on demand.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Age          *int
	Address      *string
	Avatar       []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionToken is one issued login credential. Only the sha256 hash of the
// token string is stored; the raw JWT lives with the client.
type SessionToken struct {
	ID        string
	UserID    string
	TokenHash []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}
