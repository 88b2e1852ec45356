package domain

import "time"

// User models a registered account. PasswordHash never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"nombreCompleto"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the authenticated principal decoded from a bearer token.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Owns reports whether the identity is the owner of the user record with the given id.
func (i Identity) Owns(userID int64) bool {
	return i.ID == userID
}
