// Package models contains the server-side records persisted by repositories.
package models

import "time"

// User is a registered account. Salt and Hash are empty until a password
// has been set through the credential manager.
type User struct {
	ID             string
	EmailAddr      string
	Username       string
	ProfilePicture []byte
	Salt           string
	Hash           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasCredential reports whether both salt and hash are present.
func (u *User) HasCredential() bool {
	return u != nil && u.Salt != "" && u.Hash != ""
}
