package domain

import (
	"errors"
	"strings"
	"time"
)

// User is a directory entry. Accounts are created by the external auth service;
// this service only reads them (and the seed tool writes a few for development).
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// NormalizeEmail lowercases and trims an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return errors.New("valid email is required")
	}
	return nil
}
