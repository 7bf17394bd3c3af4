// Package models defines the core data structures for farmers and their inventory.
package models

import "time"

// User represents a registered farmer.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// FullName is the display name given at registration.
	FullName string `json:"fullName"`
	// Email is the login name; unique across all users and stored in lower case.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the user's password. It is never serialized.
	PasswordHash []byte `json:"-"`
	// FarmName is an optional farm label.
	FarmName string `json:"farmName,omitempty"`
	// CreatedAt is the registration time.
	CreatedAt time.Time `json:"createdAt"`
}
