// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a profile document in the users collection. AccountID links it to
// the platform account that owns the session.
type User struct {
	ID        string    `json:"$id"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	ImageURL  string    `json:"imageUrl"`
	ImageID   string    `json:"imageId,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Save      []Save    `json:"save,omitempty"`
	Posts     []Post    `json:"posts,omitempty"`
	Liked     []Post    `json:"liked,omitempty"`
	CreatedAt time.Time `json:"$createdAt"`
	UpdatedAt time.Time `json:"$updatedAt"`
}
