// Package domain contains the core entity types shared across the server.
package domain

import "time"

// User represents a registered teacher account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Stored hashed, never serialized
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// CanManage reports whether the user may edit or delete the given material.
// Owners and admins can manage; everyone else is read-only.
func (u *User) CanManage(m *Material) bool {
	return u.IsAdmin || u.ID == m.AuthorID
}
