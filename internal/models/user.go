package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID             string
	OrganizationID string
	Email          string
	PasswordHash   []byte
	DisplayName    string
	Role           UserRole
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session is one live refresh-token grant. Only the SHA-256 hash of the
// refresh token is stored; the raw value never touches the database.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	ExpiresAt        time.Time
}
