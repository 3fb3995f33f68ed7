package models

import "time"

// ============================================================
// User Model
// ============================================================

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ValidRole reports whether role is one of the supported roles.
func ValidRole(role Role) bool {
	switch role {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Clone returns a copy that shares no memory with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// ============================================================
// Session Model
// ============================================================

// Session binds an opaque token to the identity it was issued for.
// ExpiresAt is fixed at creation and never extended.
type Session struct {
	Token     string
	User      *User
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the session is expired at now. The boundary
// instant itself counts as expired.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
