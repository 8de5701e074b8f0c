package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleCreator UserRole = "creator"
	RoleStudent UserRole = "student"
)

type UserStatus string

const (
	UserStatusNew      UserStatus = "new"
	UserStatusVerified UserStatus = "verified"
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// CanSignIn reports whether the status admits a login.
func (s UserStatus) CanSignIn() bool {
	return s == UserStatusVerified || s == UserStatusActive
}

// ImpliesVerifiedEmail reports whether the status requires a verified email address.
func (s UserStatus) ImpliesVerifiedEmail() bool {
	return s == UserStatusVerified || s == UserStatusActive
}

type User struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Role   UserRole   `json:"role"`
	Avatar *string    `json:"avatar,omitempty"`
	Status UserStatus `json:"status"`

	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func (u User) RecordID() string { return u.ID }

func (u User) Diverged() bool { return u.UpdatedAt != nil }

func (u User) Touched(at time.Time) User {
	u.UpdatedAt = &at
	return u
}

// Clone returns a copy that shares no pointers with u.
func (u User) Clone() User {
	u.Avatar = cloneString(u.Avatar)
	u.LastLogin = cloneTime(u.LastLogin)
	u.UpdatedAt = cloneTime(u.UpdatedAt)
	return u
}
