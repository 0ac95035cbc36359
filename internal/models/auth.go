package models

import "github.com/golang-jwt/jwt/v5"

// Audience separates the three independent token populations.
type Audience string

const (
	AudienceAdmin      Audience = "ADMIN"
	AudienceInstructor Audience = "INSTRUCTOR"
	AudiencePortal     Audience = "PORTAL"
)

// TokenClaims is the signed payload for every audience. Fields not relevant
// to an audience stay empty: admins carry ID/Role/Email, instructors
// ID/Email/Name, portal sessions only Phone.
type TokenClaims struct {
	Type  Audience  `json:"typ"`
	ID    int64     `json:"id,omitempty"`
	Role  AdminRole `json:"role,omitempty"`
	Email string    `json:"email,omitempty"`
	Name  string    `json:"name,omitempty"`
	Phone string    `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PortalLoginRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	Audience  Audience  `json:"audience"`
	Role      AdminRole `json:"role,omitempty"`
}
