package models

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// AdminSession is an issued admin login
type AdminSession struct {
	Token     string    `json:"session_token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the session TTL has elapsed
func (s *AdminSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// GenerateSessionToken creates a cryptographically random URL-safe token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// LoginRequest carries the admin password
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"session_token,omitempty"`
}

// SessionRequest names a session token to verify or revoke
type SessionRequest struct {
	SessionToken string `json:"session_token"`
}

// VerifyResponse reports whether a session token is still valid
type VerifyResponse struct {
	Valid bool `json:"valid"`
}
