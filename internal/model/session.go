package model

import (
	"strings"
	"time"
)

// Session is the locally persisted login state
type Session struct {
	Username   string    `yaml:"username,omitempty"`
	Token      string    `yaml:"token,omitempty"`
	CurrentDir string    `yaml:"current_dir,omitempty"`
	UpdatedAt  time.Time `yaml:"updated_at,omitempty"`
}

// Authenticated reports whether the session carries a token that looks like a JWT.
// Only the format is checked; expiry is the backend's concern.
func (s *Session) Authenticated() bool {
	if s == nil {
		return false
	}
	return IsTokenWellFormed(s.Token)
}

// IsTokenWellFormed checks for three non-empty dot-separated parts
func IsTokenWellFormed(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// DisplayDir returns the current directory or "/" when unknown
func (s *Session) DisplayDir() string {
	if s == nil || strings.TrimSpace(s.CurrentDir) == "" {
		return "/"
	}
	return s.CurrentDir
}
