package models

import "time"

// ShareGrant is returned to the owner after sharing an entry. ExpiresAt is
// nil when the link never expires.
type ShareGrant struct {
	Token             string     `json:"access_token"`
	URL               string     `json:"share_url"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	PasswordProtected bool       `json:"is_password_protected"`
}
