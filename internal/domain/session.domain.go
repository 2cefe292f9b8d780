package domain

import "time"

// Identity is the authenticated subject as reported by the external
// identity provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

type Session struct {
	UserID    string    `json:"user_id"`
	AuthToken string    `json:"auth_token"`
	DeviceID  string    `json:"device_id,omitempty"`
	IPAddress *string   `json:"ip_address,omitempty"`
	UserAgent *string   `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
