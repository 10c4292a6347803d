package storage

import "time"

// Session is the login state persisted between client runs.
type Session struct {
	BaseURL     string    `json:"base_url"`
	Username    string    `json:"username"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the session holds a token that has not expired at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.AccessToken != "" && now.Before(s.ExpiresAt)
}
