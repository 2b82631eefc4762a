package domain

import "time"

type EventType string

const (
	EventRegister       EventType = "REGISTER"
	EventLoginSuccess   EventType = "LOGIN_SUCCESS"
	EventLoginFailed    EventType = "LOGIN_FAILED"
	EventLoginLocked    EventType = "LOGIN_LOCKED"
	EventLogout         EventType = "LOGOUT"
	EventRefreshSuccess EventType = "REFRESH_SUCCESS"
	EventRefreshFailed  EventType = "REFRESH_FAILED"
)

// SecurityEvent is an append-only audit record. UserID and Email are both
// optional: pre-authentication failures may only know the submitted email,
// and a refresh replay may know neither.
type SecurityEvent struct {
	Type      EventType
	UserID    *string
	Email     *string
	IPAddress string
	UserAgent string
	Details   map[string]any
	CreatedAt time.Time
}

// ConsentLog records a data-privacy consent decision captured at
// registration time.
type ConsentLog struct {
	UserID      string
	ConsentType string
	Consented   bool
	IPAddress   string
	UserAgent   string
}

const (
	ConsentPrivacyPolicy = "privacy_policy"
	ConsentMarketing     = "marketing"
)
