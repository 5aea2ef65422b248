// Package common provides shared constants, types, and utilities
// used across the vpn-connect application.
package common

// Urgency mirrors the freedesktop notification urgency levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// String returns the urgency name.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Notifier defines the interface for surfacing desktop notifications.
type Notifier interface {
	// Notify shows a notification with the given title, message and urgency.
	Notify(title, message string, urgency Urgency) error
	// Withdraw removes the last notification, if any.
	Withdraw() error
}

// TokenStore defines the interface for account token storage.
type TokenStore interface {
	// AccountToken returns the stored account token.
	AccountToken() (string, error)
	// SetAccountToken stores the account token.
	SetAccountToken(token string) error
	// ClearAccountToken removes the stored token.
	ClearAccountToken() error
}

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...interface{})
	// Info logs an informational message.
	Info(msg string, args ...interface{})
	// Warn logs a warning message.
	Warn(msg string, args ...interface{})
	// Error logs an error message.
	Error(msg string, args ...interface{})
}
