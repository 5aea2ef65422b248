// Package common provides shared constants, types, and utilities
// used across the vpn-connect application.
package common

import "errors"

// Sentinel errors shared by the projection and confirmation core.
// These can be checked with errors.Is() for proper error handling.
var (
	// Confirmation errors.
	ErrAlreadyPending  = errors.New("confirmation already pending")
	ErrNotPending      = errors.New("no confirmation pending")
	ErrHandshakeClosed = errors.New("confirmation handshake closed")

	// Projection errors. ErrStaleUpdate is only ever logged, never returned
	// to a caller: stale updates are discarded silently.
	ErrStaleUpdate      = errors.New("stale update ignored")
	ErrProjectorStopped = errors.New("projector stopped")

	// Command dispatch errors.
	ErrQueueFull         = errors.New("command queue full")
	ErrDispatcherStopped = errors.New("command dispatcher stopped")
	ErrUnknownCommand    = errors.New("unknown command")

	// Settings errors.
	ErrInvalidMTU       = errors.New("invalid MTU")
	ErrInvalidDNSServer = errors.New("invalid DNS server address")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
