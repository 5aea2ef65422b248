// Package common provides shared constants, types, utilities, and interfaces
// used throughout the vpn-connect application.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Throttle window, expiry warning lead time, queue sizes
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Interfaces: Abstractions for desktop notifications, token storage, and logging
//   - Logger: Leveled logging to the console and a rotated log file
//   - Utils: ID generation and config directory helpers
//
// # Usage
//
//	import "github.com/yllada/vpn-connect/common"
//
//	// Use constants
//	window := common.ThrottleWindow
//
//	// Use logger
//	common.LogInfo("Tunnel state changed to %s", state)
//
//	// Check errors
//	if errors.Is(err, common.ErrAlreadyPending) {
//	    // A confirmation is already on screen
//	}
package common
