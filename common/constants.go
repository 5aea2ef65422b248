// Package common provides shared constants, types, and utilities
// used across the vpn-connect application.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "com.vpnconnect.app"
	// AppName is the display name of the application.
	AppName = "VPN Connect"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "vpn-connect"
)

// File names used by the application.
const (
	ConfigFileName = "config.yaml"
	LogFileName    = "vpn-connect.log"
)

// Connection control timing.
const (
	// ThrottleWindow is the minimum interval between accepted presses of
	// the connect/reconnect control.
	ThrottleWindow = 1000 * time.Millisecond
	// AccountExpiryWarning is how long before account expiry the
	// expiring-soon notification is surfaced.
	AccountExpiryWarning = 72 * time.Hour
	// ExpiryCheckInterval is how often the projector re-evaluates the
	// notification slot when no other input arrives.
	ExpiryCheckInterval = 1 * time.Minute
	// ConnectionTimeout is the maximum time the CLI waits for a connection.
	ConnectionTimeout = 30 * time.Second
	// LoopbackStepDelay is the default delay between simulated daemon
	// state transitions.
	LoopbackStepDelay = 400 * time.Millisecond
)

// Queue sizes.
const (
	// ProjectorQueueSize bounds the projector's inbound event channel.
	ProjectorQueueSize = 64
	// SubscriberBufferSize is the per-subscriber snapshot buffer.
	SubscriberBufferSize = 32
	// CommandQueueSize bounds the command dispatcher queue.
	CommandQueueSize = 16
)

// WireGuard MTU bounds. Zero means "use the daemon default".
const (
	MinWireguardMTU = 1280
	MaxWireguardMTU = 1420
)
