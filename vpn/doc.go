// Package vpn provides the tunnel state model and the command plumbing
// between the client and the tunnel daemon.
//
// This package implements:
//
//   - TunnelState: a closed set of tunnel states (Disconnected, Connecting,
//     Connected, Disconnecting, Error) with derived predicates
//   - Command: requests sent to the daemon, each tagged with a UUID
//   - Dispatcher: a single-consumer queue executing commands in order
//   - Loopback: an in-process daemon used by the CLI and tests
//
// # Command Flow
//
//  1. A controller calls Dispatcher.Send, which returns immediately
//  2. The dispatcher goroutine executes the command against the Daemon
//  3. The daemon reports progress only through its TunnelStates stream
//
// # Thread Safety
//
// Dispatcher and Loopback are safe for concurrent use. TunnelState values
// are immutable.
package vpn
