// Package vpn provides the tunnel state model and command plumbing.
// This file contains the TunnelState sum type and its derived predicates.
package vpn

import (
	"fmt"
	"net/netip"
	"time"
)

// ConnectionStatus is the coarse status of a tunnel, used for logging,
// CLI output and for comparing optimistic and actual states.
type ConnectionStatus int

const (
	// StatusDisconnected indicates no active tunnel.
	StatusDisconnected ConnectionStatus = iota
	// StatusConnecting indicates a tunnel is being established.
	StatusConnecting
	// StatusConnected indicates an active, established tunnel.
	StatusConnected
	// StatusDisconnecting indicates the tunnel is being torn down.
	StatusDisconnecting
	// StatusError indicates the daemon reported an error state.
	StatusError
)

// String returns a human-readable representation of the connection status.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting..."
	case StatusConnected:
		return "Connected"
	case StatusDisconnecting:
		return "Disconnecting..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// TransportProtocol is the transport used by the tunnel.
type TransportProtocol int

const (
	ProtocolUDP TransportProtocol = iota
	ProtocolTCP
)

func (p TransportProtocol) String() string {
	if p == ProtocolTCP {
		return "TCP"
	}
	return "UDP"
}

// TunnelType identifies the tunnel implementation.
type TunnelType int

const (
	TunnelWireguard TunnelType = iota
	TunnelOpenVPN
)

func (t TunnelType) String() string {
	if t == TunnelOpenVPN {
		return "OpenVPN"
	}
	return "WireGuard"
}

// Endpoint describes the relay a tunnel is established to.
type Endpoint struct {
	Address          netip.AddrPort
	Protocol         TransportProtocol
	TunnelType       TunnelType
	QuantumResistant bool
}

// String returns "addr:port PROTO".
func (e Endpoint) String() string {
	return fmt.Sprintf("%s %s", e.Address, e.Protocol)
}

// ErrorCauseKind enumerates the reasons the daemon can enter an error state.
type ErrorCauseKind int

const (
	CauseAuthFailed ErrorCauseKind = iota
	CauseIpv6Unavailable
	CauseSetFirewallPolicyError
	CauseSetDnsError
	CauseStartTunnelError
	CauseTunnelParameterError
	CauseIsOffline
	CauseVpnPermissionDenied
)

var causeNames = map[ErrorCauseKind]string{
	CauseAuthFailed:             "authentication failed",
	CauseIpv6Unavailable:        "IPv6 unavailable",
	CauseSetFirewallPolicyError: "failed to apply firewall policy",
	CauseSetDnsError:            "failed to set system DNS",
	CauseStartTunnelError:       "failed to start tunnel",
	CauseTunnelParameterError:   "invalid tunnel parameters",
	CauseIsOffline:              "device is offline",
	CauseVpnPermissionDenied:    "VPN permission denied",
}

func (k ErrorCauseKind) String() string {
	if name, ok := causeNames[k]; ok {
		return name
	}
	return "unknown error"
}

// ErrorCause is the structured reason carried by an error state.
type ErrorCause struct {
	Kind   ErrorCauseKind
	Detail string
}

func (c ErrorCause) String() string {
	if c.Detail == "" {
		return c.Kind.String()
	}
	return c.Kind.String() + ": " + c.Detail
}

// ActionAfterDisconnect is what the daemon does once a disconnect completes.
type ActionAfterDisconnect int

const (
	ActionNothing ActionAfterDisconnect = iota
	ActionBlock
	ActionReconnect
)

func (a ActionAfterDisconnect) String() string {
	switch a {
	case ActionBlock:
		return "block"
	case ActionReconnect:
		return "reconnect"
	default:
		return "nothing"
	}
}

// TunnelState is a closed set of tunnel states. Only the variants declared
// in this file implement it.
type TunnelState interface {
	Status() ConnectionStatus
	tunnelState()
}

// Disconnected means no tunnel is up.
type Disconnected struct{}

// Connecting means a tunnel is being established. Endpoint is nil until
// the relay has been selected.
type Connecting struct {
	Endpoint   *Endpoint
	ErrorCause *ErrorCause
}

// Connected means the tunnel is up.
type Connected struct {
	Endpoint   Endpoint
	ErrorCause *ErrorCause
}

// Disconnecting means the tunnel is being torn down.
type Disconnecting struct {
	Next ActionAfterDisconnect
}

// Error means the daemon failed. A blocking error keeps traffic blocked.
type Error struct {
	Cause      ErrorCause
	IsBlocking bool
}

func (Disconnected) Status() ConnectionStatus  { return StatusDisconnected }
func (Connecting) Status() ConnectionStatus    { return StatusConnecting }
func (Connected) Status() ConnectionStatus     { return StatusConnected }
func (Disconnecting) Status() ConnectionStatus { return StatusDisconnecting }
func (Error) Status() ConnectionStatus         { return StatusError }

func (Disconnected) tunnelState()  {}
func (Connecting) tunnelState()    {}
func (Connected) tunnelState()     {}
func (Disconnecting) tunnelState() {}
func (Error) tunnelState()         {}

// TunnelUpdate is one element of the daemon state stream.
type TunnelUpdate struct {
	State TunnelState
	At    time.Time
}

// Describe renders a state for logs and the CLI.
func Describe(state TunnelState) string {
	switch s := state.(type) {
	case nil:
		return "unknown"
	case Disconnected:
		return "disconnected"
	case Connecting:
		if s.Endpoint != nil {
			return "connecting to " + s.Endpoint.String()
		}
		return "connecting"
	case Connected:
		return "connected to " + s.Endpoint.String()
	case Disconnecting:
		return "disconnecting (then " + s.Next.String() + ")"
	case Error:
		if s.IsBlocking {
			return "error, blocking: " + s.Cause.String()
		}
		return "error: " + s.Cause.String()
	default:
		panic(fmt.Sprintf("vpn: unknown tunnel state %T", state))
	}
}

// StatusOf returns the coarse status of state. A nil state is Disconnected.
func StatusOf(state TunnelState) ConnectionStatus {
	if state == nil {
		return StatusDisconnected
	}
	return state.Status()
}

// IsSecured reports whether traffic is protected (tunnelled or blocked)
// in the given state.
func IsSecured(state TunnelState) bool {
	switch s := state.(type) {
	case Connected, Connecting:
		return true
	case Disconnecting:
		return s.Next != ActionNothing
	case Error:
		return s.IsBlocking
	default:
		return false
	}
}

// ShowsProgress reports whether a progress indicator should be shown.
// A reconnecting disconnect is deliberately shown the same as connecting.
func ShowsProgress(state TunnelState) bool {
	switch s := state.(type) {
	case Connecting:
		return true
	case Disconnecting:
		return s.Next == ActionReconnect
	default:
		return false
	}
}

// StatesEqual reports whether a and b are structurally equal.
func StatesEqual(a, b TunnelState) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case Disconnected:
		_, ok := b.(Disconnected)
		return ok
	case Connecting:
		y, ok := b.(Connecting)
		return ok && endpointPtrEqual(x.Endpoint, y.Endpoint) && causePtrEqual(x.ErrorCause, y.ErrorCause)
	case Connected:
		y, ok := b.(Connected)
		return ok && x.Endpoint == y.Endpoint && causePtrEqual(x.ErrorCause, y.ErrorCause)
	case Disconnecting:
		y, ok := b.(Disconnecting)
		return ok && x.Next == y.Next
	case Error:
		y, ok := b.(Error)
		return ok && x == y
	default:
		panic(fmt.Sprintf("vpn: unknown tunnel state %T", a))
	}
}

func endpointPtrEqual(a, b *Endpoint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func causePtrEqual(a, b *ErrorCause) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
