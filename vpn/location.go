package vpn

import (
	"net/netip"
	"strings"
	"time"
)

// GeoIPLocation is the exit location as seen from the internet.
type GeoIPLocation struct {
	IPv4      netip.Addr
	IPv6      netip.Addr
	Country   string
	City      string
	Latitude  float64
	Longitude float64
	Hostname  string
}

// OutAddress joins the known exit addresses, IPv4 first.
func (l *GeoIPLocation) OutAddress() string {
	if l == nil {
		return ""
	}
	var parts []string
	if l.IPv4.IsValid() {
		parts = append(parts, l.IPv4.String())
	}
	if l.IPv6.IsValid() {
		parts = append(parts, l.IPv6.String())
	}
	return strings.Join(parts, " / ")
}

// RelayLocation is the user's selected relay constraint.
type RelayLocation struct {
	Country  string
	City     string
	Hostname string
}

// LocationName returns the most specific name of the selection.
func (r *RelayLocation) LocationName() string {
	switch {
	case r == nil:
		return ""
	case r.Hostname != "":
		return r.Hostname
	case r.City != "":
		return r.City + ", " + r.Country
	default:
		return r.Country
	}
}

// InAddress is the relay address the tunnel enters through.
type InAddress struct {
	Address  netip.AddrPort
	Protocol TransportProtocol
}

// InAddressOf returns the entry address of state, or nil when the state
// has no known endpoint.
func InAddressOf(state TunnelState) *InAddress {
	var ep *Endpoint
	switch s := state.(type) {
	case Connecting:
		ep = s.Endpoint
	case Connected:
		ep = &s.Endpoint
	}
	if ep == nil {
		return nil
	}
	return &InAddress{Address: ep.Address, Protocol: ep.Protocol}
}

// LocationUpdate is one element of a location stream. A nil Location
// means the location is unknown.
type LocationUpdate struct {
	Location *GeoIPLocation
	Relay    *RelayLocation
	At       time.Time
}
