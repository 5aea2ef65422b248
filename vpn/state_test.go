package vpn

import (
	"net/netip"
	"strings"
	"testing"
)

var testEndpoint = Endpoint{
	Address:    netip.MustParseAddrPort("10.0.0.1:51820"),
	Protocol:   ProtocolUDP,
	TunnelType: TunnelWireguard,
}

func TestConnectionStatus_String(t *testing.T) {
	tests := []struct {
		status   ConnectionStatus
		expected string
	}{
		{StatusDisconnected, "Disconnected"},
		{StatusConnecting, "Connecting..."},
		{StatusConnected, "Connected"},
		{StatusDisconnecting, "Disconnecting..."},
		{StatusError, "Error"},
		{ConnectionStatus(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("ConnectionStatus.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name  string
		state TunnelState
		want  ConnectionStatus
	}{
		{"nil", nil, StatusDisconnected},
		{"disconnected", Disconnected{}, StatusDisconnected},
		{"connecting", Connecting{}, StatusConnecting},
		{"connected", Connected{Endpoint: testEndpoint}, StatusConnected},
		{"disconnecting", Disconnecting{Next: ActionReconnect}, StatusDisconnecting},
		{"error", Error{Cause: ErrorCause{Kind: CauseIsOffline}}, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.state); got != tt.want {
				t.Errorf("StatusOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSecured(t *testing.T) {
	tests := []struct {
		name  string
		state TunnelState
		want  bool
	}{
		{"disconnected", Disconnected{}, false},
		{"connecting", Connecting{}, true},
		{"connected", Connected{Endpoint: testEndpoint}, true},
		{"disconnecting nothing", Disconnecting{Next: ActionNothing}, false},
		{"disconnecting block", Disconnecting{Next: ActionBlock}, true},
		{"disconnecting reconnect", Disconnecting{Next: ActionReconnect}, true},
		{"error blocking", Error{IsBlocking: true}, true},
		{"error non-blocking", Error{IsBlocking: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSecured(tt.state); got != tt.want {
				t.Errorf("IsSecured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShowsProgress(t *testing.T) {
	tests := []struct {
		name  string
		state TunnelState
		want  bool
	}{
		{"disconnected", Disconnected{}, false},
		{"connecting", Connecting{}, true},
		{"connected", Connected{Endpoint: testEndpoint}, false},
		{"disconnecting nothing", Disconnecting{Next: ActionNothing}, false},
		{"disconnecting block", Disconnecting{Next: ActionBlock}, false},
		{"disconnecting reconnect", Disconnecting{Next: ActionReconnect}, true},
		{"error", Error{IsBlocking: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShowsProgress(tt.state); got != tt.want {
				t.Errorf("ShowsProgress() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatesEqual(t *testing.T) {
	ep := testEndpoint
	other := testEndpoint
	other.QuantumResistant = true
	cause := ErrorCause{Kind: CauseSetDnsError, Detail: "x"}
	causeCopy := cause

	tests := []struct {
		name string
		a, b TunnelState
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs disconnected", nil, Disconnected{}, false},
		{"disconnected", Disconnected{}, Disconnected{}, true},
		{"connecting no endpoint", Connecting{}, Connecting{}, true},
		{"connecting same endpoint by value", Connecting{Endpoint: &ep}, Connecting{Endpoint: &testEndpoint}, true},
		{"connecting different endpoint", Connecting{Endpoint: &ep}, Connecting{Endpoint: &other}, false},
		{"connecting nil vs endpoint", Connecting{}, Connecting{Endpoint: &ep}, false},
		{"connected same", Connected{Endpoint: ep, ErrorCause: &cause}, Connected{Endpoint: ep, ErrorCause: &causeCopy}, true},
		{"connected different cause", Connected{Endpoint: ep, ErrorCause: &cause}, Connected{Endpoint: ep}, false},
		{"disconnecting next differs", Disconnecting{Next: ActionBlock}, Disconnecting{Next: ActionReconnect}, false},
		{"error same", Error{Cause: cause, IsBlocking: true}, Error{Cause: cause, IsBlocking: true}, true},
		{"error blocking differs", Error{Cause: cause, IsBlocking: true}, Error{Cause: cause}, false},
		{"different variants", Connecting{}, Disconnecting{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("StatesEqual() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	got := Describe(Connected{Endpoint: testEndpoint})
	if !strings.Contains(got, "10.0.0.1:51820") || !strings.Contains(got, "UDP") {
		t.Errorf("Describe(Connected) = %q, want endpoint and protocol", got)
	}

	got = Describe(Error{Cause: ErrorCause{Kind: CauseAuthFailed, Detail: "expired"}, IsBlocking: true})
	if !strings.Contains(got, "blocking") || !strings.Contains(got, "authentication failed: expired") {
		t.Errorf("Describe(Error) = %q", got)
	}
}

func TestInAddressOf(t *testing.T) {
	if InAddressOf(Disconnected{}) != nil {
		t.Error("Disconnected should have no in-address")
	}
	if InAddressOf(Connecting{}) != nil {
		t.Error("Connecting without endpoint should have no in-address")
	}

	in := InAddressOf(Connected{Endpoint: testEndpoint})
	if in == nil {
		t.Fatal("Connected should have an in-address")
	}
	if in.Address != testEndpoint.Address || in.Protocol != ProtocolUDP {
		t.Errorf("InAddressOf() = %+v", in)
	}
}

func TestGeoIPLocation_OutAddress(t *testing.T) {
	var nilLoc *GeoIPLocation
	if nilLoc.OutAddress() != "" {
		t.Error("nil location should have empty out-address")
	}

	loc := &GeoIPLocation{
		IPv4: netip.MustParseAddr("1.2.3.4"),
		IPv6: netip.MustParseAddr("2001:db8::1"),
	}
	if got := loc.OutAddress(); got != "1.2.3.4 / 2001:db8::1" {
		t.Errorf("OutAddress() = %q", got)
	}
}

func TestRelayLocation_LocationName(t *testing.T) {
	tests := []struct {
		name  string
		relay *RelayLocation
		want  string
	}{
		{"nil", nil, ""},
		{"country", &RelayLocation{Country: "Sweden"}, "Sweden"},
		{"city", &RelayLocation{Country: "Sweden", City: "Malmo"}, "Malmo, Sweden"},
		{"hostname", &RelayLocation{Country: "Sweden", City: "Malmo", Hostname: "se-mma-wg-001"}, "se-mma-wg-001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.relay.LocationName(); got != tt.want {
				t.Errorf("LocationName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommand_String(t *testing.T) {
	cmd := SetMTU(1380)
	if !strings.HasPrefix(cmd.String(), "set-mtu(1380)") {
		t.Errorf("SetMTU String() = %q", cmd.String())
	}

	a, b := NewCommand(CmdConnect), NewCommand(CmdConnect)
	if a.ID == b.ID {
		t.Error("commands should carry unique IDs")
	}
}
