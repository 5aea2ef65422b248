package cli

import (
	"bytes"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/yllada/vpn-connect/connect"
	"github.com/yllada/vpn-connect/vpn"
)

func TestHeadline(t *testing.T) {
	ep := vpn.Endpoint{Address: netip.MustParseAddrPort("10.0.0.1:51820")}
	tests := []struct {
		state vpn.TunnelState
		want  string
	}{
		{vpn.Disconnected{}, "Unsecured connection"},
		{vpn.Connecting{}, "Creating secure connection"},
		{vpn.Connected{Endpoint: ep}, "Secure connection"},
		{vpn.Disconnecting{Next: vpn.ActionReconnect}, "Creating secure connection"},
		{vpn.Disconnecting{Next: vpn.ActionBlock}, "Blocked connection"},
		{vpn.Disconnecting{Next: vpn.ActionNothing}, "Unsecured connection"},
		{vpn.Error{IsBlocking: true}, "Blocked connection"},
		{vpn.Error{}, "Unsecured connection"},
	}
	for _, tt := range tests {
		got := headline(connect.Snapshot{DisplayedState: tt.state})
		if got != tt.want {
			t.Errorf("headline(%s) = %q, want %q", vpn.Describe(tt.state), got, tt.want)
		}
	}
}

func TestRenderSnapshot(t *testing.T) {
	var buf bytes.Buffer
	st := newStyles(&buf, false)
	ep := vpn.Endpoint{Address: netip.MustParseAddrPort("185.213.154.68:51820")}

	connected := connect.Snapshot{
		DisplayedState:   vpn.Connected{Endpoint: ep},
		ActualState:      vpn.Connected{Endpoint: ep},
		Location:         &vpn.GeoIPLocation{Hostname: "se-got-wg-001", City: "Gothenburg", Country: "Sweden"},
		RelayLocation:    &vpn.RelayLocation{City: "Gothenburg", Country: "Sweden"},
		InAddress:        &vpn.InAddress{Address: ep.Address},
		OutAddress:       "185.213.154.69",
		IsDetailExpanded: true,
		ShowLocation:     true,
		Notification:     connect.NotificationHidden{},
	}
	out := st.renderSnapshot(connected, time.Now())
	for _, want := range []string{"Connected", "Secure connection", "Gothenburg, Sweden", "se-got-wg-001", "185.213.154.68:51820 UDP", "185.213.154.69"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain output should carry no escape codes: %q", out)
	}

	blocked := connect.Snapshot{
		DisplayedState: vpn.Disconnected{},
		ActualState:    vpn.Disconnected{},
		Notification:   connect.NotificationBlocked{},
	}
	out = st.renderSnapshot(blocked, time.Now())
	for _, want := range []string{"Disconnected", "Switch location", "Blocking internet"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "host") {
		t.Errorf("location info should be hidden while disconnected:\n%s", out)
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"123", "***"},
		{"1234567890123456", "************3456"},
	}
	for _, tt := range tests {
		if got := maskToken(tt.in); got != tt.want {
			t.Errorf("maskToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m 30s"},
		{3*time.Hour + 5*time.Minute + 7*time.Second, "3h 5m 7s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
