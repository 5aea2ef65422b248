package connect

import (
	"net/netip"
	"testing"
	"time"

	"github.com/yllada/vpn-connect/vpn"
)

var (
	testNow      = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	testEndpoint = vpn.Endpoint{
		Address:  netip.MustParseAddrPort("10.0.0.1:51820"),
		Protocol: vpn.ProtocolUDP,
	}
	outdated    = &VersionInfo{CurrentVersion: "1.0", UpgradeVersion: "1.1", IsOutdated: true, IsSupported: true}
	unsupported = &VersionInfo{CurrentVersion: "0.9", IsSupported: false}
	upToDate    = &VersionInfo{CurrentVersion: "1.1", IsSupported: true}
)

func TestPrioritize(t *testing.T) {
	cause := vpn.ErrorCause{Kind: vpn.CauseStartTunnelError}
	soon := testNow.Add(24 * time.Hour)

	tests := []struct {
		name string
		in   Inputs
		want NotificationState
	}{
		{
			name: "nothing",
			in:   Inputs{State: vpn.Disconnected{}},
			want: NotificationHidden{},
		},
		{
			name: "error beats everything",
			in: Inputs{
				State:          vpn.Error{Cause: cause, IsBlocking: true},
				TrafficBlocked: true,
				Version:        unsupported,
				AccountExpiry:  soon,
			},
			want: NotificationError{Cause: cause, IsBlocking: true},
		},
		{
			name: "blocked beats version",
			in:   Inputs{State: vpn.Connecting{}, TrafficBlocked: true, Version: outdated},
			want: NotificationBlocked{},
		},
		{
			name: "blocked ignored while connected",
			in:   Inputs{State: vpn.Connected{Endpoint: testEndpoint}, TrafficBlocked: true},
			want: NotificationHidden{},
		},
		{
			name: "unsupported version",
			in:   Inputs{State: vpn.Disconnected{}, Version: unsupported, AccountExpiry: soon},
			want: NotificationVersion{Info: *unsupported},
		},
		{
			name: "outdated version",
			in:   Inputs{State: vpn.Disconnected{}, Version: outdated},
			want: NotificationVersion{Info: *outdated},
		},
		{
			name: "current version is not surfaced",
			in:   Inputs{State: vpn.Disconnected{}, Version: upToDate},
			want: NotificationHidden{},
		},
		{
			name: "account expiring soon",
			in:   Inputs{State: vpn.Connected{Endpoint: testEndpoint}, Version: upToDate, AccountExpiry: soon},
			want: NotificationAccountExpiry{Expiry: soon},
		},
		{
			name: "dismissed non-blocking error falls through",
			in: Inputs{
				State:          vpn.Error{Cause: cause},
				ErrorDismissed: true,
				Version:        outdated,
			},
			want: NotificationVersion{Info: *outdated},
		},
		{
			name: "blocking error cannot be dismissed",
			in:   Inputs{State: vpn.Error{Cause: cause, IsBlocking: true}, ErrorDismissed: true},
			want: NotificationError{Cause: cause, IsBlocking: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Now = testNow
			tt.in.ExpiryWarning = 72 * time.Hour
			got := Prioritize(tt.in)
			if !NotificationsEqual(got, tt.want) {
				t.Errorf("Prioritize() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestPrioritize_HighestActiveConditionWins(t *testing.T) {
	// Enumerate every combination of active conditions and check the
	// surfaced notification is the highest-priority active one.
	cause := vpn.ErrorCause{Kind: vpn.CauseIsOffline}
	for mask := 0; mask < 16; mask++ {
		errActive := mask&1 != 0
		blockedActive := mask&2 != 0
		versionActive := mask&4 != 0
		expiryActive := mask&8 != 0

		in := Inputs{State: vpn.Disconnected{}, Now: testNow, ExpiryWarning: 72 * time.Hour}
		want := PriorityHidden
		if expiryActive {
			in.AccountExpiry = testNow.Add(time.Hour)
			want = PriorityAccountExpiry
		}
		if versionActive {
			in.Version = outdated
			want = PriorityVersion
		}
		if blockedActive {
			in.TrafficBlocked = true
			want = PriorityBlocked
		}
		if errActive {
			in.State = vpn.Error{Cause: cause, IsBlocking: true}
			want = PriorityError
		}

		if got := Prioritize(in).Priority(); got != want {
			t.Errorf("mask %04b: priority = %d, want %d", mask, got, want)
		}
	}
}

func TestExpiresSoon(t *testing.T) {
	warning := 72 * time.Hour
	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"unknown", time.Time{}, false},
		{"already expired", testNow.Add(-time.Minute), false},
		{"expires now", testNow, false},
		{"inside window", testNow.Add(time.Hour), true},
		{"at window edge", testNow.Add(warning), true},
		{"beyond window", testNow.Add(warning + time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expiresSoon(tt.expiry, testNow, warning); got != tt.want {
				t.Errorf("expiresSoon() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotification_Dismissible(t *testing.T) {
	tests := []struct {
		n    NotificationState
		want bool
	}{
		{NotificationError{IsBlocking: false}, true},
		{NotificationError{IsBlocking: true}, false},
		{NotificationBlocked{}, false},
		{NotificationVersion{}, false},
		{NotificationAccountExpiry{}, false},
		{NotificationHidden{}, false},
	}
	for _, tt := range tests {
		if got := tt.n.Dismissible(); got != tt.want {
			t.Errorf("%T.Dismissible() = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestNotificationsEqual(t *testing.T) {
	utc := testNow
	local := testNow.In(time.FixedZone("X", 3600))

	if !NotificationsEqual(NotificationAccountExpiry{Expiry: utc}, NotificationAccountExpiry{Expiry: local}) {
		t.Error("same instant in different zones should be equal")
	}
	if NotificationsEqual(NotificationBlocked{}, NotificationHidden{}) {
		t.Error("different variants should not be equal")
	}
	if NotificationsEqual(NotificationVersion{Info: *outdated}, NotificationVersion{Info: *unsupported}) {
		t.Error("different version info should not be equal")
	}
	if !NotificationsEqual(nil, nil) {
		t.Error("nil notifications should be equal")
	}
}

func TestVersionInfo_NeedsAttention(t *testing.T) {
	if !outdated.NeedsAttention() || !unsupported.NeedsAttention() {
		t.Error("outdated and unsupported versions need attention")
	}
	if upToDate.NeedsAttention() {
		t.Error("supported current version should not need attention")
	}
}
