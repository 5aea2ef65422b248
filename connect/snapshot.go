package connect

import "github.com/yllada/vpn-connect/vpn"

// Snapshot is the complete, immutable state of the connect view. Every
// change produces a new Snapshot that replaces the previous one.
type Snapshot struct {
	// DisplayedState is what the view shows. It differs from ActualState
	// only while an optimistic transition is held.
	DisplayedState   vpn.TunnelState
	ActualState      vpn.TunnelState
	Location         *vpn.GeoIPLocation
	RelayLocation    *vpn.RelayLocation
	InAddress        *vpn.InAddress
	OutAddress       string
	IsDetailExpanded bool
	// ShowLocation selects the relay name over the generic switch label.
	ShowLocation bool
	Notification NotificationState
	// Revision increases with every published snapshot.
	Revision uint64
}

// ShowsProgress reports whether the progress indicator is shown.
func (s Snapshot) ShowsProgress() bool {
	return vpn.ShowsProgress(s.DisplayedState)
}

// IsSecured reports whether the displayed state protects traffic.
func (s Snapshot) IsSecured() bool {
	return vpn.IsSecured(s.DisplayedState)
}

// LocationInfoVisible reports whether the detailed location panel is shown.
func (s Snapshot) LocationInfoVisible() bool {
	if _, ok := s.DisplayedState.(vpn.Disconnected); ok {
		return false
	}
	return s.Location != nil && s.Location.Hostname != ""
}

// Equal reports whether s and o show the same thing. Revision is ignored.
func (s Snapshot) Equal(o Snapshot) bool {
	return vpn.StatesEqual(s.DisplayedState, o.DisplayedState) &&
		vpn.StatesEqual(s.ActualState, o.ActualState) &&
		ptrEqual(s.Location, o.Location) &&
		ptrEqual(s.RelayLocation, o.RelayLocation) &&
		ptrEqual(s.InAddress, o.InAddress) &&
		s.OutAddress == o.OutAddress &&
		s.IsDetailExpanded == o.IsDetailExpanded &&
		s.ShowLocation == o.ShowLocation &&
		NotificationsEqual(s.Notification, o.Notification)
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// showLocation is false while a tunnel is being set up or is up.
func showLocation(state vpn.TunnelState) bool {
	switch s := state.(type) {
	case vpn.Connecting, vpn.Connected:
		return false
	case vpn.Disconnecting:
		return s.Next != vpn.ActionReconnect
	default:
		return true
	}
}
