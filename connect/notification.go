// Package connect projects tunnel state and auxiliary signals into the
// snapshot shown by the connect view.
// This file contains the notification states and the prioritizer.
package connect

import (
	"fmt"
	"time"

	"github.com/yllada/vpn-connect/vpn"
)

// Notification priorities, highest first.
const (
	PriorityError         = 4
	PriorityBlocked       = 3
	PriorityVersion       = 2
	PriorityAccountExpiry = 1
	PriorityHidden        = 0
)

// NotificationState is the single notification surfaced by the connect
// view. Only the variants declared in this file implement it.
type NotificationState interface {
	Priority() int
	// Dismissible reports whether the user may hide the notification.
	Dismissible() bool
	notificationState()
}

// NotificationError surfaces a daemon error.
type NotificationError struct {
	Cause      vpn.ErrorCause
	IsBlocking bool
}

// NotificationBlocked means the daemon is blocking all traffic.
type NotificationBlocked struct{}

// NotificationVersion warns about an unsupported or outdated app version.
type NotificationVersion struct {
	Info VersionInfo
}

// NotificationAccountExpiry warns that the account expires soon.
type NotificationAccountExpiry struct {
	Expiry time.Time
}

// NotificationHidden means nothing is surfaced.
type NotificationHidden struct{}

func (NotificationError) Priority() int         { return PriorityError }
func (NotificationBlocked) Priority() int       { return PriorityBlocked }
func (NotificationVersion) Priority() int       { return PriorityVersion }
func (NotificationAccountExpiry) Priority() int { return PriorityAccountExpiry }
func (NotificationHidden) Priority() int        { return PriorityHidden }

func (n NotificationError) Dismissible() bool       { return !n.IsBlocking }
func (NotificationBlocked) Dismissible() bool       { return false }
func (NotificationVersion) Dismissible() bool       { return false }
func (NotificationAccountExpiry) Dismissible() bool { return false }
func (NotificationHidden) Dismissible() bool        { return false }

func (NotificationError) notificationState()         {}
func (NotificationBlocked) notificationState()       {}
func (NotificationVersion) notificationState()       {}
func (NotificationAccountExpiry) notificationState() {}
func (NotificationHidden) notificationState()        {}

// NotificationsEqual reports whether a and b are structurally equal.
func NotificationsEqual(a, b NotificationState) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case NotificationError:
		y, ok := b.(NotificationError)
		return ok && x == y
	case NotificationBlocked:
		_, ok := b.(NotificationBlocked)
		return ok
	case NotificationVersion:
		y, ok := b.(NotificationVersion)
		return ok && x.Info == y.Info
	case NotificationAccountExpiry:
		y, ok := b.(NotificationAccountExpiry)
		return ok && x.Expiry.Equal(y.Expiry)
	case NotificationHidden:
		_, ok := b.(NotificationHidden)
		return ok
	default:
		panic(fmt.Sprintf("connect: unknown notification %T", a))
	}
}

// Inputs are the signals the prioritizer chooses from.
type Inputs struct {
	State vpn.TunnelState
	// TrafficBlocked is set while the daemon firewall blocks all traffic.
	TrafficBlocked bool
	// Version is nil while the version check has not completed.
	Version *VersionInfo
	// AccountExpiry is zero while unknown.
	AccountExpiry time.Time
	Now           time.Time
	// ExpiryWarning is how far ahead of expiry the warning is shown.
	ExpiryWarning time.Duration
	// ErrorDismissed hides a non-blocking error the user dismissed.
	ErrorDismissed bool
}

// Prioritize returns the highest-priority notification for in.
func Prioritize(in Inputs) NotificationState {
	if e, ok := in.State.(vpn.Error); ok {
		if e.IsBlocking || !in.ErrorDismissed {
			return NotificationError{Cause: e.Cause, IsBlocking: e.IsBlocking}
		}
	}

	if in.TrafficBlocked {
		if _, connected := in.State.(vpn.Connected); !connected {
			return NotificationBlocked{}
		}
	}

	if in.Version != nil && in.Version.NeedsAttention() {
		return NotificationVersion{Info: *in.Version}
	}

	if expiresSoon(in.AccountExpiry, in.Now, in.ExpiryWarning) {
		return NotificationAccountExpiry{Expiry: in.AccountExpiry}
	}

	return NotificationHidden{}
}

// expiresSoon reports now < expiry <= now+warning.
func expiresSoon(expiry, now time.Time, warning time.Duration) bool {
	if expiry.IsZero() {
		return false
	}
	return expiry.After(now) && !expiry.After(now.Add(warning))
}
