package notify

import (
	"fmt"
	"time"

	"github.com/yllada/vpn-connect/connect"
)

// Describe renders a connect notification. Hidden renders as the zero
// Notification.
func Describe(n connect.NotificationState, now time.Time) Notification {
	switch v := n.(type) {
	case connect.NotificationError:
		if v.IsBlocking {
			return Notification{
				Title:   "Blocking internet",
				Message: "Failed to connect: " + v.Cause.String() + ". Traffic stays blocked.",
				Type:    NotificationError,
			}
		}
		return Notification{
			Title:   "Failed to secure connection",
			Message: v.Cause.String(),
			Type:    NotificationError,
		}
	case connect.NotificationBlocked:
		return Notification{
			Title:   "Blocking internet",
			Message: "Your internet traffic is blocked until the tunnel is connected.",
			Type:    NotificationWarning,
		}
	case connect.NotificationVersion:
		if !v.Info.IsSupported {
			return Notification{
				Title:   "Unsupported version",
				Message: "Your privacy might be at risk with this unsupported app version. Please update now.",
				Type:    NotificationError,
			}
		}
		msg := "A new version is available."
		if v.Info.UpgradeVersion != "" {
			msg = fmt.Sprintf("Install version %s to stay up to date.", v.Info.UpgradeVersion)
		}
		return Notification{Title: "Update available", Message: msg, Type: NotificationWarning}
	case connect.NotificationAccountExpiry:
		return Notification{
			Title:   "Account credit expires soon",
			Message: FormatRemaining(v.Expiry.Sub(now)) + " left. Buy more credit.",
			Type:    NotificationWarning,
		}
	default:
		return Notification{}
	}
}

// FormatRemaining renders a duration as whole days, hours or minutes.
func FormatRemaining(d time.Duration) string {
	switch {
	case d >= 48*time.Hour:
		return fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	case d >= 2*time.Hour:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return "less than a minute"
	}
}
