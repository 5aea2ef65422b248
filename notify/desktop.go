// Package notify surfaces connect view notifications on the desktop.
// This file contains the freedesktop notification backends.
package notify

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/vpn-connect/common"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod        = notificationsDest + ".Notify"
	closeMethod         = notificationsDest + ".CloseNotification"
	defaultExpireMillis = int32(-1)
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotificationInfo NotificationType = iota
	NotificationSuccess
	NotificationWarning
	NotificationError
)

// Urgency maps the type to a freedesktop urgency.
func (t NotificationType) Urgency() common.Urgency {
	switch t {
	case NotificationError:
		return common.UrgencyCritical
	case NotificationWarning:
		return common.UrgencyNormal
	default:
		return common.UrgencyLow
	}
}

// Icon returns the default icon name for the type.
func (t NotificationType) Icon() string {
	switch t {
	case NotificationWarning:
		return "dialog-warning"
	case NotificationError:
		return "network-vpn-error"
	default:
		return "network-vpn"
	}
}

// Notification represents a system notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	Icon    string
}

// busObject is the subset of dbus.BusObject used here.
type busObject interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// DesktopNotifier shows notifications through the session bus. Each new
// notification replaces the previous one.
type DesktopNotifier struct {
	mu      sync.Mutex
	obj     busObject
	appName string
	lastID  uint32
}

// NewDesktopNotifier connects to the session bus.
func NewDesktopNotifier() (*DesktopNotifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, common.WrapError(err, "failed to connect to session bus")
	}
	return &DesktopNotifier{
		obj:     conn.Object(notificationsDest, notificationsPath),
		appName: common.AppName,
	}, nil
}

// Show displays n, replacing the previous notification.
func (d *DesktopNotifier) Show(n Notification) error {
	icon := n.Icon
	if icon == "" {
		icon = n.Type.Icon()
	}
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(n.Type.Urgency())),
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var id uint32
	call := d.obj.Call(notifyMethod, 0,
		d.appName, d.lastID, icon, n.Title, n.Message,
		[]string{}, hints, defaultExpireMillis)
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}
	d.lastID = id
	return nil
}

// Notify implements common.Notifier.
func (d *DesktopNotifier) Notify(title, message string, urgency common.Urgency) error {
	return d.Show(Notification{Title: title, Message: message, Type: typeFor(urgency)})
}

// Withdraw closes the last notification shown.
func (d *DesktopNotifier) Withdraw() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastID == 0 {
		return nil
	}
	id := d.lastID
	d.lastID = 0
	if err := d.obj.Call(closeMethod, 0, id).Err; err != nil {
		return fmt.Errorf("failed to close notification %d: %w", id, err)
	}
	return nil
}

// CommandNotifier shows notifications with notify-send. It is used when
// no session bus is reachable.
type CommandNotifier struct {
	run func(name string, args ...string) error
}

// NewCommandNotifier creates a notify-send based notifier.
func NewCommandNotifier() *CommandNotifier {
	return &CommandNotifier{run: func(name string, args ...string) error {
		return exec.Command(name, args...).Run()
	}}
}

// Notify implements common.Notifier.
func (c *CommandNotifier) Notify(title, message string, urgency common.Urgency) error {
	t := typeFor(urgency)
	return c.run("notify-send",
		"--app-name="+common.AppName,
		"--icon="+t.Icon(),
		"--urgency="+urgency.String(),
		title,
		message,
	)
}

// Withdraw is a no-op: notify-send cannot close notifications.
func (c *CommandNotifier) Withdraw() error { return nil }

// NewNotifier returns a session bus notifier, falling back to notify-send.
func NewNotifier() common.Notifier {
	d, err := NewDesktopNotifier()
	if err != nil {
		common.LogWarn("Desktop notifications via D-Bus unavailable, using notify-send: %v", err)
		return NewCommandNotifier()
	}
	return d
}

func typeFor(u common.Urgency) NotificationType {
	switch u {
	case common.UrgencyCritical:
		return NotificationError
	case common.UrgencyNormal:
		return NotificationWarning
	default:
		return NotificationInfo
	}
}
