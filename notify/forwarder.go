package notify

import (
	"context"
	"time"

	"github.com/yllada/vpn-connect/common"
	"github.com/yllada/vpn-connect/connect"
)

// Forwarder mirrors the surfaced connect notification onto a desktop
// notifier. Only changes are forwarded.
type Forwarder struct {
	notifier common.Notifier
	clock    func() time.Time
	last     connect.NotificationState
}

// NewForwarder creates a forwarder. A nil clock selects time.Now.
func NewForwarder(notifier common.Notifier, clock func() time.Time) *Forwarder {
	if clock == nil {
		clock = time.Now
	}
	return &Forwarder{
		notifier: notifier,
		clock:    clock,
		last:     connect.NotificationHidden{},
	}
}

// Run forwards messages from sub until ctx is done or sub closes.
func (f *Forwarder) Run(ctx context.Context, sub connect.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub:
			if !ok {
				return nil
			}
			switch m := msg.(type) {
			case connect.Snapshot:
				f.Handle(m)
			case connect.ViewActionOutOfTime:
				f.notify(Notification{
					Title:   "Out of time",
					Message: "Your account has run out of time.",
					Type:    NotificationError,
				})
			}
		}
	}
}

// Handle forwards the snapshot's notification if it changed.
func (f *Forwarder) Handle(s connect.Snapshot) {
	if s.Notification == nil || connect.NotificationsEqual(f.last, s.Notification) {
		return
	}
	f.last = s.Notification

	if _, hidden := s.Notification.(connect.NotificationHidden); hidden {
		if err := f.notifier.Withdraw(); err != nil {
			common.LogWarn("Failed to withdraw notification: %v", err)
		}
		return
	}
	f.notify(Describe(s.Notification, f.clock()))
}

func (f *Forwarder) notify(n Notification) {
	if err := f.notifier.Notify(n.Title, n.Message, n.Type.Urgency()); err != nil {
		common.LogWarn("Failed to show notification %q: %v", n.Title, err)
	}
}
