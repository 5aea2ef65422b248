// Package connect projects tunnel state and auxiliary signals into the
// snapshot shown by the connect view.
// This file contains the Projector, the single goroutine that owns all view
// state and publishes snapshots.
package connect

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yllada/vpn-connect/common"
	"github.com/yllada/vpn-connect/vpn"
)

// LocationSource is a stream of exit location updates.
type LocationSource interface {
	Locations() <-chan vpn.LocationUpdate
}

// ViewActionOutOfTime is published once when the account expires.
type ViewActionOutOfTime struct{}

// ViewActionOpenAccountPage asks the view to open the account page.
type ViewActionOpenAccountPage struct {
	Token string
}

// ProjectorConfig configures a Projector.
type ProjectorConfig struct {
	// OptimisticHold is how long an optimistic state may be displayed
	// before the actual state is shown again.
	OptimisticHold time.Duration
	// ExpiryWarning is how far ahead of expiry the warning is shown.
	ExpiryWarning time.Duration
	// ExpiryCheckInterval is how often the notification is re-evaluated
	// without new input.
	ExpiryCheckInterval time.Duration
	QueueSize           int
	Clock               func() time.Time
}

// DefaultProjectorConfig returns the default configuration.
func DefaultProjectorConfig() ProjectorConfig {
	return ProjectorConfig{
		OptimisticHold:      common.ThrottleWindow,
		ExpiryWarning:       common.AccountExpiryWarning,
		ExpiryCheckInterval: common.ExpiryCheckInterval,
		QueueSize:           common.ProjectorQueueSize,
		Clock:               time.Now,
	}
}

// Projector reduces tunnel states and auxiliary inputs into Snapshots.
// Input methods may be called from any goroutine; they are applied in
// order by Run. The projector never issues commands.
type Projector struct {
	cfg     ProjectorConfig
	events  chan func()
	stopped chan struct{}
	bus     *Bus
	latest  atomic.Pointer[Snapshot]

	// Owned by the Run goroutine.
	actual         vpn.TunnelState
	lastStateAt    time.Time
	optimistic     vpn.TunnelState
	holdTimer      *time.Timer
	location       *vpn.GeoIPLocation
	relay          *vpn.RelayLocation
	lastLocationAt time.Time
	version        *VersionInfo
	accountExpiry  time.Time
	outOfTimeSent  bool
	trafficBlocked bool
	detailExpanded bool
	errorDismissed bool
	revision       uint64
}

// NewProjector creates a projector publishing on bus. The initial snapshot
// shows a disconnected tunnel.
func NewProjector(cfg ProjectorConfig, bus *Bus) *Projector {
	def := DefaultProjectorConfig()
	if cfg.OptimisticHold <= 0 {
		cfg.OptimisticHold = def.OptimisticHold
	}
	if cfg.ExpiryWarning <= 0 {
		cfg.ExpiryWarning = def.ExpiryWarning
	}
	if cfg.ExpiryCheckInterval <= 0 {
		cfg.ExpiryCheckInterval = def.ExpiryCheckInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}

	p := &Projector{
		cfg:     cfg,
		events:  make(chan func(), cfg.QueueSize),
		stopped: make(chan struct{}),
		bus:     bus,
		actual:  vpn.Disconnected{},
	}
	initial := p.build()
	p.latest.Store(&initial)
	return p
}

// Snapshot returns the latest snapshot.
func (p *Projector) Snapshot() Snapshot {
	return *p.latest.Load()
}

// Subscribe returns a subscription to snapshots and view actions.
func (p *Projector) Subscribe() Subscription {
	return p.bus.Subscribe(TopicSnapshots, TopicViewActions)
}

// Unsubscribe cancels a subscription returned by Subscribe.
func (p *Projector) Unsubscribe(sub Subscription) {
	p.bus.Unsubscribe(sub)
}

// PushTunnelState applies a tunnel state update. Updates older than the
// last applied one are discarded.
func (p *Projector) PushTunnelState(u vpn.TunnelUpdate) {
	p.enqueue(func() {
		if isStale(u.At, p.lastStateAt) {
			common.LogDebug("%v: tunnel state %s at %s", common.ErrStaleUpdate, vpn.Describe(u.State), u.At.Format(time.RFC3339Nano))
			return
		}
		if !u.At.IsZero() {
			p.lastStateAt = u.At
		}
		if !vpn.StatesEqual(p.actual, u.State) {
			p.errorDismissed = false
		}
		p.actual = u.State
		if p.optimistic != nil && vpn.StatusOf(p.optimistic) == vpn.StatusOf(u.State) {
			p.clearOptimistic()
		}
		p.publish()
	})
}

// PushLocation applies a location update. Updates older than the last
// applied one are discarded.
func (p *Projector) PushLocation(u vpn.LocationUpdate) {
	p.enqueue(func() {
		if isStale(u.At, p.lastLocationAt) {
			common.LogDebug("%v: location at %s", common.ErrStaleUpdate, u.At.Format(time.RFC3339Nano))
			return
		}
		if !u.At.IsZero() {
			p.lastLocationAt = u.At
		}
		p.location = u.Location
		if u.Relay != nil {
			p.relay = u.Relay
		}
		p.publish()
	})
}

// SetVersion sets the version information. Nil means unknown.
func (p *Projector) SetVersion(info *VersionInfo) {
	p.enqueue(func() {
		p.version = info
		p.publish()
	})
}

// SetAccountExpiry sets the account expiry. The zero time means unknown.
func (p *Projector) SetAccountExpiry(expiry time.Time) {
	p.enqueue(func() {
		p.accountExpiry = expiry
		if expiry.IsZero() || expiry.After(p.cfg.Clock()) {
			p.outOfTimeSent = false
		}
		p.checkOutOfTime()
		p.publish()
	})
}

// SetTrafficBlocked sets whether the daemon blocks all traffic.
func (p *Projector) SetTrafficBlocked(blocked bool) {
	p.enqueue(func() {
		p.trafficBlocked = blocked
		p.publish()
	})
}

// ToggleDetail expands or collapses the tunnel detail panel.
func (p *Projector) ToggleDetail() {
	p.enqueue(func() {
		p.detailExpanded = !p.detailExpanded
		p.publish()
	})
}

// DismissNotification hides the current notification if it is a
// non-blocking error. Other notifications are not dismissible.
func (p *Projector) DismissNotification() {
	p.enqueue(func() {
		if !p.currentNotification().Dismissible() {
			return
		}
		p.errorDismissed = true
		p.publish()
	})
}

// ShowOptimistic displays state until the actual state reaches the same
// status or hold elapses. A non-positive hold selects the configured one.
func (p *Projector) ShowOptimistic(state vpn.TunnelState, hold time.Duration) {
	if hold <= 0 {
		hold = p.cfg.OptimisticHold
	}
	p.enqueue(func() {
		if vpn.StatusOf(state) == vpn.StatusOf(p.actual) {
			return
		}
		p.clearOptimistic()
		p.optimistic = state
		p.holdTimer = time.NewTimer(hold)
		p.publish()
	})
}

// RequestAccountPage publishes a view action opening the account page.
func (p *Projector) RequestAccountPage(token string) {
	p.enqueue(func() {
		p.bus.Publish(TopicViewActions, ViewActionOpenAccountPage{Token: token})
	})
}

// Refresh re-evaluates the snapshot against the current time.
func (p *Projector) Refresh() {
	p.enqueue(func() {
		p.checkOutOfTime()
		p.publish()
	})
}

// Sync blocks until every input enqueued before it has been applied, or
// ctx is done.
func (p *Projector) Sync(ctx context.Context) error {
	done := make(chan struct{})
	p.enqueue(func() { close(done) })
	select {
	case <-done:
		return nil
	case <-p.stopped:
		return common.ErrProjectorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies inputs until ctx is cancelled, then closes the bus.
// It must be called exactly once.
func (p *Projector) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.ExpiryCheckInterval)
	defer ticker.Stop()
	defer p.bus.Close()
	defer close(p.stopped)
	defer p.clearOptimistic()

	common.LogDebug("Projector started")
	p.bus.Publish(TopicSnapshots, p.Snapshot())

	for {
		var holdC <-chan time.Time
		if p.holdTimer != nil {
			holdC = p.holdTimer.C
		}

		select {
		case <-ctx.Done():
			common.LogDebug("Projector stopped at revision %d", p.revision)
			return nil
		case fn := <-p.events:
			fn()
		case <-holdC:
			common.LogDebug("Optimistic %s expired", vpn.Describe(p.optimistic))
			p.holdTimer = nil
			p.optimistic = nil
			p.publish()
		case <-ticker.C:
			p.checkOutOfTime()
			p.publish()
		}
	}
}

// FollowStates feeds src into the projector until ctx is done or src
// closes.
func (p *Projector) FollowStates(ctx context.Context, src vpn.StateSource) error {
	ch := src.TunnelStates()
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-ch:
			if !ok {
				return nil
			}
			p.PushTunnelState(u)
		}
	}
}

// FollowLocations feeds src into the projector until ctx is done or src
// closes.
func (p *Projector) FollowLocations(ctx context.Context, src LocationSource) error {
	ch := src.Locations()
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-ch:
			if !ok {
				return nil
			}
			p.PushLocation(u)
		}
	}
}

// FollowTrafficBlocked feeds the blocked signal into the projector until
// ctx is done or ch closes.
func (p *Projector) FollowTrafficBlocked(ctx context.Context, ch <-chan bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-ch:
			if !ok {
				return nil
			}
			p.SetTrafficBlocked(v)
		}
	}
}

func (p *Projector) enqueue(fn func()) {
	select {
	case p.events <- fn:
	case <-p.stopped:
		common.LogDebug("Projector stopped, input dropped")
	}
}

func (p *Projector) clearOptimistic() {
	if p.holdTimer != nil {
		p.holdTimer.Stop()
		p.holdTimer = nil
	}
	p.optimistic = nil
}

func (p *Projector) checkOutOfTime() {
	if p.outOfTimeSent || p.accountExpiry.IsZero() {
		return
	}
	if p.cfg.Clock().Before(p.accountExpiry) {
		return
	}
	p.outOfTimeSent = true
	common.LogInfo("Account expired at %s", p.accountExpiry.Format(time.RFC3339))
	p.bus.Publish(TopicViewActions, ViewActionOutOfTime{})
}

func (p *Projector) currentNotification() NotificationState {
	return Prioritize(Inputs{
		State:          p.actual,
		TrafficBlocked: p.trafficBlocked,
		Version:        p.version,
		AccountExpiry:  p.accountExpiry,
		Now:            p.cfg.Clock(),
		ExpiryWarning:  p.cfg.ExpiryWarning,
		ErrorDismissed: p.errorDismissed,
	})
}

func (p *Projector) build() Snapshot {
	displayed := p.actual
	if p.optimistic != nil {
		displayed = p.optimistic
	}
	return Snapshot{
		DisplayedState:   displayed,
		ActualState:      p.actual,
		Location:         p.location,
		RelayLocation:    p.relay,
		InAddress:        vpn.InAddressOf(p.actual),
		OutAddress:       p.location.OutAddress(),
		IsDetailExpanded: p.detailExpanded,
		ShowLocation:     showLocation(displayed),
		Notification:     p.currentNotification(),
		Revision:         p.revision,
	}
}

// publish replaces the latest snapshot and publishes it, unless nothing
// visible changed.
func (p *Projector) publish() {
	next := p.build()
	if prev := p.latest.Load(); prev != nil && prev.Equal(next) {
		return
	}
	p.revision++
	next.Revision = p.revision
	p.latest.Store(&next)
	p.bus.Publish(TopicSnapshots, next)
}

func isStale(at, last time.Time) bool {
	return !at.IsZero() && at.Before(last)
}
