// Package vpn provides the tunnel state model and command plumbing.
// This file contains Loopback, an in-process daemon that simulates tunnel
// transitions for the CLI and tests.
package vpn

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/yllada/vpn-connect/common"
)

// DaemonSettings are the tunnel settings held by the daemon.
type DaemonSettings struct {
	// WireguardMTU of zero means the daemon default.
	WireguardMTU int
	CustomDNS    bool
	DNSServers   []netip.Addr
}

// LoopbackConfig configures a Loopback daemon.
type LoopbackConfig struct {
	// StepDelay is the pause between simulated transitions.
	StepDelay time.Duration
	// BlockWhenDisconnected keeps traffic blocked while disconnected.
	BlockWhenDisconnected bool
	Endpoint              Endpoint
	Location              GeoIPLocation
	Relay                 RelayLocation
	// Clock stamps emitted updates. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultLoopbackConfig returns a config with a fixed WireGuard relay.
func DefaultLoopbackConfig() LoopbackConfig {
	return LoopbackConfig{
		StepDelay: common.LoopbackStepDelay,
		Endpoint: Endpoint{
			Address:    netip.MustParseAddrPort("185.213.154.68:51820"),
			Protocol:   ProtocolUDP,
			TunnelType: TunnelWireguard,
		},
		Location: GeoIPLocation{
			IPv4:     netip.MustParseAddr("185.213.154.69"),
			Country:  "Sweden",
			City:     "Gothenburg",
			Hostname: "se-got-wg-001",
		},
		Relay: RelayLocation{Country: "Sweden", City: "Gothenburg"},
		Clock: time.Now,
	}
}

// Loopback is an in-process daemon. It implements Daemon and StateSource
// and also streams locations and the traffic-blocked signal.
type Loopback struct {
	mu        sync.Mutex
	cfg       LoopbackConfig
	state     TunnelState
	blocked   bool
	settings  DaemonSettings
	states    chan TunnelUpdate
	locations chan LocationUpdate
	blockedCh chan bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoopback creates a loopback daemon in the Disconnected state and
// emits that initial state.
func NewLoopback(cfg LoopbackConfig) *Loopback {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	l := &Loopback{
		cfg:       cfg,
		state:     Disconnected{},
		states:    make(chan TunnelUpdate, common.ProjectorQueueSize),
		locations: make(chan LocationUpdate, common.ProjectorQueueSize),
		blockedCh: make(chan bool, common.ProjectorQueueSize),
		done:      make(chan struct{}),
	}
	l.states <- TunnelUpdate{State: Disconnected{}, At: cfg.Clock()}
	if cfg.BlockWhenDisconnected {
		l.blocked = true
		l.blockedCh <- true
	}
	return l
}

// TunnelStates implements StateSource.
func (l *Loopback) TunnelStates() <-chan TunnelUpdate { return l.states }

// Locations streams exit location changes.
func (l *Loopback) Locations() <-chan LocationUpdate { return l.locations }

// TrafficBlocked streams the firewall blocking signal, emitted on change.
func (l *Loopback) TrafficBlocked() <-chan bool { return l.blockedCh }

// State returns the current simulated state.
func (l *Loopback) State() TunnelState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Settings returns a copy of the daemon settings.
func (l *Loopback) Settings() DaemonSettings {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.settings
	s.DNSServers = slices.Clone(s.DNSServers)
	return s
}

// Close stops further emission. Channels are left open.
func (l *Loopback) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Execute implements Daemon.
func (l *Loopback) Execute(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case CmdConnect:
		return l.connect(ctx)
	case CmdDisconnect:
		return l.disconnect(ctx)
	case CmdReconnect:
		return l.reconnect(ctx)
	case CmdCancel:
		return l.cancel(ctx)
	case CmdSetMTU:
		l.mu.Lock()
		l.settings.WireguardMTU = cmd.MTU
		l.mu.Unlock()
		return nil
	case CmdEnableCustomDNS, CmdDisableCustomDNS:
		l.mu.Lock()
		l.settings.CustomDNS = cmd.Kind == CmdEnableCustomDNS
		l.mu.Unlock()
		return nil
	case CmdAddCustomDNSServer:
		if !cmd.DNSServer.IsValid() {
			return common.ErrInvalidDNSServer
		}
		l.mu.Lock()
		if !slices.Contains(l.settings.DNSServers, cmd.DNSServer) {
			l.settings.DNSServers = append(l.settings.DNSServers, cmd.DNSServer)
		}
		l.mu.Unlock()
		return nil
	case CmdRemoveCustomDNSServer:
		l.mu.Lock()
		l.settings.DNSServers = slices.DeleteFunc(l.settings.DNSServers, func(a netip.Addr) bool {
			return a == cmd.DNSServer
		})
		l.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("%w: %d", common.ErrUnknownCommand, cmd.Kind)
	}
}

// Fail moves the daemon into an error state.
func (l *Loopback) Fail(ctx context.Context, cause ErrorCause, blocking bool) error {
	if err := l.emit(ctx, Error{Cause: cause, IsBlocking: blocking}); err != nil {
		return err
	}
	return l.setBlocked(ctx, blocking)
}

func (l *Loopback) connect(ctx context.Context) error {
	if _, ok := l.State().(Connected); ok {
		return nil
	}
	ep := l.cfg.Endpoint
	steps := []TunnelState{Connecting{}, Connecting{Endpoint: &ep}}
	for _, s := range steps {
		if err := l.emit(ctx, s); err != nil {
			return err
		}
		if err := l.wait(ctx); err != nil {
			return err
		}
	}
	return l.arrive(ctx)
}

func (l *Loopback) reconnect(ctx context.Context) error {
	switch l.State().(type) {
	case Connected, Connecting:
	default:
		return l.connect(ctx)
	}
	if err := l.emit(ctx, Disconnecting{Next: ActionReconnect}); err != nil {
		return err
	}
	if err := l.wait(ctx); err != nil {
		return err
	}
	ep := l.cfg.Endpoint
	if err := l.emit(ctx, Connecting{Endpoint: &ep}); err != nil {
		return err
	}
	if err := l.wait(ctx); err != nil {
		return err
	}
	return l.arrive(ctx)
}

func (l *Loopback) disconnect(ctx context.Context) error {
	if _, ok := l.State().(Disconnected); ok {
		return nil
	}
	return l.teardown(ctx)
}

func (l *Loopback) cancel(ctx context.Context) error {
	if _, ok := l.State().(Connecting); !ok {
		return nil
	}
	return l.teardown(ctx)
}

func (l *Loopback) teardown(ctx context.Context) error {
	next := ActionNothing
	if l.cfg.BlockWhenDisconnected {
		next = ActionBlock
	}
	if err := l.emit(ctx, Disconnecting{Next: next}); err != nil {
		return err
	}
	if err := l.wait(ctx); err != nil {
		return err
	}
	if err := l.emit(ctx, Disconnected{}); err != nil {
		return err
	}
	if err := l.emitLocation(ctx, nil); err != nil {
		return err
	}
	return l.setBlocked(ctx, l.cfg.BlockWhenDisconnected)
}

func (l *Loopback) arrive(ctx context.Context) error {
	if err := l.emit(ctx, Connected{Endpoint: l.cfg.Endpoint}); err != nil {
		return err
	}
	loc := l.cfg.Location
	if err := l.emitLocation(ctx, &loc); err != nil {
		return err
	}
	return l.setBlocked(ctx, false)
}

func (l *Loopback) emit(ctx context.Context, state TunnelState) error {
	l.mu.Lock()
	l.state = state
	l.mu.Unlock()

	common.LogDebug("Loopback daemon: %s", Describe(state))
	select {
	case l.states <- TunnelUpdate{State: state, At: l.cfg.Clock()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return context.Canceled
	}
}

func (l *Loopback) emitLocation(ctx context.Context, loc *GeoIPLocation) error {
	relay := l.cfg.Relay
	select {
	case l.locations <- LocationUpdate{Location: loc, Relay: &relay, At: l.cfg.Clock()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return context.Canceled
	}
}

func (l *Loopback) setBlocked(ctx context.Context, blocked bool) error {
	l.mu.Lock()
	changed := l.blocked != blocked
	l.blocked = blocked
	l.mu.Unlock()
	if !changed {
		return nil
	}
	select {
	case l.blockedCh <- blocked:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return context.Canceled
	}
}

func (l *Loopback) wait(ctx context.Context) error {
	if l.cfg.StepDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(l.cfg.StepDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return context.Canceled
	}
}
