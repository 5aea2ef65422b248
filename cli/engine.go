package cli

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yllada/vpn-connect/common"
	"github.com/yllada/vpn-connect/config"
	"github.com/yllada/vpn-connect/connect"
	"github.com/yllada/vpn-connect/notify"
	"github.com/yllada/vpn-connect/settings"
	"github.com/yllada/vpn-connect/vpn"
)

// idlePollInterval is how often WaitIdle checks the command queue.
const idlePollInterval = 20 * time.Millisecond

// Options configures an Engine.
type Options struct {
	Config *config.Config
	// Tokens backs the manage-account action. May be nil.
	Tokens common.TokenStore
	// Notifier receives desktop notifications when enabled in Config.
	// May be nil.
	Notifier common.Notifier
	// Version is pushed to the projector on start. May be nil.
	Version *connect.VersionInfo
	Clock   func() time.Time
}

// Engine wires the loopback daemon, the command dispatcher, the projector
// and both view controllers.
type Engine struct {
	Daemon     *vpn.Loopback
	Dispatcher *vpn.Dispatcher
	Projector  *connect.Projector
	Connect    *connect.Controller
	Settings   *settings.Controller

	cfg       *config.Config
	version   *connect.VersionInfo
	forwarder *notify.Forwarder
	cancel    context.CancelFunc
	group     *errgroup.Group
}

// NewEngine assembles an engine. Nothing runs until Start.
func NewEngine(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	lcfg := vpn.DefaultLoopbackConfig()
	lcfg.StepDelay = cfg.LoopbackStepDelay
	lcfg.BlockWhenDisconnected = cfg.BlockWhenDisconnected
	lcfg.Clock = clock
	daemon := vpn.NewLoopback(lcfg)

	dispatcher := vpn.NewDispatcher(daemon, common.CommandQueueSize)

	pcfg := connect.DefaultProjectorConfig()
	pcfg.OptimisticHold = cfg.ThrottleWindow
	pcfg.ExpiryWarning = cfg.AccountExpiryWarning
	pcfg.Clock = clock
	projector := connect.NewProjector(pcfg, connect.NewBus(common.SubscriberBufferSize))

	e := &Engine{
		Daemon:     daemon,
		Dispatcher: dispatcher,
		Projector:  projector,
		Connect:    connect.NewController(projector, dispatcher, opts.Tokens, cfg.ThrottleWindow, clock),
		Settings:   settings.NewController(dispatcher),
		cfg:        cfg,
		version:    opts.Version,
	}
	if cfg.DesktopNotifications && opts.Notifier != nil {
		e.forwarder = notify.NewForwarder(opts.Notifier, clock)
	}
	return e
}

// Start runs the engine goroutines until ctx is done or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	e.group = g

	// Subscribe before Run so the forwarder sees the first snapshot.
	var sub connect.Subscription
	if e.forwarder != nil {
		sub = e.Projector.Subscribe()
	}

	g.Go(func() error { return e.Projector.Run(gctx) })
	g.Go(func() error { return e.Dispatcher.Run(gctx) })
	g.Go(func() error { return e.Projector.FollowStates(gctx, e.Daemon) })
	g.Go(func() error { return e.Projector.FollowLocations(gctx, e.Daemon) })
	g.Go(func() error { return e.Projector.FollowTrafficBlocked(gctx, e.Daemon.TrafficBlocked()) })
	if sub != nil {
		g.Go(func() error { return e.forwarder.Run(gctx, sub) })
	}

	if e.version != nil {
		e.Projector.SetVersion(e.version)
	}
	if e.cfg.WireguardMTU != 0 {
		if err := e.Settings.SetWireguardMTU(e.cfg.WireguardMTU); err != nil {
			common.LogWarn("Ignoring configured MTU: %v", err)
		}
	}
	common.LogDebug("Engine started")
}

// Stop abandons any pending confirmation, stops every goroutine and waits
// for them to exit.
func (e *Engine) Stop() error {
	if e.cancel == nil {
		return nil
	}
	e.Settings.Close()
	e.Daemon.Close()
	e.cancel()
	err := e.group.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	common.LogDebug("Engine stopped")
	return err
}

// WaitIdle blocks until every queued command has executed and the
// projector has applied its pending inputs.
func (e *Engine) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()
	for e.Dispatcher.Pending() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return e.Projector.Sync(ctx)
}

// WaitFor returns the first snapshot satisfying match, starting with the
// current one.
func (e *Engine) WaitFor(ctx context.Context, sub connect.Subscription, match func(connect.Snapshot) bool) (connect.Snapshot, error) {
	if snap := e.Projector.Snapshot(); match(snap) {
		return snap, nil
	}
	for {
		select {
		case <-ctx.Done():
			return connect.Snapshot{}, ctx.Err()
		case msg, ok := <-sub:
			if !ok {
				return connect.Snapshot{}, common.ErrProjectorStopped
			}
			if snap, isSnap := msg.(connect.Snapshot); isSnap && match(snap) {
				return snap, nil
			}
		}
	}
}
