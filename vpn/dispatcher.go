// Package vpn provides the tunnel state model and command plumbing.
// This file contains the Dispatcher, a single-consumer queue that executes
// commands against the daemon in submission order.
package vpn

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yllada/vpn-connect/common"
)

// Dispatcher queues commands and executes them one at a time.
// Send and TrySend are safe for concurrent use; Run must be called once.
type Dispatcher struct {
	mu      sync.RWMutex
	daemon  Daemon
	queue   chan Command
	running bool
	stopped chan struct{}
	stopOne sync.Once
	onError func(cmd Command, err error)
	pending atomic.Int64
}

// NewDispatcher creates a dispatcher for daemon with a queue of the given
// size. A non-positive size selects common.CommandQueueSize.
func NewDispatcher(daemon Daemon, size int) *Dispatcher {
	if size <= 0 {
		size = common.CommandQueueSize
	}
	return &Dispatcher{
		daemon:  daemon,
		queue:   make(chan Command, size),
		stopped: make(chan struct{}),
	}
}

// SetOnError sets a callback invoked from the dispatcher goroutine when the
// daemon rejects a command.
func (d *Dispatcher) SetOnError(callback func(cmd Command, err error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = callback
}

// Send enqueues cmd and returns immediately. A command that cannot be
// queued is dropped with a warning.
func (d *Dispatcher) Send(cmd Command) {
	if err := d.TrySend(cmd); err != nil {
		common.LogWarn("Dropping command %s: %v", cmd, err)
	}
}

// TrySend enqueues cmd, reporting common.ErrQueueFull or
// common.ErrDispatcherStopped when it cannot.
func (d *Dispatcher) TrySend(cmd Command) error {
	select {
	case <-d.stopped:
		return common.ErrDispatcherStopped
	default:
	}

	d.pending.Add(1)
	select {
	case d.queue <- cmd:
		common.LogDebug("Queued command %s", cmd)
		return nil
	default:
		d.pending.Add(-1)
		return common.ErrQueueFull
	}
}

// Pending returns the number of commands queued or executing.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// IsRunning returns whether Run is currently consuming the queue.
func (d *Dispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Run consumes the queue until ctx is cancelled. Commands still queued at
// that point are discarded.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	select {
	case <-d.stopped:
		d.mu.Unlock()
		return common.ErrDispatcherStopped
	default:
	}
	d.running = true
	d.mu.Unlock()

	common.LogDebug("Command dispatcher started")
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		d.stopOne.Do(func() { close(d.stopped) })
		if n := len(d.queue); n > 0 {
			common.LogDebug("Command dispatcher stopped with %d queued command(s)", n)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-d.queue:
			d.execute(ctx, cmd)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, cmd Command) {
	defer d.pending.Add(-1)
	common.LogInfo("Executing command %s", cmd)
	if err := d.daemon.Execute(ctx, cmd); err != nil {
		common.LogError("Command %s failed: %v", cmd, err)
		d.mu.RLock()
		callback := d.onError
		d.mu.RUnlock()
		if callback != nil {
			callback(cmd, err)
		}
	}
}
