package vpn

import "context"

// StateSource is a stream of tunnel states from the daemon. Consumers must
// tolerate the channel being closed when the source shuts down.
type StateSource interface {
	TunnelStates() <-chan TunnelUpdate
}

// CommandSink accepts commands without waiting for their completion.
type CommandSink interface {
	Send(cmd Command)
}

// Daemon executes commands against the tunnel daemon.
type Daemon interface {
	Execute(ctx context.Context, cmd Command) error
}
