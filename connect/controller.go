package connect

import (
	"time"

	"github.com/yllada/vpn-connect/common"
	"github.com/yllada/vpn-connect/throttle"
	"github.com/yllada/vpn-connect/vpn"
)

// Controller turns connect view events into commands. Connect and
// Reconnect share one throttle since they are the same on-screen control;
// Disconnect and Cancel are never throttled.
//
// A Controller is confined to the goroutine that delivers view events.
type Controller struct {
	projector *Projector
	sink      vpn.CommandSink
	tokens    common.TokenStore
	button    *throttle.Throttle
}

// NewController creates a controller. tokens may be nil, in which case
// ManageAccount fails with common.ErrCredentialsNotFound.
func NewController(projector *Projector, sink vpn.CommandSink, tokens common.TokenStore, window time.Duration, clock func() time.Time) *Controller {
	return &Controller{
		projector: projector,
		sink:      sink,
		tokens:    tokens,
		button:    throttle.New(window, clock),
	}
}

// Connect requests a connection and reports whether it was sent.
func (c *Controller) Connect() bool {
	return c.button.Attempt(func() {
		c.projector.ShowOptimistic(vpn.Connecting{}, c.button.Window())
		c.sink.Send(vpn.NewCommand(vpn.CmdConnect))
	})
}

// Reconnect requests a reconnection and reports whether it was sent.
func (c *Controller) Reconnect() bool {
	return c.button.Attempt(func() {
		c.projector.ShowOptimistic(vpn.Disconnecting{Next: vpn.ActionReconnect}, c.button.Window())
		c.sink.Send(vpn.NewCommand(vpn.CmdReconnect))
	})
}

// Disconnect requests a disconnect.
func (c *Controller) Disconnect() {
	c.sink.Send(vpn.NewCommand(vpn.CmdDisconnect))
}

// Cancel aborts a connection attempt.
func (c *Controller) Cancel() {
	c.sink.Send(vpn.NewCommand(vpn.CmdCancel))
}

// ToggleDetail expands or collapses the tunnel detail panel.
func (c *Controller) ToggleDetail() {
	c.projector.ToggleDetail()
}

// DismissNotification hides a dismissible notification.
func (c *Controller) DismissNotification() {
	c.projector.DismissNotification()
}

// ManageAccount asks the view to open the account page for the stored
// account token.
func (c *Controller) ManageAccount() error {
	if c.tokens == nil {
		return common.ErrCredentialsNotFound
	}
	token, err := c.tokens.AccountToken()
	if err != nil {
		return err
	}
	c.projector.RequestAccountPage(token)
	return nil
}
