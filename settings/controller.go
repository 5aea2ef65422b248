// Package settings applies advanced tunnel settings. Changes that alter
// where DNS queries go are gated behind a user confirmation.
package settings

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/yllada/vpn-connect/common"
	"github.com/yllada/vpn-connect/confirm"
	"github.com/yllada/vpn-connect/vpn"
)

// Confirmation prompts.
const (
	PromptEnableCustomDNS = "Enable custom DNS?"
	PromptLocalDNS        = "The DNS server is on your local network and will not be reachable through the tunnel when local network sharing is off. Add it anyway?"
)

// Change is a settings change that may be waiting for confirmation.
type Change struct {
	// Ticket is nil when no confirmation was needed.
	Ticket *confirm.Ticket
	cmd    vpn.Command
	sink   vpn.CommandSink
}

// Await waits for the confirmation and sends the command if the user
// confirmed. A change that needed no confirmation was already sent and
// reports confirm.Confirmed.
func (c *Change) Await(ctx context.Context) (confirm.Result, error) {
	if c.Ticket == nil {
		return confirm.Confirmed, nil
	}
	result, err := c.Ticket.Wait(ctx)
	if err != nil {
		return result, err
	}
	if result == confirm.Confirmed {
		c.sink.Send(c.cmd)
	} else {
		common.LogInfo("Settings change %s %s", c.cmd.Kind, result)
	}
	return result, nil
}

// Controller turns advanced settings events into daemon commands.
// Its methods must be called from the goroutine that owns the prompt;
// Change.Await may be called from any goroutine.
type Controller struct {
	sink      vpn.CommandSink
	handshake *confirm.Handshake
}

// NewController creates a settings controller sending to sink.
func NewController(sink vpn.CommandSink) *Controller {
	return &Controller{
		sink:      sink,
		handshake: confirm.New(),
	}
}

// ValidateMTU checks a WireGuard MTU. Zero selects the daemon default.
func ValidateMTU(mtu int) error {
	if mtu == 0 {
		return nil
	}
	if mtu < common.MinWireguardMTU || mtu > common.MaxWireguardMTU {
		return fmt.Errorf("%w: %d is outside %d-%d", common.ErrInvalidMTU, mtu,
			common.MinWireguardMTU, common.MaxWireguardMTU)
	}
	return nil
}

// SetWireguardMTU validates mtu and sends it to the daemon.
func (c *Controller) SetWireguardMTU(mtu int) error {
	if err := ValidateMTU(mtu); err != nil {
		return err
	}
	c.sink.Send(vpn.SetMTU(mtu))
	return nil
}

// EnableCustomDNS asks for confirmation before enabling custom DNS.
func (c *Controller) EnableCustomDNS() (*Change, error) {
	return c.gate(PromptEnableCustomDNS, vpn.NewCommand(vpn.CmdEnableCustomDNS))
}

// DisableCustomDNS disables custom DNS without confirmation.
func (c *Controller) DisableCustomDNS() {
	c.sink.Send(vpn.NewCommand(vpn.CmdDisableCustomDNS))
}

// AddDNSServer adds a custom DNS server. Servers on local addresses need a
// confirmation first; others are sent immediately.
func (c *Controller) AddDNSServer(address string) (*Change, error) {
	addr, err := ParseDNSServer(address)
	if err != nil {
		return nil, err
	}
	cmd := vpn.AddCustomDNSServer(addr)
	if IsLocalAddress(addr) {
		return c.gate(PromptLocalDNS, cmd)
	}
	c.sink.Send(cmd)
	return &Change{cmd: cmd, sink: c.sink}, nil
}

// RemoveDNSServer removes a custom DNS server.
func (c *Controller) RemoveDNSServer(address string) error {
	addr, err := ParseDNSServer(address)
	if err != nil {
		return err
	}
	c.sink.Send(vpn.RemoveCustomDNSServer(addr))
	return nil
}

// Pending returns the prompt waiting for an answer, if any.
func (c *Controller) Pending() (string, bool) {
	t := c.handshake.Pending()
	if t == nil {
		return "", false
	}
	return t.Prompt, true
}

// Confirm accepts the pending prompt.
func (c *Controller) Confirm() error { return c.handshake.Confirm() }

// Decline refuses the pending prompt.
func (c *Controller) Decline() error { return c.handshake.Decline() }

// Abandon dismisses the pending prompt without an answer.
func (c *Controller) Abandon() error { return c.handshake.Abandon() }

// Close abandons any pending prompt. The controller cannot request new
// confirmations afterwards.
func (c *Controller) Close() { c.handshake.Close() }

func (c *Controller) gate(prompt string, cmd vpn.Command) (*Change, error) {
	ticket, err := c.handshake.Request(prompt)
	if err != nil {
		return nil, err
	}
	return &Change{Ticket: ticket, cmd: cmd, sink: c.sink}, nil
}

// ParseDNSServer parses a DNS server IP address.
func ParseDNSServer(address string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(address))
	if err != nil || addr.IsUnspecified() || addr.IsMulticast() {
		return netip.Addr{}, fmt.Errorf("%w: %q", common.ErrInvalidDNSServer, address)
	}
	return addr.Unmap(), nil
}

// IsLocalAddress reports whether addr is only reachable on the local
// network.
func IsLocalAddress(addr netip.Addr) bool {
	return addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast()
}
