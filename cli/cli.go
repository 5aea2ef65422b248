// Package cli provides the command-line interface for VPN Connect.
// Each operation drives the connect and settings controllers of an
// Engine and prints the resulting view snapshots.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"golang.org/x/term"

	"github.com/yllada/vpn-connect/common"
	"github.com/yllada/vpn-connect/config"
	"github.com/yllada/vpn-connect/confirm"
	"github.com/yllada/vpn-connect/connect"
	"github.com/yllada/vpn-connect/settings"
	"github.com/yllada/vpn-connect/vpn"
)

// CLI represents the command-line interface.
type CLI struct {
	engine  *Engine
	out     io.Writer
	styles  styles
	prompt  Prompter
	tokens  common.TokenStore
	cfg     *config.Config
	cfgPath string
	clock   func() time.Time
}

// New creates a CLI over a started engine, writing to stdout and
// prompting on stdin when it is a terminal.
func New(engine *Engine, tokens common.TokenStore, cfg *config.Config, cfgPath string) *CLI {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	color := term.IsTerminal(int(os.Stdout.Fd()))

	prompt := NonInteractivePrompter(os.Stdout)
	if interactive {
		prompt = TerminalPrompter(os.Stdin, os.Stdout)
	}
	return newCLI(engine, os.Stdout, color, prompt, tokens, cfg, cfgPath)
}

func newCLI(engine *Engine, out io.Writer, color bool, prompt Prompter, tokens common.TokenStore, cfg *config.Config, cfgPath string) *CLI {
	return &CLI{
		engine:  engine,
		out:     out,
		styles:  newStyles(out, color),
		prompt:  prompt,
		tokens:  tokens,
		cfg:     cfg,
		cfgPath: cfgPath,
		clock:   time.Now,
	}
}

// Status prints the current snapshot and daemon settings.
func (c *CLI) Status(ctx context.Context) error {
	if err := c.engine.WaitIdle(ctx); err != nil {
		return err
	}
	c.printSnapshot(c.engine.Projector.Snapshot())
	c.printSettings()
	return nil
}

// Watch prints every snapshot and view action until ctx is done.
func (c *CLI) Watch(ctx context.Context) error {
	sub := c.engine.Projector.Subscribe()
	defer c.engine.Projector.Unsubscribe(sub)

	c.printSnapshot(c.engine.Projector.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub:
			if !ok {
				return nil
			}
			c.printMessage(msg)
		}
	}
}

// Connect requests a connection and waits until it is established.
func (c *CLI) Connect(ctx context.Context) error {
	return c.connectWith(ctx, "Connecting", c.engine.Connect.Connect)
}

// Reconnect requests a reconnection and waits until it is established.
func (c *CLI) Reconnect(ctx context.Context) error {
	return c.connectWith(ctx, "Reconnecting", c.engine.Connect.Reconnect)
}

func (c *CLI) connectWith(ctx context.Context, verb string, press func() bool) error {
	sub := c.engine.Projector.Subscribe()
	defer c.engine.Projector.Unsubscribe(sub)

	if !press() {
		fmt.Fprintln(c.out, "Request ignored: the connect button was pressed too recently.")
		return nil
	}
	fmt.Fprintf(c.out, "%s...\n", verb)
	start := c.clock()

	ctx, cancel := context.WithTimeout(ctx, common.ConnectionTimeout)
	defer cancel()

	var last vpn.TunnelState
	snap, err := c.engine.WaitFor(ctx, sub, func(s connect.Snapshot) bool {
		if !vpn.StatesEqual(last, s.DisplayedState) {
			last = s.DisplayedState
			common.LogDebug("Displayed state: %s", vpn.Describe(s.DisplayedState))
		}
		switch s.ActualState.(type) {
		case vpn.Connected, vpn.Error:
			return true
		}
		return false
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("connection timed out")
		}
		return err
	}
	if err := c.engine.WaitIdle(ctx); err != nil {
		return err
	}
	if e, ok := snap.ActualState.(vpn.Error); ok {
		return fmt.Errorf("connection failed: %s", e.Cause)
	}
	fmt.Fprintf(c.out, "✓ %s (%s)\n", vpn.Describe(snap.ActualState), formatDuration(c.clock().Sub(start)))
	c.printSnapshot(c.engine.Projector.Snapshot())
	return nil
}

// Disconnect requests a disconnect and waits for it to complete.
func (c *CLI) Disconnect(ctx context.Context) error {
	sub := c.engine.Projector.Subscribe()
	defer c.engine.Projector.Unsubscribe(sub)

	c.engine.Connect.Disconnect()
	if err := c.engine.WaitIdle(ctx); err != nil {
		return err
	}
	_, err := c.engine.WaitFor(ctx, sub, func(s connect.Snapshot) bool {
		_, done := s.ActualState.(vpn.Disconnected)
		return done
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "✓ Disconnected")
	c.printSnapshot(c.engine.Projector.Snapshot())
	return nil
}

// ToggleDetail expands the detail panel and prints the snapshot.
func (c *CLI) ToggleDetail(ctx context.Context) error {
	c.engine.Connect.ToggleDetail()
	if err := c.engine.WaitIdle(ctx); err != nil {
		return err
	}
	c.printSnapshot(c.engine.Projector.Snapshot())
	return nil
}

// EnableCustomDNS asks for confirmation and enables custom DNS.
func (c *CLI) EnableCustomDNS(ctx context.Context) error {
	change, err := c.engine.Settings.EnableCustomDNS()
	if err != nil {
		return err
	}
	return c.settle(ctx, change)
}

// DisableCustomDNS disables custom DNS.
func (c *CLI) DisableCustomDNS(ctx context.Context) error {
	c.engine.Settings.DisableCustomDNS()
	return c.settle(ctx, nil)
}

// AddDNSServer adds a custom DNS server, asking first for local addresses.
func (c *CLI) AddDNSServer(ctx context.Context, address string) error {
	change, err := c.engine.Settings.AddDNSServer(address)
	if err != nil {
		return err
	}
	return c.settle(ctx, change)
}

// RemoveDNSServer removes a custom DNS server.
func (c *CLI) RemoveDNSServer(ctx context.Context, address string) error {
	if err := c.engine.Settings.RemoveDNSServer(address); err != nil {
		return err
	}
	return c.settle(ctx, nil)
}

// SetMTU applies a WireGuard MTU and saves it to the configuration.
func (c *CLI) SetMTU(ctx context.Context, mtu int) error {
	if err := c.engine.Settings.SetWireguardMTU(mtu); err != nil {
		return err
	}
	if c.cfg != nil && c.cfgPath != "" {
		c.cfg.WireguardMTU = mtu
		if err := c.cfg.SaveTo(c.cfgPath); err != nil {
			return err
		}
	}
	return c.settle(ctx, nil)
}

// SetAccountToken stores the account token.
func (c *CLI) SetAccountToken(token string) error {
	if c.tokens == nil {
		return common.ErrCredentialStorage
	}
	if err := c.tokens.SetAccountToken(token); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "✓ Account token saved")
	return nil
}

// ManageAccount prints the account page action for the stored token.
func (c *CLI) ManageAccount(ctx context.Context) error {
	sub := c.engine.Projector.Subscribe()
	defer c.engine.Projector.Unsubscribe(sub)

	if err := c.engine.Connect.ManageAccount(); err != nil {
		return fmt.Errorf("cannot open account page: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub:
			if !ok {
				return common.ErrProjectorStopped
			}
			if action, isAction := msg.(connect.ViewActionOpenAccountPage); isAction {
				fmt.Fprintf(c.out, "Open account page for %s\n", maskToken(action.Token))
				return nil
			}
		}
	}
}

// settle resolves a pending confirmation through the prompter, then waits
// for the resulting command to execute.
func (c *CLI) settle(ctx context.Context, change *settings.Change) error {
	if change != nil && change.Ticket != nil {
		result, err := c.prompt(ctx, change.Ticket.Prompt)
		if err != nil {
			_ = c.engine.Settings.Abandon()
			return err
		}
		switch result {
		case confirm.Confirmed:
			err = c.engine.Settings.Confirm()
		case confirm.Declined:
			err = c.engine.Settings.Decline()
		default:
			err = c.engine.Settings.Abandon()
		}
		if err != nil {
			return err
		}
		if result, err = change.Await(ctx); err != nil {
			return err
		}
		if result != confirm.Confirmed {
			fmt.Fprintf(c.out, "Change %s.\n", result)
			return nil
		}
	}
	if err := c.engine.WaitIdle(ctx); err != nil {
		return err
	}
	c.printSettings()
	return nil
}

func (c *CLI) printMessage(msg interface{}) {
	switch m := msg.(type) {
	case connect.Snapshot:
		c.printSnapshot(m)
	case connect.ViewActionOutOfTime:
		fmt.Fprintln(c.out, c.styles.failure.Render("Account out of time"))
	case connect.ViewActionOpenAccountPage:
		fmt.Fprintf(c.out, "Open account page for %s\n", maskToken(m.Token))
	}
}

func (c *CLI) printSnapshot(s connect.Snapshot) {
	fmt.Fprintln(c.out, c.styles.renderSnapshot(s, c.clock()))
}

func (c *CLI) printSettings() {
	s := c.engine.Daemon.Settings()

	mtu := "default"
	if s.WireguardMTU != 0 {
		mtu = fmt.Sprintf("%d", s.WireguardMTU)
	}
	dns := "off"
	if s.CustomDNS {
		dns = "on"
	}
	servers := "-"
	if len(s.DNSServers) > 0 {
		addrs := make([]string, 0, len(s.DNSServers))
		for _, a := range s.DNSServers {
			addrs = append(addrs, a.String())
		}
		slices.Sort(addrs)
		servers = fmt.Sprint(addrs)
	}
	fmt.Fprintf(c.out, "%s mtu=%s custom-dns=%s servers=%s\n",
		c.styles.faint.Render("settings:"), mtu, dns, servers)
}

// PrintHelp prints CLI usage help.
func PrintHelp() {
	fmt.Println(`VPN Connect - Command Line Interface

Usage:
  vpn-connect [OPTIONS]

Options:
  --version           Show version and exit
  --verbose           Enable verbose logging
  --config PATH       Use an alternate configuration file
  --status            Show the connect view and tunnel settings
  --watch             Print every view update until interrupted
  --connect           Connect and wait for the tunnel
  --reconnect         Reconnect and wait for the tunnel
  --disconnect        Disconnect the tunnel
  --detail            Show the expanded tunnel detail
  --enable-dns        Enable custom DNS (asks for confirmation)
  --disable-dns       Disable custom DNS
  --add-dns ADDR      Add a custom DNS server
  --remove-dns ADDR   Remove a custom DNS server
  --mtu N             Set the WireGuard MTU (1280-1420, 0 for default)
  --set-token TOKEN   Store the account token in the system keyring
  --account           Open the account page for the stored token
  --help              Show this help message

Examples:
  vpn-connect --connect --watch
  vpn-connect --add-dns 192.168.1.1
  vpn-connect --mtu 1380

Notes:
  - Confirmations need an interactive terminal
  - Desktop notifications follow desktop_notifications in the config`)
}
