package vpn

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"
)

// CommandKind identifies a daemon command.
type CommandKind int

const (
	CmdConnect CommandKind = iota
	CmdDisconnect
	CmdReconnect
	CmdCancel
	CmdSetMTU
	CmdEnableCustomDNS
	CmdDisableCustomDNS
	CmdAddCustomDNSServer
	CmdRemoveCustomDNSServer
)

func (k CommandKind) String() string {
	switch k {
	case CmdConnect:
		return "connect"
	case CmdDisconnect:
		return "disconnect"
	case CmdReconnect:
		return "reconnect"
	case CmdCancel:
		return "cancel"
	case CmdSetMTU:
		return "set-mtu"
	case CmdEnableCustomDNS:
		return "enable-custom-dns"
	case CmdDisableCustomDNS:
		return "disable-custom-dns"
	case CmdAddCustomDNSServer:
		return "add-custom-dns-server"
	case CmdRemoveCustomDNSServer:
		return "remove-custom-dns-server"
	default:
		return "unknown"
	}
}

// Command is a request sent to the tunnel daemon. Completion is observed
// only through the next tunnel state.
type Command struct {
	// ID correlates the command across log lines.
	ID   uuid.UUID
	Kind CommandKind
	// MTU is used by CmdSetMTU. Zero restores the daemon default.
	MTU int
	// DNSServer is used by the custom DNS server commands.
	DNSServer netip.Addr
}

// NewCommand creates a command of the given kind with a fresh ID.
func NewCommand(kind CommandKind) Command {
	return Command{ID: uuid.New(), Kind: kind}
}

// SetMTU creates a CmdSetMTU command.
func SetMTU(mtu int) Command {
	cmd := NewCommand(CmdSetMTU)
	cmd.MTU = mtu
	return cmd
}

// AddCustomDNSServer creates a CmdAddCustomDNSServer command.
func AddCustomDNSServer(addr netip.Addr) Command {
	cmd := NewCommand(CmdAddCustomDNSServer)
	cmd.DNSServer = addr
	return cmd
}

// RemoveCustomDNSServer creates a CmdRemoveCustomDNSServer command.
func RemoveCustomDNSServer(addr netip.Addr) Command {
	cmd := NewCommand(CmdRemoveCustomDNSServer)
	cmd.DNSServer = addr
	return cmd
}

func (c Command) String() string {
	short := c.ID.String()[:8]
	switch c.Kind {
	case CmdSetMTU:
		return fmt.Sprintf("%s(%d) [%s]", c.Kind, c.MTU, short)
	case CmdAddCustomDNSServer, CmdRemoveCustomDNSServer:
		return fmt.Sprintf("%s(%s) [%s]", c.Kind, c.DNSServer, short)
	default:
		return fmt.Sprintf("%s [%s]", c.Kind, short)
	}
}
