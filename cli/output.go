package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/yllada/vpn-connect/connect"
	"github.com/yllada/vpn-connect/notify"
	"github.com/yllada/vpn-connect/vpn"
)

// styles renders CLI output. Colors are dropped when the output is not a
// terminal.
type styles struct {
	secured   lipgloss.Style
	unsecured lipgloss.Style
	progress  lipgloss.Style
	warning   lipgloss.Style
	failure   lipgloss.Style
	faint     lipgloss.Style
	bold      lipgloss.Style
}

func newStyles(out io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(out)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		secured:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		unsecured: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		progress:  r.NewStyle().Foreground(lipgloss.Color("3")),
		warning:   r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		failure:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		faint:     r.NewStyle().Faint(true),
		bold:      r.NewStyle().Bold(true),
	}
}

// headline is the connection title shown above the switch button.
func headline(s connect.Snapshot) string {
	switch st := s.DisplayedState.(type) {
	case vpn.Connected:
		return "Secure connection"
	case vpn.Connecting:
		return "Creating secure connection"
	case vpn.Disconnecting:
		if st.Next == vpn.ActionReconnect {
			return "Creating secure connection"
		}
		if st.Next == vpn.ActionBlock {
			return "Blocked connection"
		}
		return "Unsecured connection"
	case vpn.Error:
		if st.IsBlocking {
			return "Blocked connection"
		}
		return "Unsecured connection"
	default:
		return "Unsecured connection"
	}
}

// locationName is the relay name when ShowLocation is set, otherwise the
// generic switch location label.
func locationName(s connect.Snapshot) string {
	if s.ShowLocation {
		if name := s.RelayLocation.LocationName(); name != "" {
			return name
		}
	}
	return "Switch location"
}

// renderSnapshot renders a snapshot as a single status line followed by
// the optional detail and notification lines.
func (st styles) renderSnapshot(s connect.Snapshot, now time.Time) string {
	var b strings.Builder

	status := vpn.StatusOf(s.DisplayedState).String()
	switch {
	case s.ShowsProgress():
		status = st.progress.Render(status)
	case s.IsSecured():
		status = st.secured.Render(status)
	default:
		status = st.unsecured.Render(status)
	}
	fmt.Fprintf(&b, "%s  %s  %s", status, st.bold.Render(headline(s)), locationName(s))

	if s.LocationInfoVisible() {
		fmt.Fprintf(&b, "\n  %s %s", st.faint.Render("host"), s.Location.Hostname)
		if s.IsDetailExpanded {
			if s.InAddress != nil {
				fmt.Fprintf(&b, "\n  %s %s %s", st.faint.Render("in "), s.InAddress.Address, s.InAddress.Protocol)
			}
			if s.OutAddress != "" {
				fmt.Fprintf(&b, "\n  %s %s", st.faint.Render("out"), s.OutAddress)
			}
		}
	}

	if n := notify.Describe(s.Notification, now); n.Title != "" {
		line := n.Title + ": " + n.Message
		if n.Type == notify.NotificationError {
			line = st.failure.Render(line)
		} else {
			line = st.warning.Render(line)
		}
		fmt.Fprintf(&b, "\n  %s", line)
	}
	return b.String()
}

// maskToken keeps only the last four characters of an account token.
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
