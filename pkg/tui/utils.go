package tui

import (
	"os/exec"
	"runtime"

	"walletdash/pkg/models"

	"github.com/charmbracelet/lipgloss"
)

func (m model) maskString(s string) string {
	if m.privacyMode {
		return "****"
	}
	return s
}

func (m model) maskAddress(addr string) string {
	if m.privacyMode {
		return "0x**...**"
	}
	return addr
}

func (m model) statusStyle() lipgloss.Style {
	switch m.statusLevel {
	case models.LevelError:
		return errStyle
	case models.LevelWarning:
		return warnStyle
	case models.LevelSuccess:
		return infoStyle
	default:
		return subtleStyle
	}
}

// openBrowser opens the specified URL in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}
