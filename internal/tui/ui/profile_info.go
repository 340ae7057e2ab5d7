package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// ProfileData holds the header summary.
type ProfileData struct {
	Profile       string
	UserID        string
	BaseURL       string
	Conversations int
	OpenChannels  int
	Channels      int
	Uptime        time.Duration
}

// ProfileInfo displays profile metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &ProfileInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders d.
func (pi *ProfileInfo) Update(d ProfileData) {
	pi.Clear()

	fg := colorName(pi.theme.FgColor)
	val := colorName(pi.theme.CounterColor)
	row := func(label, value string) {
		_, _ = fmt.Fprintf(pi, "[%s::b]%-8s[-:-:-] [%s]%s[-]\n", fg, label+":", val, tview.Escape(value))
	}
	row("Profile", d.Profile)
	row("User", orDash(d.UserID))
	row("Server", orDash(d.BaseURL))
	row("Chats", fmt.Sprintf("%d (%d/%d open)", d.Conversations, d.OpenChannels, d.Channels))
	row("Uptime", formatDuration(d.Uptime))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
