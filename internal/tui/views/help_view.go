package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/volchat/internal/tui/ui"
	"github.com/matheus3301/volchat/internal/view"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Help" }

// Screen implements ui.Component.
func (hv *HelpView) Screen() view.Screen { return "" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint { return nil }

var helpSections = []struct {
	title string
	rows  [][2]string
}{
	{"Global", [][2]string{
		{"m", "Messages"},
		{"n", "Notifications (clears the unread dot)"},
		{"h", "Home"},
		{":", "Command mode"},
		{"?", "Search the archive"},
		{"Esc", "Back"},
		{"q", "Quit"},
	}},
	{"Messages", [][2]string{
		{"Enter", "Open conversation"},
		{"/", "Filter conversations"},
		{"1-9", "Open Nth conversation"},
		{"Tab", "Switch between list and thread"},
		{"i", "Focus composer"},
		{"Enter", "Send (in composer)"},
	}},
	{"Commands", [][2]string{
		{":open <name>", "Open a conversation by name or id"},
		{":connect <id>", "Connect a conversation not in the list"},
		{":search <text>", "Search the archive"},
		{":messages / :notifications / :home", "Switch section"},
		{":help", "This page"},
		{":quit", "Quit"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.Hex(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "  [%s]%-36s[-:-:-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
