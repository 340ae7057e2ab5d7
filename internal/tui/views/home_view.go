package views

import (
	"fmt"

	"github.com/matheus3301/volchat/internal/notify"
	"github.com/matheus3301/volchat/internal/tui/ui"
	"github.com/matheus3301/volchat/internal/view"
	"github.com/rivo/tview"
)

// HomeView is the landing page: unread indicators and channel health.
type HomeView struct {
	*tview.TextView
	theme *ui.Theme
}

// HomeData is what the landing page shows.
type HomeData struct {
	Indicators    map[notify.Kind]bool
	Notifications map[notify.Kind]string
	Unseen        int
}

// NewHomeView creates the landing page.
func NewHomeView(theme *ui.Theme) *HomeView {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Home ")
	tv.SetTitleColor(theme.TitleColor)
	return &HomeView{TextView: tv, theme: theme}
}

// Name implements ui.Component.
func (hv *HomeView) Name() string { return "Home" }

// Screen implements ui.Component.
func (hv *HomeView) Screen() view.Screen { return view.ScreenHome }

// Hints implements ui.Component.
func (hv *HomeView) Hints() []ui.MenuHint { return nil }

// Update renders d.
func (hv *HomeView) Update(d HomeData) {
	hv.Clear()
	fg := ui.Hex(hv.theme.FgColor)
	dot := fmt.Sprintf("[%s]●[-]", ui.Hex(hv.theme.IndicatorColor))

	_, _ = fmt.Fprintf(hv, "\n [%s::b]Unread[-:-:-]\n", fg)
	for _, k := range notify.Kinds {
		mark := " "
		if d.Indicators[k] {
			mark = dot
		}
		_, _ = fmt.Fprintf(hv, "   %s %s\n", mark, kindLabel(k))
	}
	_, _ = fmt.Fprintf(hv, "   %d conversation(s) with unseen messages\n", d.Unseen)

	_, _ = fmt.Fprintf(hv, "\n [%s::b]Notification streams[-:-:-]\n", fg)
	for _, k := range notify.Kinds {
		state := d.Notifications[k]
		if state == "" {
			state = "-"
		}
		_, _ = fmt.Fprintf(hv, "   %-14s %s\n", kindLabel(k), state)
	}
}

func kindLabel(k notify.Kind) string {
	switch k {
	case notify.KindMessage:
		return "Messages"
	default:
		return "Notifications"
	}
}
