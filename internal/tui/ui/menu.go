package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Menu displays the current page's shortcuts, one per line.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders page hints followed by global ones.
func (m *Menu) Update(page, global []MenuHint) {
	m.Clear()
	kc := colorName(m.theme.MenuKeyColor)
	for _, h := range append(append([]MenuHint(nil), page...), global...) {
		_, _ = fmt.Fprintf(m, "[%s::b]<%s>[-:-:-] %s\n", kc, tview.Escape(h.Key), h.Description)
	}
}
