package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/volchat/internal/notify"
	"github.com/matheus3301/volchat/internal/tui/ui"
	"github.com/matheus3301/volchat/internal/view"
	"github.com/rivo/tview"
)

// NotificationsView lists every popup shown this session, newest first.
type NotificationsView struct {
	*tview.Table
	theme *ui.Theme
	log   []notify.Popup
}

// NewNotificationsView creates the notifications page.
func NewNotificationsView(theme *ui.Theme) *NotificationsView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Notifications ")
	table.SetTitleColor(theme.TitleColor)

	nv := &NotificationsView{Table: table, theme: theme}
	nv.render()
	return nv
}

// Name implements ui.Component.
func (nv *NotificationsView) Name() string { return "Notifications" }

// Screen implements ui.Component.
func (nv *NotificationsView) Screen() view.Screen { return view.ScreenNotifications }

// Hints implements ui.Component.
func (nv *NotificationsView) Hints() []ui.MenuHint { return nil }

// Update replaces the log with history, newest first.
func (nv *NotificationsView) Update(history []notify.Popup) {
	nv.log = history
	nv.render()
}

// Len returns the number of logged notifications.
func (nv *NotificationsView) Len() int { return len(nv.log) }

func (nv *NotificationsView) render() {
	nv.Clear()
	for col, h := range []string{" TIME", " KIND", " TITLE", " MESSAGE"} {
		exp := 0
		if col == 3 {
			exp = 1
		}
		nv.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(nv.theme.TableHeaderFg).
			SetBackgroundColor(nv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(exp))
	}
	for i, p := range nv.log {
		row := i + 1
		color := nv.theme.PopupGenericColor
		if p.Kind == notify.KindMessage {
			color = nv.theme.PopupMessageColor
		}
		nv.SetCell(row, 0, tview.NewTableCell(" "+p.ShownAt.Format(time.Kitchen)).SetTextColor(nv.theme.MutedColor))
		nv.SetCell(row, 1, tview.NewTableCell(" "+string(p.Kind)).SetTextColor(color))
		nv.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(view.Clean(p.Title))).SetTextColor(color).SetMaxWidth(30))
		nv.SetCell(row, 3, tview.NewTableCell(" "+tview.Escape(view.Clean(p.Body))).SetTextColor(nv.theme.FgColor).SetExpansion(1))
	}
	nv.SetTitle(fmt.Sprintf(" Notifications (%d) ", len(nv.log)))
}
