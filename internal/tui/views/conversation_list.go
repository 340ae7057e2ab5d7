package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/volchat/internal/core"
	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/tui/ui"
	"github.com/matheus3301/volchat/internal/view"
	"github.com/rivo/tview"
)

// ConversationList is the table of conversations on the messaging page.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	convs   []core.ConversationInfo
	visible []core.ConversationInfo
	filter  string
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
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
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
	}
}

// Update refreshes the list, keeping the cursor on the same conversation.
func (cl *ConversationList) Update(convs []core.ConversationInfo) {
	selected := cl.SelectedConversation()
	cl.convs = convs
	cl.render()
	cl.selectID(selected)
}

// SetFilter sets the active filter text and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
	cl.Select(1, 0)
}

// ClearFilter clears the active filter.
func (cl *ConversationList) ClearFilter() {
	cl.SetFilter("")
}

// Filter returns the active filter text.
func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" ", 0},
		{" NAME", 1},
		{" MSGS", 0},
		{" LINK", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	for _, c := range cl.convs {
		if cl.filter != "" && !containsFold(c.DisplayName, cl.filter) && !containsFold(c.ID, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, c)
		row := len(cl.visible)

		mark := ""
		switch {
		case c.Active:
			mark = "▸"
		case c.Unseen:
			mark = "●"
		}
		markColor := cl.theme.FgColor
		if c.Unseen {
			markColor = cl.theme.UnseenColor
		}
		name := view.Clean(c.DisplayName)
		nameCell := tview.NewTableCell(" " + tview.Escape(name)).SetExpansion(1).SetTextColor(cl.theme.FgColor)
		if c.Unseen {
			nameCell.SetAttributes(tcell.AttrBold)
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+mark).SetTextColor(markColor))
		cl.SetCell(row, 1, nameCell)
		cl.SetCell(row, 2, tview.NewTableCell(strconv.Itoa(c.MessageCount)).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 3, tview.NewTableCell(" "+stateLabel(c.State)).SetTextColor(stateColor(cl.theme, c.State)))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.convs), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.convs)))
	}
}

// SelectedConversation returns the id under the cursor, or "".
func (cl *ConversationList) SelectedConversation() string {
	row, _ := cl.GetSelection()
	return cl.ConversationByIndex(row)
}

// ConversationByIndex returns the id of the Nth visible conversation (1-based).
func (cl *ConversationList) ConversationByIndex(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.visible[n-1].ID
}

// FindByName returns the first conversation whose name or id contains q.
func (cl *ConversationList) FindByName(q string) string {
	for _, c := range cl.convs {
		if containsFold(c.DisplayName, q) || c.ID == q {
			return c.ID
		}
	}
	return ""
}

func (cl *ConversationList) selectID(id string) {
	if id == "" {
		return
	}
	for i, c := range cl.visible {
		if c.ID == id {
			cl.Select(i+1, 0)
			return
		}
	}
}

func stateLabel(s status.State) string {
	if s == "" {
		return "-"
	}
	return strings.ToLower(string(s))
}

func stateColor(theme *ui.Theme, s status.State) tcell.Color {
	switch s {
	case status.Open:
		return theme.StateOpenColor
	case status.Connecting:
		return theme.StatePendingColor
	case status.Closed:
		return theme.StateClosedColor
	default:
		return theme.MutedColor
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
