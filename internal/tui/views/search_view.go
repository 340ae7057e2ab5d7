package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/volchat/internal/store"
	"github.com/matheus3301/volchat/internal/tui/ui"
	"github.com/matheus3301/volchat/internal/view"
	"github.com/rivo/tview"
)

// SearchView lists archive search results.
type SearchView struct {
	*tview.Table
	theme *ui.Theme
	query string
	data  []store.SearchResult
	names func(id string) string
}

// NewSearchView creates a new search view. names maps a conversation id
// to its display name.
func NewSearchView(theme *ui.Theme, names func(id string) string) *SearchView {
	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitle(" Results ")
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	return &SearchView{Table: results, theme: theme, names: names}
}

// Name implements ui.Component.
func (sv *SearchView) Name() string { return "Search" }

// Screen implements ui.Component.
func (sv *SearchView) Screen() view.Screen { return "" }

// Hints implements ui.Component.
func (sv *SearchView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Enter", Description: "Open conversation"}}
}

// Update shows the results of query.
func (sv *SearchView) Update(query string, results []store.SearchResult) {
	sv.query = query
	sv.data = results
	sv.Clear()

	for col, h := range []string{" CONVERSATION", " SNIPPET", " TIME"} {
		sv.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	for i, r := range results {
		row := i + 1
		name := r.Message.ConversationID
		if sv.names != nil {
			name = sv.names(name)
		}
		ts := view.FormatTimestamp(time.UnixMilli(r.Message.Timestamp), nil)
		sv.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(view.Clean(name))).SetMaxWidth(25).SetTextColor(sv.theme.FgColor))
		sv.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(view.Clean(r.Snippet))).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.SetCell(row, 2, tview.NewTableCell(" "+ts).SetTextColor(sv.theme.MutedColor))
	}
	sv.SetTitle(fmt.Sprintf(" Results for %q (%d) ", tview.Escape(query), len(results)))
}

// SelectedConversation returns the conversation of the selected result.
func (sv *SearchView) SelectedConversation() string {
	row, _ := sv.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(sv.data) {
		return sv.data[idx].Message.ConversationID
	}
	return ""
}
