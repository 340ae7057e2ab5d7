package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/volchat/internal/tui/ui"
	"github.com/matheus3301/volchat/internal/view"
	"github.com/rivo/tview"
	"github.com/rivo/uniseg"
)

const (
	defaultThreadWidth = 80
	minBubbleWidth     = 20
	placeholderText    = "Select a conversation to start chatting"
)

// MessageThread displays the active conversation and the composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	header   *tview.TextView
	messages *tview.TextView
	composer *tview.InputField
	onSend   func(text string)

	conversationID string
	composeShown   bool
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	header := tview.NewTextView().
		SetDynamicColors(true)
	header.SetBackgroundColor(theme.BgColor)
	header.SetBorderPadding(0, 0, 1, 1)

	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 0, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		header:   header,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || mt.onSend == nil {
			return
		}
		text := composer.GetText()
		if strings.TrimSpace(text) == "" {
			return
		}
		mt.onSend(text)
		composer.SetText("")
	})

	return mt
}

// SetOnSend sets the callback for submitted composer text.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// ConversationID returns the conversation on display, or "".
func (mt *MessageThread) ConversationID() string { return mt.conversationID }

// ComposeVisible reports whether the composer is shown.
func (mt *MessageThread) ComposeVisible() bool { return mt.composeShown }

// Update renders the active list of f.
func (mt *MessageThread) Update(f view.Frame) {
	mt.header.Clear()
	mt.messages.Clear()

	list, ok := f.Active()
	if f.Placeholder || !ok {
		mt.conversationID = ""
		mt.messages.SetTitle(" Messages ")
		mt.messages.SetTextAlign(tview.AlignCenter)
		_, _ = fmt.Fprintf(mt.messages, "\n\n[%s]%s[-]", ui.Hex(mt.theme.MutedColor), placeholderText)
		mt.setComposeVisible(false)
		return
	}

	mt.conversationID = list.ConversationID
	title := f.Header.Title
	if title == "" {
		title = list.Title
	}
	mt.messages.SetTitle(fmt.Sprintf(" %s ", tview.Escape(title)))
	mt.messages.SetTextAlign(tview.AlignLeft)
	if f.Header.AvatarURL != "" {
		_, _ = fmt.Fprintf(mt.header, "[%s]%s[-]", ui.Hex(mt.theme.MutedColor), tview.Escape(f.Header.AvatarURL))
	}

	width := mt.width()
	var b strings.Builder
	for _, e := range list.Entries {
		writeEntry(&b, e, width, mt.theme)
	}
	_, _ = fmt.Fprint(mt.messages, b.String())
	mt.setComposeVisible(f.ComposeVisible)
}

// ScrollToEnd scrolls the message list to the newest message.
func (mt *MessageThread) ScrollToEnd() {
	mt.messages.ScrollToEnd()
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}

func (mt *MessageThread) setComposeVisible(v bool) {
	if v == mt.composeShown {
		return
	}
	mt.composeShown = v
	if v {
		mt.ResizeItem(mt.composer, 3, 0)
	} else {
		mt.ResizeItem(mt.composer, 0, 0)
	}
}

func (mt *MessageThread) width() int {
	_, _, w, _ := mt.messages.GetInnerRect()
	// Not laid out yet.
	if w < minBubbleWidth {
		return defaultThreadWidth
	}
	return w
}

// writeEntry renders one bubble: a sender line and the wrapped body, flush
// right for the current user's messages.
func writeEntry(b *strings.Builder, e view.Entry, width int, theme *ui.Theme) {
	bubble := max(width*2/3, minBubbleWidth)
	color := theme.OtherColor
	if e.Self {
		color = theme.SelfColor
	}

	head := e.Sender
	if e.Time != "" {
		head += "  " + e.Time
	}
	writeLine(b, fmt.Sprintf("[%s::b]%s[-:-:-]", ui.Hex(color), tview.Escape(head)), uniseg.StringWidth(head), e.Align, width)
	for _, line := range wrap(e.Body, bubble) {
		writeLine(b, tview.Escape(line), uniseg.StringWidth(line), e.Align, width)
	}
	b.WriteByte('\n')
}

func writeLine(b *strings.Builder, styled string, visible int, align view.Align, width int) {
	if align == view.AlignRight && visible < width {
		b.WriteString(strings.Repeat(" ", width-visible))
	}
	b.WriteString(styled)
	b.WriteByte('\n')
}

// wrap breaks s into lines of at most width cells, on spaces where possible.
func wrap(s string, width int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line, lineWidth := "", 0
		for _, w := range words {
			for _, piece := range splitWide(w, width) {
				pw := uniseg.StringWidth(piece)
				switch {
				case lineWidth == 0:
					line, lineWidth = piece, pw
				case lineWidth+1+pw <= width:
					line, lineWidth = line+" "+piece, lineWidth+1+pw
				default:
					lines = append(lines, line)
					line, lineWidth = piece, pw
				}
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// splitWide cuts a word wider than width at grapheme boundaries.
func splitWide(word string, width int) []string {
	if uniseg.StringWidth(word) <= width {
		return []string{word}
	}
	var parts []string
	var cur strings.Builder
	curWidth := 0
	g := uniseg.NewGraphemes(word)
	for g.Next() {
		w := g.Width()
		if curWidth+w > width && curWidth > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curWidth = 0
		}
		cur.WriteString(g.Str())
		curWidth += w
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
