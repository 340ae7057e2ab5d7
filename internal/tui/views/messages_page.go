package views

import (
	"github.com/matheus3301/volchat/internal/tui/ui"
	"github.com/matheus3301/volchat/internal/view"
	"github.com/rivo/tview"
)

// MessagesPage is the messaging section: the conversation list beside the
// active thread.
type MessagesPage struct {
	*tview.Flex
	List   *ConversationList
	Thread *MessageThread
}

// NewMessagesPage creates the messaging page.
func NewMessagesPage(theme *ui.Theme) *MessagesPage {
	list := NewConversationList(theme)
	thread := NewMessageThread(theme)
	flex := tview.NewFlex().
		AddItem(list, 40, 0, true).
		AddItem(thread, 0, 1, false)
	return &MessagesPage{Flex: flex, List: list, Thread: thread}
}

// Name implements ui.Component.
func (mp *MessagesPage) Name() string { return "Messages" }

// Screen implements ui.Component.
func (mp *MessagesPage) Screen() view.Screen { return view.ScreenMessages }

// Hints implements ui.Component.
func (mp *MessagesPage) Hints() []ui.MenuHint { return nil }
