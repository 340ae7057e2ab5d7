package bus

import "time"

// Event kinds published by the realtime core.
const (
	ChannelStateChanged         = "channel.state_changed"
	ConversationMessageAppended = "conversation.message_appended"
	ConversationSelected        = "conversation.selected"
	NotifyReceived              = "notify.received"
	NotifySuppressed            = "notify.suppressed"
	ArchiveMessageStored        = "archive.message_stored"
	ArchiveHistoryStored        = "archive.history_stored"
)

// Event is a domain event published on the bus. Key scopes the event to a
// conversation id or notification kind; it is empty for global events.
type Event struct {
	Kind      string
	Key       string
	Timestamp time.Time
	Payload   any
}
