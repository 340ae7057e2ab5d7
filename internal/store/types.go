package store

// Conversation is an archived chat thread.
type Conversation struct {
	ID                 string
	DisplayName        string
	AvatarURL          string
	LastMessageAt      int64 // unix millis
	LastMessagePreview string
	LastReadAt         int64
	MessageCount       int
	UnreadCount        int
}

// Message is an archived chat message.
type Message struct {
	ID               int64
	ConversationID   string
	MsgKey           string
	Seq              int
	Sender           string
	SenderName       string
	Body             string
	SenderProfileImg string
	Role             string
	Timestamp        int64 // unix millis
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
