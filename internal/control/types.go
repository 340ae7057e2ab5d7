package control

import "time"

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Profile       string            `json:"profile"`
	UserID        string            `json:"user_id"`
	BaseURL       string            `json:"base_url"`
	StartedAt     time.Time         `json:"started_at"`
	Uptime        string            `json:"uptime"`
	Active        string            `json:"active_conversation,omitempty"`
	Screen        string            `json:"screen"`
	Channels      []ChannelStatus   `json:"channels"`
	Notifications map[string]string `json:"notifications"`
	Indicators    map[string]bool   `json:"indicators"`
	Popups        int               `json:"popups"`
}

// ChannelStatus is one chat channel in a StatusResponse.
type ChannelStatus struct {
	ConversationID string `json:"conversation_id"`
	ConnID         string `json:"conn_id"`
	State          string `json:"state"`
}

// Conversation is one entry of GET /conversations.
type Conversation struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Unseen       bool   `json:"unseen"`
	Active       bool   `json:"active"`
	MessageCount int    `json:"message_count"`
	State        string `json:"state,omitempty"`
}

// Message is an archived message.
type Message struct {
	ConversationID   string    `json:"conversation_id"`
	Seq              int       `json:"seq"`
	Sender           string    `json:"sender"`
	SenderName       string    `json:"sender_name,omitempty"`
	Body             string    `json:"body"`
	Timestamp        time.Time `json:"timestamp"`
	SenderProfileImg string    `json:"sender_profile_img,omitempty"`
	Role             string    `json:"role"`
}

// SearchHit is one entry of GET /search.
type SearchHit struct {
	Message Message `json:"message"`
	Snippet string  `json:"snippet"`
}

// SendRequest is the body of POST /conversations/{id}/messages.
type SendRequest struct {
	Text string `json:"text"`
}

// ConnectResponse is the body of POST /conversations/{id}/connect.
type ConnectResponse struct {
	ConversationID string `json:"conversation_id"`
	ConnID         string `json:"conn_id"`
	State          string `json:"state"`
}

// ClearResponse is the body of POST /indicators/{kind}/clear.
type ClearResponse struct {
	Kind    string `json:"kind"`
	Cleared bool   `json:"cleared"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
