package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/volchat/internal/transport"
)

// Kind identifies one of the two notification streams.
type Kind string

const (
	KindGeneric Kind = "generic"
	KindMessage Kind = "message"
)

// Kinds lists every notification stream in start order.
var Kinds = []Kind{KindGeneric, KindMessage}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGeneric, KindMessage:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown notification kind %q", s)
}

// Path returns the websocket path the stream is served on.
func (k Kind) Path() string {
	if k == KindMessage {
		return transport.MessageNotificationsPath
	}
	return transport.NotificationsPath
}

// DefaultTitle is shown when a frame carries no title.
func (k Kind) DefaultTitle() string {
	if k == KindMessage {
		return "New Message"
	}
	return "New Notification"
}

// Event is one parsed notification.
type Event struct {
	Kind       Kind
	Title      string
	Body       string
	ReceivedAt time.Time
}

// ParseError describes a notification frame that could not be used.
type ParseError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s notification frame: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s notification frame: %s", e.Kind, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

type frame struct {
	Title   *string `json:"title"`
	Message *string `json:"message"`
}

// ParseFrame decodes a {"title", "message"} frame. The message field is
// required; a missing or blank title falls back to the kind's default.
func ParseFrame(kind Kind, data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Event{}, &ParseError{Kind: kind, Reason: "invalid json", Err: err}
	}
	if f.Message == nil {
		return Event{}, &ParseError{Kind: kind, Reason: "missing message"}
	}
	title := kind.DefaultTitle()
	if f.Title != nil && strings.TrimSpace(*f.Title) != "" {
		title = *f.Title
	}
	return Event{
		Kind:       kind,
		Title:      title,
		Body:       *f.Message,
		ReceivedAt: time.Now(),
	}, nil
}
