package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the sender's account type, used to pick a default avatar.
type Role int

const (
	RoleUnknown Role = iota
	RoleVolunteer
	RoleOrganization
)

func (r Role) String() string {
	switch r {
	case RoleVolunteer:
		return "volunteer"
	case RoleOrganization:
		return "organization"
	default:
		return "unknown"
	}
}

// ParseRole is the inverse of Role.String. Unrecognized names yield RoleUnknown.
func ParseRole(s string) Role {
	switch s {
	case "volunteer":
		return RoleVolunteer
	case "organization":
		return RoleOrganization
	default:
		return RoleUnknown
	}
}

// Message is one received chat message. It is immutable once parsed.
type Message struct {
	Sender           string
	SenderName       string
	Body             string
	Timestamp        time.Time
	SenderProfileImg string
	Role             Role
}

// ParseError describes an inbound frame that could not be turned into a Message.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse chat frame: %s: %v", e.Reason, e.Err)
	}
	return "parse chat frame: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

type inboundFrame struct {
	Sender           json.RawMessage `json:"sender"`
	SenderName       string          `json:"sender_name"`
	Message          *string         `json:"message"`
	Timestamp        *string         `json:"timestamp"`
	SenderProfileImg *string         `json:"sender_profile_img"`
	IsVolunteer      *bool           `json:"is_volunteer"`
}

type outboundFrame struct {
	Message string `json:"message"`
}

// ParseFrame decodes an inbound chat frame. sender, message and timestamp are
// required; the display metadata is optional.
func ParseFrame(data []byte) (Message, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return Message{}, &ParseError{Reason: "invalid json", Err: err}
	}

	sender, err := idString(f.Sender)
	if err != nil {
		return Message{}, &ParseError{Reason: "sender", Err: err}
	}
	if f.Message == nil {
		return Message{}, &ParseError{Reason: "missing message"}
	}
	if f.Timestamp == nil {
		return Message{}, &ParseError{Reason: "missing timestamp"}
	}
	ts, err := ParseTimestamp(*f.Timestamp)
	if err != nil {
		return Message{}, &ParseError{Reason: "timestamp", Err: err}
	}

	m := Message{
		Sender:     sender,
		SenderName: f.SenderName,
		Body:       *f.Message,
		Timestamp:  ts,
	}
	if f.SenderProfileImg != nil {
		m.SenderProfileImg = *f.SenderProfileImg
	}
	if f.IsVolunteer != nil {
		if *f.IsVolunteer {
			m.Role = RoleVolunteer
		} else {
			m.Role = RoleOrganization
		}
	}
	return m, nil
}

// EncodeOutbound wraps compose text into the outbound frame.
func EncodeOutbound(text string) ([]byte, error) {
	return json.Marshal(outboundFrame{Message: text})
}

// idString accepts the sender id as a JSON string or number.
func idString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("missing")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", errors.New("empty")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("want string or number, got %s", raw)
	}
	return n.String(), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses ISO8601 timestamps as produced by the server.
// Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
