package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matheus3301/volchat/internal/chat"
)

// ID is an identifier the server may encode as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: want string or number, got %s", data)
	}
	*id = ID(n.String())
	return nil
}

// Volunteer is the volunteer profile of an account.
type Volunteer struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	ProfileImg *string `json:"profile_img"`
}

// Organization is the organization profile of an account.
type Organization struct {
	Name       string  `json:"organization_name"`
	ProfileImg *string `json:"organization_profile_img"`
}

// Participant is one side of a conversation.
type Participant struct {
	AccountUUID  ID            `json:"account_uuid"`
	Volunteer    *Volunteer    `json:"volunteer"`
	Organization *Organization `json:"organization"`
}

// DisplayName returns the volunteer's full name or the organization name.
func (p Participant) DisplayName() string {
	switch {
	case p.Volunteer != nil:
		return strings.TrimSpace(p.Volunteer.FirstName + " " + p.Volunteer.LastName)
	case p.Organization != nil:
		return p.Organization.Name
	default:
		return "Unknown"
	}
}

// AvatarURL returns the profile image, or "" when none is set.
func (p Participant) AvatarURL() string {
	switch {
	case p.Volunteer != nil && p.Volunteer.ProfileImg != nil:
		return *p.Volunteer.ProfileImg
	case p.Organization != nil && p.Organization.ProfileImg != nil:
		return *p.Organization.ProfileImg
	default:
		return ""
	}
}

// Role returns the account type.
func (p Participant) Role() chat.Role {
	switch {
	case p.Volunteer != nil:
		return chat.RoleVolunteer
	case p.Organization != nil:
		return chat.RoleOrganization
	default:
		return chat.RoleUnknown
	}
}

// Chat is a conversation as listed by the server.
type Chat struct {
	ChatID        ID          `json:"chat_id"`
	Participant1  Participant `json:"participant_1"`
	Participant2  Participant `json:"participant_2"`
	LastUpdatedAt string      `json:"last_updated_at"`
	LastMessage   *string     `json:"last_message"`
}

// Other returns the participant that is not userID.
func (c Chat) Other(userID string) Participant {
	if string(c.Participant1.AccountUUID) == userID {
		return c.Participant2
	}
	return c.Participant1
}

// participant returns the participant with the given account id.
func (c Chat) participant(id ID) (Participant, bool) {
	switch id {
	case c.Participant1.AccountUUID:
		return c.Participant1, true
	case c.Participant2.AccountUUID:
		return c.Participant2, true
	}
	return Participant{}, false
}

// Message is a stored chat message.
type Message struct {
	MessageID ID     `json:"message_id"`
	Chat      ID     `json:"chat"`
	Sender    ID     `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"is_read"`
}

// History converts stored messages into chat messages, filling in sender
// names and images from the conversation's participants. Messages with an
// unparseable timestamp are skipped.
func History(c Chat, msgs []Message) []chat.Message {
	out := make([]chat.Message, 0, len(msgs))
	for _, m := range msgs {
		ts, err := chat.ParseTimestamp(m.Timestamp)
		if err != nil {
			continue
		}
		cm := chat.Message{
			Sender:    string(m.Sender),
			Body:      m.Content,
			Timestamp: ts,
		}
		if p, ok := c.participant(m.Sender); ok {
			cm.SenderName = p.DisplayName()
			cm.SenderProfileImg = p.AvatarURL()
			cm.Role = p.Role()
		} else {
			cm.SenderName = "Unknown"
		}
		out = append(out, cm)
	}
	return out
}
