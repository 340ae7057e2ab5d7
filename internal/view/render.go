package view

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/matheus3301/volchat/internal/chat"
)

// TimestampLayout is the short month/day/hour/minute form used on bubbles.
const TimestampLayout = "Jan 2, 3:04 PM"

// Avatars holds the role-based fallback images.
type Avatars struct {
	Volunteer    string
	Organization string
}

// Align is the horizontal placement of a bubble.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Entry is one rendered message bubble.
type Entry struct {
	Align  Align
	Self   bool
	Sender string
	Body   string
	Time   string
	Avatar string
}

// ListFrame is the rendered message list of one conversation.
type ListFrame struct {
	ConversationID string
	Title          string
	Unseen         bool
	Visible        bool
	Entries        []Entry
}

// Frame is the complete rendered view.
type Frame struct {
	Header         Header
	Placeholder    bool
	ComposeVisible bool
	ScrollSeq      uint64
	Lists          []ListFrame
}

// Active returns the visible list, if any.
func (f Frame) Active() (ListFrame, bool) {
	for _, l := range f.Lists {
		if l.Visible {
			return l, true
		}
	}
	return ListFrame{}, false
}

// Render turns a snapshot into a frame. Only the active conversation's list
// is visible; the placeholder shows while nothing is selected.
func Render(s Snapshot, av Avatars, loc *time.Location) Frame {
	f := Frame{
		Header:         Header{Title: Clean(s.Header.Title), AvatarURL: s.Header.AvatarURL},
		Placeholder:    s.Active == "",
		ComposeVisible: s.ComposeVisible && s.Active != "",
		ScrollSeq:      s.ScrollSeq,
		Lists:          make([]ListFrame, 0, len(s.Conversations)),
	}
	for _, c := range s.Conversations {
		lf := ListFrame{
			ConversationID: c.ID,
			Title:          Clean(c.DisplayName),
			Unseen:         c.Unseen,
			Visible:        c.ID == s.Active,
			Entries:        make([]Entry, 0, len(c.Messages)),
		}
		for _, m := range c.Messages {
			lf.Entries = append(lf.Entries, RenderEntry(m, s.CurrentUser, av, loc))
		}
		f.Lists = append(f.Lists, lf)
	}
	return f
}

// RenderEntry renders one message relative to the current user.
func RenderEntry(m chat.Message, currentUser string, av Avatars, loc *time.Location) Entry {
	self := currentUser != "" && m.Sender == currentUser
	e := Entry{
		Align:  AlignLeft,
		Self:   self,
		Body:   Clean(m.Body),
		Time:   FormatTimestamp(m.Timestamp, loc),
		Avatar: AvatarFor(m, av),
	}
	switch {
	case self:
		e.Align = AlignRight
		e.Sender = "You"
	case m.SenderName != "":
		e.Sender = Clean(m.SenderName)
	default:
		e.Sender = m.Sender
	}
	return e
}

// FormatTimestamp formats t in loc (local time when nil).
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(TimestampLayout)
}

// AvatarFor returns the sender's image, or the default for the sender's role.
// Senders of unknown role get the volunteer default.
func AvatarFor(m chat.Message, av Avatars) string {
	if m.SenderProfileImg != "" {
		return m.SenderProfileImg
	}
	if m.Role == chat.RoleOrganization {
		return av.Organization
	}
	return av.Volunteer
}

// Clean strips code points that break terminal cell layout: skin tone
// modifiers, zero width joiners, variation selectors and control characters
// other than newline and tab.
func Clean(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if dropRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dropRune(r rune) bool {
	switch {
	case r == '\n' || r == '\t':
		return false
	case unicode.IsControl(r):
		return true
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}
