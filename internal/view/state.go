package view

import (
	"sync"

	"github.com/matheus3301/volchat/internal/bus"
	"github.com/matheus3301/volchat/internal/chat"
)

// Screen is the section of the client the user is looking at.
type Screen string

const (
	ScreenHome          Screen = "home"
	ScreenMessages      Screen = "messages"
	ScreenNotifications Screen = "notifications"
)

// Header is the title area of the conversation pane.
type Header struct {
	Title     string
	AvatarURL string
}

// Conversation is one chat thread and its received messages.
type Conversation struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Messages    []chat.Message
	Unseen      bool
}

// Appended is the payload of a conversation.message_appended event.
type Appended struct {
	ConversationID string
	Seq            int
	Message        chat.Message
}

// State holds every conversation, the active conversation pointer and the
// surrounding view flags. It is safe for concurrent use.
type State struct {
	mu             sync.RWMutex
	currentUser    string
	order          []string
	convs          map[string]*Conversation
	active         string
	header         Header
	composeVisible bool
	screen         Screen
	scrollSeq      uint64

	bus       *bus.Bus
	refreshCh chan struct{}
}

// NewState creates an empty view state for the signed-in user.
func NewState(currentUserID string, b *bus.Bus) *State {
	return &State{
		currentUser: currentUserID,
		convs:       make(map[string]*Conversation),
		screen:      ScreenHome,
		bus:         b,
		refreshCh:   make(chan struct{}, 1),
	}
}

// CurrentUser returns the signed-in user's id.
func (s *State) CurrentUser() string { return s.currentUser }

// RefreshCh signals that the state changed and the view should re-render.
func (s *State) RefreshCh() <-chan struct{} { return s.refreshCh }

func (s *State) signalRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

func (s *State) publish(evt bus.Event) {
	if s.bus != nil {
		s.bus.Publish(evt)
	}
}

// lookup returns the conversation for id, creating it when absent. Callers hold s.mu.
func (s *State) lookup(id string) *Conversation {
	if c, ok := s.convs[id]; ok {
		return c
	}
	c := &Conversation{ID: id, DisplayName: id}
	s.convs[id] = c
	s.order = append(s.order, id)
	return c
}

// AddConversation lists a conversation. Listing an existing id only refreshes
// its non-empty display fields.
func (s *State) AddConversation(id, displayName, avatarURL string) {
	s.mu.Lock()
	c := s.lookup(id)
	if displayName != "" {
		c.DisplayName = displayName
	}
	if avatarURL != "" {
		c.AvatarURL = avatarURL
	}
	s.mu.Unlock()
	s.signalRefresh()
}

// Seed installs previously stored history for a conversation that has not
// received anything yet. It reports whether the history was installed.
func (s *State) Seed(id string, history []chat.Message) bool {
	s.mu.Lock()
	c := s.lookup(id)
	if len(c.Messages) > 0 || len(history) == 0 {
		s.mu.Unlock()
		return false
	}
	c.Messages = append(make([]chat.Message, 0, len(history)), history...)
	s.mu.Unlock()
	s.signalRefresh()
	return true
}

// Deliver appends m to the conversation. It has the chat.Dispatch signature so
// the registry can hand messages straight to the view.
func (s *State) Deliver(conversationID string, m chat.Message) {
	s.mu.Lock()
	c := s.lookup(conversationID)
	c.Messages = append(c.Messages, m)
	seq := len(c.Messages)
	if s.active != conversationID {
		c.Unseen = true
	}
	s.mu.Unlock()

	s.publish(bus.Event{
		Kind: bus.ConversationMessageAppended,
		Key:  conversationID,
		Payload: Appended{
			ConversationID: conversationID,
			Seq:            seq,
			Message:        m,
		},
	})
	s.signalRefresh()
}

// Select makes id the active conversation, clears its unseen flag, updates
// the header and reveals the compose input. Empty display fields fall back
// to the listed ones.
func (s *State) Select(id, displayName, avatarURL string) {
	s.mu.Lock()
	c := s.lookup(id)
	if displayName == "" {
		displayName = c.DisplayName
	}
	if avatarURL == "" {
		avatarURL = c.AvatarURL
	}
	s.active = id
	c.Unseen = false
	s.header = Header{Title: displayName, AvatarURL: avatarURL}
	s.composeVisible = true
	s.scrollSeq++
	s.mu.Unlock()

	s.publish(bus.Event{Kind: bus.ConversationSelected, Key: id})
	s.signalRefresh()
}

// Active returns the active conversation id, or "" when none is shown.
func (s *State) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Unseen reports the unseen flag of a conversation.
func (s *State) Unseen(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[id]
	return ok && c.Unseen
}

// Messages returns a copy of a conversation's message sequence.
func (s *State) Messages(id string) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[id]
	if !ok {
		return nil
	}
	return append([]chat.Message(nil), c.Messages...)
}

// Has reports whether a conversation is known.
func (s *State) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.convs[id]
	return ok
}

// SetScreen records which section the user is viewing.
func (s *State) SetScreen(sc Screen) {
	s.mu.Lock()
	s.screen = sc
	s.mu.Unlock()
	s.signalRefresh()
}

// Screen returns the section the user is viewing.
func (s *State) Screen() Screen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen
}

// InMessaging reports whether the messaging section is on screen.
func (s *State) InMessaging() bool {
	return s.Screen() == ScreenMessages
}

// ConversationSnapshot is an immutable copy of one conversation.
type ConversationSnapshot struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Messages    []chat.Message
	Unseen      bool
}

// Snapshot is an immutable copy of the whole view state.
type Snapshot struct {
	CurrentUser    string
	Active         string
	Header         Header
	ComposeVisible bool
	Screen         Screen
	ScrollSeq      uint64
	Conversations  []ConversationSnapshot
}

// Snapshot copies the state for rendering. Message slices are shared but
// capacity-capped, so later appends never show through.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		CurrentUser:    s.currentUser,
		Active:         s.active,
		Header:         s.header,
		ComposeVisible: s.composeVisible,
		Screen:         s.screen,
		ScrollSeq:      s.scrollSeq,
		Conversations:  make([]ConversationSnapshot, 0, len(s.order)),
	}
	for _, id := range s.order {
		c := s.convs[id]
		n := len(c.Messages)
		snap.Conversations = append(snap.Conversations, ConversationSnapshot{
			ID:          c.ID,
			DisplayName: c.DisplayName,
			AvatarURL:   c.AvatarURL,
			Messages:    c.Messages[:n:n],
			Unseen:      c.Unseen,
		})
	}
	return snap
}
