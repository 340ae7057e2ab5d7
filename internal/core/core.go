// Package core wires the realtime pieces into one client: the chat registry,
// the notification hub, the conversation view and the local archive.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/volchat/internal/api"
	"github.com/matheus3301/volchat/internal/archive"
	"github.com/matheus3301/volchat/internal/chat"
	"github.com/matheus3301/volchat/internal/config"
	"github.com/matheus3301/volchat/internal/notify"
	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/store"
	"github.com/matheus3301/volchat/internal/view"
	"go.uber.org/zap"
)

const (
	markReadTimeout = 10 * time.Second
	archiveSeedSize = 200
)

var (
	// ErrUnknownConversation is returned for a conversation id the client has
	// never listed or received.
	ErrUnknownConversation = errors.New("unknown conversation")
	// ErrArchiveDisabled is returned by archive reads when no store is wired.
	ErrArchiveDisabled = errors.New("archive disabled")
)

// ChatAPI is the subset of the REST client the core uses.
type ChatAPI interface {
	ListChats(ctx context.Context) ([]api.Chat, error)
	ListMessages(ctx context.Context, chatID string) ([]api.Message, error)
	MarkRead(ctx context.Context, chatID string) error
}

// Options configures a Core.
type Options struct {
	ProfileName string
	Profile     config.Profile
}

// Core is the running client.
type Core struct {
	opts       Options
	state      *view.State
	registry   *chat.Registry
	hub        *notify.Hub
	indicators *notify.Indicators
	presenter  *notify.Presenter
	api        ChatAPI
	archive    *archive.Engine
	db         *store.DB
	logger     *zap.Logger
	startedAt  time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Deps are the collaborators of a Core. API, Archive and DB may be nil.
type Deps struct {
	State      *view.State
	Registry   *chat.Registry
	Hub        *notify.Hub
	Indicators *notify.Indicators
	Presenter  *notify.Presenter
	API        ChatAPI
	Archive    *archive.Engine
	DB         *store.DB
	Logger     *zap.Logger
}

// New creates a Core. Nothing connects until Start.
func New(opts Options, d Deps) *Core {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Core{
		opts:       opts,
		state:      d.State,
		registry:   d.Registry,
		hub:        d.Hub,
		indicators: d.Indicators,
		presenter:  d.Presenter,
		api:        d.API,
		archive:    d.Archive,
		db:         d.DB,
		logger:     logger,
	}
}

// State returns the conversation view state.
func (c *Core) State() *view.State { return c.state }

// Presenter returns the popup presenter.
func (c *Core) Presenter() *notify.Presenter { return c.presenter }

// Indicators returns the unread indicators.
func (c *Core) Indicators() *notify.Indicators { return c.indicators }

// Avatars returns the role based fallback images as absolute URLs.
func (c *Core) Avatars() view.Avatars {
	p := c.opts.Profile
	return view.Avatars{
		Volunteer:    p.ResolveURL(p.VolunteerAvatar),
		Organization: p.ResolveURL(p.OrganizationAvatar),
	}
}

// Start connects both notification streams and, in the background, lists
// conversations, preloads their history and opens one chat channel each.
func (c *Core) Start(ctx context.Context) {
	c.startedAt = time.Now()
	ctx, c.cancel = context.WithCancel(ctx)
	c.hub.Start(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.preload(ctx)
	}()
}

// Stop closes every connection. Queued outbound frames are discarded.
func (c *Core) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.hub.Stop()
	c.registry.Teardown()
}

func (c *Core) preload(ctx context.Context) {
	ids := mergeIDs(c.listConversations(ctx), c.opts.Profile.Conversations)
	for _, id := range ids {
		c.state.AddConversation(id, "", "")
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := c.registry.Ensure(id); err != nil {
			c.logger.Warn("pre-connect failed", zap.String("conversation_id", id), zap.Error(err))
		}
	}
	c.logger.Info("conversations preloaded", zap.Int("count", len(ids)))
}

// mergeIDs appends the configured ids to the listed ones, dropping blanks and
// duplicates and keeping first-seen order.
func mergeIDs(listed, configured []string) []string {
	seen := make(map[string]struct{}, len(listed)+len(configured))
	ids := make([]string, 0, len(listed)+len(configured))
	for _, group := range [][]string{listed, configured} {
		for _, id := range group {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// listConversations lists conversations from the server and seeds their
// history. When the server is unreachable the archive stands in.
func (c *Core) listConversations(ctx context.Context) []string {
	if c.api == nil {
		return c.listArchived()
	}
	chats, err := c.api.ListChats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("list chats failed, using archive", zap.Error(err))
		}
		return c.listArchived()
	}

	ids := make([]string, 0, len(chats))
	for _, ch := range chats {
		id := string(ch.ChatID)
		if id == "" {
			continue
		}
		other := ch.Other(c.opts.Profile.UserID)
		avatar := c.opts.Profile.ResolveURL(other.AvatarURL())
		c.state.AddConversation(id, other.DisplayName(), avatar)
		if c.archive != nil {
			if err := c.archive.RecordConversation(id, other.DisplayName(), avatar); err != nil {
				c.logger.Warn("archive conversation failed", zap.String("conversation_id", id), zap.Error(err))
			}
		}

		msgs, err := c.api.ListMessages(ctx, id)
		if err != nil {
			c.logger.Warn("list messages failed", zap.String("conversation_id", id), zap.Error(err))
			c.seedFromArchive(id)
		} else {
			history := api.History(ch, msgs)
			c.state.Seed(id, history)
			if c.archive != nil {
				if err := c.archive.IngestHistory(id, history); err != nil {
					c.logger.Warn("archive history failed", zap.String("conversation_id", id), zap.Error(err))
				}
			}
		}
		ids = append(ids, id)
	}
	return ids
}

func (c *Core) listArchived() []string {
	if c.db == nil {
		return nil
	}
	convs, err := c.db.ListConversations(500, 0)
	if err != nil {
		c.logger.Warn("list archived conversations failed", zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(convs))
	for _, conv := range convs {
		c.state.AddConversation(conv.ID, conv.DisplayName, conv.AvatarURL)
		c.seedFromArchive(conv.ID)
		ids = append(ids, conv.ID)
	}
	return ids
}

func (c *Core) seedFromArchive(id string) {
	if c.db == nil {
		return
	}
	stored, err := c.db.ListMessages(id, 0, archiveSeedSize)
	if err != nil {
		c.logger.Warn("read archived messages failed", zap.String("conversation_id", id), zap.Error(err))
		return
	}
	history := make([]chat.Message, len(stored))
	for i, m := range stored {
		// stored is newest first
		history[len(stored)-1-i] = archive.ToChat(m)
	}
	c.state.Seed(id, history)
}

// Connect opens the chat channel of a conversation, listing it if needed.
func (c *Core) Connect(id string) (*chat.Channel, error) {
	if id == "" {
		return nil, chat.ErrEmptyConversationID
	}
	c.state.AddConversation(id, "", "")
	return c.registry.Ensure(id)
}

// Select makes id the active conversation, ensures its channel and tells
// the server the counterpart's messages were read.
func (c *Core) Select(id string) error {
	if !c.state.Has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}
	c.state.Select(id, "", "")
	if _, err := c.registry.Ensure(id); err != nil {
		return err
	}
	if c.api != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), markReadTimeout)
			defer cancel()
			if err := c.api.MarkRead(ctx, id); err != nil {
				c.logger.Warn("mark read failed", zap.String("conversation_id", id), zap.Error(err))
			}
		}()
	}
	return nil
}

// Send queues text on the conversation's channel. Blank text is ignored.
func (c *Core) Send(id, text string) error {
	if !c.state.Has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}
	ch, ok := c.registry.Get(id)
	if !ok {
		return chat.ErrNotOpen
	}
	return ch.Send(text)
}

// SetScreen records the visible section. Opening a section clears its indicator.
func (c *Core) SetScreen(s view.Screen) {
	c.state.SetScreen(s)
	switch s {
	case view.ScreenMessages:
		c.indicators.Clear(notify.KindMessage)
	case view.ScreenNotifications:
		c.indicators.Clear(notify.KindGeneric)
	}
}

// Search finds archived messages containing query, newest first. An empty
// conversationID searches every conversation.
func (c *Core) Search(query, conversationID string, limit int) ([]store.SearchResult, error) {
	if c.db == nil {
		return nil, ErrArchiveDisabled
	}
	return c.db.SearchMessages(query, conversationID, limit)
}

// ClearIndicator lowers one unread indicator.
func (c *Core) ClearIndicator(kind notify.Kind) bool {
	return c.indicators.Clear(kind)
}

// Status is a point-in-time summary of the client.
type Status struct {
	Profile       string
	UserID        string
	BaseURL       string
	StartedAt     time.Time
	Active        string
	Screen        view.Screen
	Channels      []chat.ChannelInfo
	Notifications map[notify.Kind]status.State
	Indicators    map[notify.Kind]bool
	Popups        int
}

// Status reports the current connection and view state.
func (c *Core) Status() Status {
	return Status{
		Profile:       c.opts.ProfileName,
		UserID:        c.opts.Profile.UserID,
		BaseURL:       c.opts.Profile.BaseURL,
		StartedAt:     c.startedAt,
		Active:        c.state.Active(),
		Screen:        c.state.Screen(),
		Channels:      c.registry.Channels(),
		Notifications: c.hub.States(),
		Indicators:    c.indicators.Snapshot(),
		Popups:        len(c.presenter.Active()),
	}
}

// ConversationInfo summarizes one conversation.
type ConversationInfo struct {
	ID           string
	DisplayName  string
	AvatarURL    string
	Unseen       bool
	Active       bool
	MessageCount int
	State        status.State // empty when no channel is registered
}

// Conversations lists every known conversation in listing order.
func (c *Core) Conversations() []ConversationInfo {
	snap := c.state.Snapshot()
	states := make(map[string]status.State)
	for _, ch := range c.registry.Channels() {
		states[ch.ConversationID] = ch.State
	}
	out := make([]ConversationInfo, 0, len(snap.Conversations))
	for _, conv := range snap.Conversations {
		out = append(out, ConversationInfo{
			ID:           conv.ID,
			DisplayName:  conv.DisplayName,
			AvatarURL:    conv.AvatarURL,
			Unseen:       conv.Unseen,
			Active:       conv.ID == snap.Active,
			MessageCount: len(conv.Messages),
			State:        states[conv.ID],
		})
	}
	return out
}
