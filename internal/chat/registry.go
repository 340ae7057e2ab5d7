package chat

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/matheus3301/volchat/internal/bus"
	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/transport"
	"go.uber.org/zap"
)

// ErrEmptyConversationID is returned by Ensure for a blank id.
var ErrEmptyConversationID = errors.New("empty conversation id")

const teardownWait = 2 * time.Second

// Registry holds at most one Channel per conversation id.
type Registry struct {
	mu       sync.Mutex
	channels map[string]*Channel

	dialer   transport.Dialer
	dispatch Dispatch
	bus      *bus.Bus
	logger   *zap.Logger
}

// ChannelInfo is a point-in-time view of one registered channel.
type ChannelInfo struct {
	ConversationID string
	ConnID         string
	State          status.State
}

// NewRegistry creates a registry. Every channel it opens delivers inbound
// messages to dispatch.
func NewRegistry(d transport.Dialer, dispatch Dispatch, b *bus.Bus, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		channels: make(map[string]*Channel),
		dialer:   d,
		dispatch: dispatch,
		bus:      b,
		logger:   logger,
	}
}

// Ensure returns the channel for conversationID, opening one if none exists.
// The new channel starts in Connecting and opens asynchronously.
func (r *Registry) Ensure(conversationID string) (*Channel, error) {
	if conversationID == "" {
		return nil, ErrEmptyConversationID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[conversationID]; ok {
		return ch, nil
	}
	ch := newChannel(conversationID, r.dialer, r.bus, r.dispatch, r.remove, r.logger)
	r.channels[conversationID] = ch
	ch.start()
	return ch, nil
}

// Get returns the registered channel for conversationID, if any.
func (r *Registry) Get(conversationID string) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[conversationID]
	return ch, ok
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// Channels returns the registered channels sorted by conversation id.
func (r *Registry) Channels() []ChannelInfo {
	r.mu.Lock()
	infos := make([]ChannelInfo, 0, len(r.channels))
	for _, ch := range r.channels {
		infos = append(infos, ChannelInfo{ConversationID: ch.id, ConnID: ch.connID, State: ch.State()})
	}
	r.mu.Unlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].ConversationID < infos[j].ConversationID })
	return infos
}

// Teardown closes every registered channel and waits briefly for them to finish.
func (r *Registry) Teardown() {
	r.mu.Lock()
	chans := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		chans = append(chans, ch)
	}
	r.mu.Unlock()

	for _, ch := range chans {
		ch.Close()
	}
	deadline := time.After(teardownWait)
	for _, ch := range chans {
		select {
		case <-ch.Done():
		case <-deadline:
			r.logger.Warn("teardown timed out waiting for channels")
			return
		}
	}
	r.logger.Info("chat registry torn down", zap.Int("channels", len(chans)))
}

// remove forgets ch once it has closed, unless a newer channel already took its place.
func (r *Registry) remove(ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channels[ch.id] == ch {
		delete(r.channels, ch.id)
	}
}
