// Package archive persists received chat traffic into the local store.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/volchat/internal/bus"
	"github.com/matheus3301/volchat/internal/chat"
	"github.com/matheus3301/volchat/internal/store"
	"github.com/matheus3301/volchat/internal/view"
	"go.uber.org/zap"
)

const previewLen = 100

// Engine handles idempotent ingestion of conversation traffic into the store.
// It subscribes to "conversation." events on the bus. Archiving is best
// effort: an event dropped by the bus only loses the archived row.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new archive engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to conversation events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("conversation.", 256)
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the event loop to exit.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.ConversationMessageAppended:
		a, ok := evt.Payload.(view.Appended)
		if !ok {
			return
		}
		if err := e.IngestMessage(a.ConversationID, a.Seq, a.Message); err != nil {
			e.logger.Error("failed to archive message", zap.Error(err), zap.String("conversation_id", a.ConversationID))
		}
	case bus.ConversationSelected:
		if err := e.db.MarkRead(evt.Key, time.Now().UnixMilli()); err != nil {
			e.logger.Warn("failed to mark conversation read", zap.Error(err), zap.String("conversation_id", evt.Key))
		}
	}
}

// RecordConversation stores the listing of a conversation.
func (e *Engine) RecordConversation(id, displayName, avatarURL string) error {
	if err := e.db.UpsertConversation(&store.Conversation{
		ID:          id,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// IngestMessage stores a single message (idempotent).
func (e *Engine) IngestMessage(conversationID string, seq int, m chat.Message) error {
	sm := toStore(conversationID, seq, m)
	if err := e.db.UpsertConversation(&store.Conversation{
		ID:                 conversationID,
		LastMessageAt:      sm.Timestamp,
		LastMessagePreview: truncate(sm.Body, previewLen),
	}); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	if err := e.db.UpsertMessage(sm); err != nil {
		return fmt.Errorf("upsert message: %w", err)
	}

	e.bus.Publish(bus.Event{
		Kind:      bus.ArchiveMessageStored,
		Key:       conversationID,
		Timestamp: time.Now(),
		Payload:   sm.MsgKey,
	})
	return nil
}

// IngestHistory stores preloaded history of one conversation in a transaction.
func (e *Engine) IngestHistory(conversationID string, msgs []chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	var last *store.Message
	for i, m := range msgs {
		sm := toStore(conversationID, i+1, m)
		sm.MsgKey = store.MessageKey(sm.Sender, sm.Timestamp, sm.Body)
		if _, err := tx.Exec(`
			INSERT INTO messages (conversation_id, msg_key, seq, sender, sender_name, body, sender_profile_img, role, timestamp, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(conversation_id, msg_key) DO NOTHING`,
			sm.ConversationID, sm.MsgKey, sm.Seq, sm.Sender, sm.SenderName, sm.Body, sm.SenderProfileImg, sm.Role, sm.Timestamp, now); err != nil {
			return fmt.Errorf("insert message in batch: %w", err)
		}
		if last == nil || sm.Timestamp >= last.Timestamp {
			last = sm
		}
	}
	if _, err := tx.Exec(`
		INSERT INTO conversations (id, last_message_at, last_message_preview, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_message_preview = CASE WHEN excluded.last_message_at >= conversations.last_message_at
				THEN excluded.last_message_preview ELSE conversations.last_message_preview END,
			last_message_at = MAX(conversations.last_message_at, excluded.last_message_at),
			updated_at = excluded.updated_at`,
		conversationID, last.Timestamp, truncate(last.Body, previewLen), now); err != nil {
		return fmt.Errorf("upsert conversation in batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	e.bus.Publish(bus.Event{
		Kind:      bus.ArchiveHistoryStored,
		Key:       conversationID,
		Timestamp: time.Now(),
		Payload:   len(msgs),
	})
	return nil
}

func toStore(conversationID string, seq int, m chat.Message) *store.Message {
	return &store.Message{
		ConversationID:   conversationID,
		Seq:              seq,
		Sender:           m.Sender,
		SenderName:       m.SenderName,
		Body:             m.Body,
		SenderProfileImg: m.SenderProfileImg,
		Role:             m.Role.String(),
		Timestamp:        m.Timestamp.UnixMilli(),
	}
}

// ToChat converts an archived message back into a chat message.
func ToChat(m store.Message) chat.Message {
	return chat.Message{
		Sender:           m.Sender,
		SenderName:       m.SenderName,
		Body:             m.Body,
		Timestamp:        time.UnixMilli(m.Timestamp).UTC(),
		SenderProfileImg: m.SenderProfileImg,
		Role:             chat.ParseRole(m.Role),
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
