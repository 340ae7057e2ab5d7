package store

import (
	"database/sql"
	"errors"
	"time"
)

// UpsertConversation inserts or updates a conversation. Empty display fields
// never overwrite stored ones and last_message_at only moves forward.
func (db *DB) UpsertConversation(c *Conversation) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO conversations (id, display_name, avatar_url, last_message_at, last_message_preview, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = COALESCE(NULLIF(excluded.display_name, ''), conversations.display_name),
			avatar_url = COALESCE(NULLIF(excluded.avatar_url, ''), conversations.avatar_url),
			last_message_preview = CASE WHEN excluded.last_message_at >= conversations.last_message_at AND excluded.last_message_at > 0
				THEN excluded.last_message_preview ELSE conversations.last_message_preview END,
			last_message_at = MAX(conversations.last_message_at, excluded.last_message_at),
			updated_at = excluded.updated_at`,
		c.ID, c.DisplayName, c.AvatarURL, c.LastMessageAt, c.LastMessagePreview, now)
	return err
}

const conversationColumns = `
	c.id, COALESCE(NULLIF(c.display_name, ''), c.id), c.avatar_url,
	c.last_message_at, c.last_message_preview, c.last_read_at,
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND m.timestamp > c.last_read_at)`

func scanConversation(row interface{ Scan(...any) error }, c *Conversation) error {
	return row.Scan(&c.ID, &c.DisplayName, &c.AvatarURL, &c.LastMessageAt, &c.LastMessagePreview,
		&c.LastReadAt, &c.MessageCount, &c.UnreadCount)
}

// ListConversations returns conversations, most recently active first.
func (db *DB) ListConversations(limit, offset int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`SELECT `+conversationColumns+`
		FROM conversations c
		ORDER BY c.last_message_at DESC, c.id
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := scanConversation(rows, &c); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// GetConversation returns a single conversation, or nil when unknown.
func (db *DB) GetConversation(id string) (*Conversation, error) {
	var c Conversation
	err := scanConversation(db.QueryRow(`SELECT `+conversationColumns+`
		FROM conversations c WHERE c.id = ?`, id), &c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkRead records that the conversation was read up to at (unix millis).
func (db *DB) MarkRead(id string, at int64) error {
	_, err := db.Exec(`
		UPDATE conversations SET last_read_at = MAX(last_read_at, ?), updated_at = ?
		WHERE id = ?`, at, time.Now().UnixMilli(), id)
	return err
}

// CountConversations returns the number of archived conversations.
func (db *DB) CountConversations() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&n)
	return n, err
}
