package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// MessageKey derives the archive identity of a message. The server sends no
// message id, so sender, timestamp and body together identify a message.
func MessageKey(sender string, timestamp int64, body string) string {
	h := sha256.New()
	h.Write([]byte(sender))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte{0})
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// UpsertMessage inserts or updates a message (idempotent on conversation_id + msg_key).
// An empty MsgKey is derived with MessageKey.
func (db *DB) UpsertMessage(m *Message) error {
	if m.MsgKey == "" {
		m.MsgKey = MessageKey(m.Sender, m.Timestamp, m.Body)
	}
	if m.Role == "" {
		m.Role = "unknown"
	}
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO messages (conversation_id, msg_key, seq, sender, sender_name, body, sender_profile_img, role, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id, msg_key) DO UPDATE SET
			sender_name = COALESCE(NULLIF(excluded.sender_name, ''), messages.sender_name),
			sender_profile_img = COALESCE(NULLIF(excluded.sender_profile_img, ''), messages.sender_profile_img)`,
		m.ConversationID, m.MsgKey, m.Seq, m.Sender, m.SenderName, m.Body, m.SenderProfileImg, m.Role, m.Timestamp, now)
	return err
}

// ListMessages returns messages for a conversation using keyset pagination by
// timestamp, newest first.
func (db *DB) ListMessages(conversationID string, beforeTs int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, conversation_id, msg_key, seq, sender, sender_name, body, sender_profile_img, role, timestamp
		FROM messages
		WHERE conversation_id = ?`
	args := []any{conversationID}
	// Timestamps come from the server clock, so no local upper bound applies
	// to the first page.
	if beforeTs > 0 {
		query += ` AND timestamp < ?`
		args = append(args, beforeTs)
	}
	query += `
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`
	args = append(args, limit)
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountMessages returns the number of archived messages in a conversation,
// or across all conversations when conversationID is empty.
func (db *DB) CountMessages(conversationID string) (int, error) {
	var n int
	var err error
	if conversationID == "" {
		err = db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&n)
	}
	return n, err
}

func scanMessage(row interface{ Scan(...any) error }, m *Message) error {
	return row.Scan(&m.ID, &m.ConversationID, &m.MsgKey, &m.Seq, &m.Sender, &m.SenderName,
		&m.Body, &m.SenderProfileImg, &m.Role, &m.Timestamp)
}
