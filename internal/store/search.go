package store

import (
	"strings"
	"unicode/utf8"
)

const snippetContext = 32

// SearchMessages finds messages whose body contains query, case-insensitively
// for ASCII text, newest first. An empty conversationID searches everything.
func (db *DB) SearchMessages(query string, conversationID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	q := `
		SELECT id, conversation_id, msg_key, seq, sender, sender_name, body, sender_profile_img, role, timestamp
		FROM messages
		WHERE body LIKE ? ESCAPE '\'`
	args := []any{"%" + escapeLike(query) + "%"}
	if conversationID != "" {
		q += " AND conversation_id = ?"
		args = append(args, conversationID)
	}
	q += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := scanMessage(rows, &r.Message); err != nil {
			return nil, err
		}
		r.Snippet = snippet(r.Message.Body, query)
		results = append(results, r)
	}
	return results, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// snippet marks the first match of query in body with << >> and trims the
// surrounding text to a short window.
func snippet(body, query string) string {
	i := strings.Index(strings.ToLower(body), strings.ToLower(query))
	if i < 0 || len(body) != len(strings.ToLower(body)) {
		return body
	}
	end := i + len(query)

	start := i - snippetContext
	prefix := "..."
	if start <= 0 {
		start, prefix = 0, ""
	}
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	stop := end + snippetContext
	suffix := "..."
	if stop >= len(body) {
		stop, suffix = len(body), ""
	}
	for stop < len(body) && !utf8.RuneStart(body[stop]) {
		stop++
	}
	return prefix + body[start:i] + "<<" + body[i:end] + ">>" + body[end:stop] + suffix
}
