package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/volchat/internal/bus"
	"github.com/matheus3301/volchat/internal/chat"
	"github.com/matheus3301/volchat/internal/store"
	"github.com/matheus3301/volchat/internal/view"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func at(sec int) time.Time {
	return time.Date(2024, 1, 1, 10, 0, sec, 0, time.UTC)
}

func TestEngineIngestMessage(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil)

	ch, unsub := b.Subscribe("archive.", 10)
	defer unsub()

	m := chat.Message{Sender: "u2", SenderName: "Ana", Body: "hello", Timestamp: at(0), Role: chat.RoleVolunteer}
	if err := e.IngestMessage("c1", 1, m); err != nil {
		t.Fatal(err)
	}

	// Conversation is created implicitly.
	c, err := db.GetConversation("c1")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil {
		t.Fatal("conversation not created")
	}
	if c.LastMessagePreview != "hello" {
		t.Errorf("preview = %q", c.LastMessagePreview)
	}

	msgs, err := db.ListMessages("c1", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Body != "hello" {
		t.Fatalf("got %d messages, want 1 with body=hello", len(msgs))
	}
	got := ToChat(msgs[0])
	if got.Sender != m.Sender || got.SenderName != m.SenderName || got.Role != m.Role || !got.Timestamp.Equal(m.Timestamp) {
		t.Errorf("round trip = %+v, want %+v", got, m)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.ArchiveMessageStored || evt.Key != "c1" {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for archive event")
	}
}

func TestEngineIngestMessageIdempotent(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), nil)

	m := chat.Message{Sender: "u2", Body: "v1", Timestamp: at(0)}
	for i := 0; i < 3; i++ {
		if err := e.IngestMessage("c1", 1, m); err != nil {
			t.Fatal(err)
		}
	}
	n, err := db.CountMessages("c1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d messages, want 1", n)
	}
}

func TestEngineFollowsBus(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil)
	e.Start(context.Background())
	t.Cleanup(e.Stop)

	stored, unsub := b.Subscribe("archive.", 10)
	defer unsub()

	s := view.NewState("me", b)
	s.Deliver("c1", chat.Message{Sender: "u2", Body: "first", Timestamp: at(1)})
	s.Deliver("c1", chat.Message{Sender: "me", Body: "second", Timestamp: at(2)})

	for i := 0; i < 2; i++ {
		select {
		case <-stored:
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for archived message %d", i+1)
		}
	}

	msgs, err := db.ListMessages("c1", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Body != "second" || msgs[0].Seq != 2 {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestEngineMarksSelectedRead(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	e := NewEngine(db, b, nil)

	if err := e.IngestMessage("c1", 1, chat.Message{Sender: "u2", Body: "x", Timestamp: at(0)}); err != nil {
		t.Fatal(err)
	}
	e.handleEvent(bus.Event{Kind: bus.ConversationSelected, Key: "c1"})

	c, err := db.GetConversation("c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.UnreadCount != 0 || c.LastReadAt == 0 {
		t.Errorf("unread = %d, last_read_at = %d", c.UnreadCount, c.LastReadAt)
	}
}

func TestEngineIngestHistory(t *testing.T) {
	db := testDB(t)
	e := NewEngine(db, bus.New(), nil)

	if err := e.RecordConversation("c1", "Ana", "/media/ana.png"); err != nil {
		t.Fatal(err)
	}
	history := []chat.Message{
		{Sender: "u2", Body: "one", Timestamp: at(1)},
		{Sender: "me", Body: "two", Timestamp: at(2)},
	}
	if err := e.IngestHistory("c1", history); err != nil {
		t.Fatal(err)
	}
	// Replaying the same history adds nothing.
	if err := e.IngestHistory("c1", history); err != nil {
		t.Fatal(err)
	}
	// A live delivery of an already preloaded message is not duplicated.
	if err := e.IngestMessage("c1", 3, history[1]); err != nil {
		t.Fatal(err)
	}

	c, err := db.GetConversation("c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.DisplayName != "Ana" || c.MessageCount != 2 || c.LastMessagePreview != "two" {
		t.Errorf("conversation = %+v", c)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 2); got != "hé" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("hi", 5); got != "hi" {
		t.Errorf("truncate = %q", got)
	}
}
