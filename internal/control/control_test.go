package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/volchat/internal/chat"
	"github.com/matheus3301/volchat/internal/core"
	"github.com/matheus3301/volchat/internal/notify"
	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/store"
	"github.com/matheus3301/volchat/internal/transport/transporttest"
	"github.com/matheus3301/volchat/internal/view"
	"go.uber.org/zap"
)

type fakeService struct {
	mu       sync.Mutex
	sendErr  error
	sent     []string
	selected []string
	cleared  []notify.Kind
	registry *chat.Registry
}

func newFakeService() *fakeService {
	return &fakeService{
		registry: chat.NewRegistry(transporttest.NewDialer(), func(string, chat.Message) {}, nil, nil),
	}
}

func (f *fakeService) Status() core.Status {
	return core.Status{
		Profile:   "main",
		UserID:    "me",
		BaseURL:   "http://localhost:8000",
		StartedAt: time.Now().Add(-time.Minute),
		Active:    "c1",
		Screen:    view.ScreenMessages,
		Channels: []chat.ChannelInfo{
			{ConversationID: "c1", ConnID: "abc", State: status.State("open")},
		},
		Notifications: map[notify.Kind]status.State{notify.KindGeneric: "open"},
		Indicators:    map[notify.Kind]bool{notify.KindMessage: true},
		Popups:        2,
	}
}

func (f *fakeService) Conversations() []core.ConversationInfo {
	return []core.ConversationInfo{
		{ID: "c1", DisplayName: "Green Org", Active: true, MessageCount: 3, State: "open"},
		{ID: "c2", DisplayName: "c2", Unseen: true},
	}
}

func (f *fakeService) Select(id string) error {
	if id != "c1" && id != "c2" {
		return core.ErrUnknownConversation
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, id)
	return nil
}

func (f *fakeService) Send(id, text string) error {
	if id != "c1" && id != "c2" {
		return core.ErrUnknownConversation
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, id+":"+text)
	return nil
}

func (f *fakeService) Connect(id string) (*chat.Channel, error) {
	return f.registry.Ensure(id)
}

func (f *fakeService) ClearIndicator(kind notify.Kind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, kind)
	return kind == notify.KindMessage
}

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestStatusRoute(t *testing.T) {
	h := NewRouter(newFakeService(), nil, nil, zap.NewNop())
	rec := do(t, h, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	st := decode[StatusResponse](t, rec)
	if st.Profile != "main" || st.Active != "c1" || st.Screen != "messages" {
		t.Errorf("status = %+v", st)
	}
	if len(st.Channels) != 1 || st.Channels[0].State != "open" {
		t.Errorf("channels = %+v", st.Channels)
	}
	if st.Notifications["generic"] != "open" || !st.Indicators["message"] {
		t.Errorf("notify = %v %v", st.Notifications, st.Indicators)
	}
	if st.Uptime == "" {
		t.Error("uptime empty")
	}
}

func TestListConversationsRoute(t *testing.T) {
	h := NewRouter(newFakeService(), nil, nil, zap.NewNop())
	for _, path := range []string{"/conversations", "/conversations/"} {
		rec := do(t, h, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
		convs := decode[[]Conversation](t, rec)
		if len(convs) != 2 || convs[0].ID != "c1" || !convs[1].Unseen {
			t.Errorf("%s: conversations = %+v", path, convs)
		}
	}
}

func TestSendRoute(t *testing.T) {
	svc := newFakeService()
	h := NewRouter(svc, nil, nil, zap.NewNop())

	tests := []struct {
		name    string
		path    string
		body    string
		sendErr error
		want    int
	}{
		{"ok", "/conversations/c1/messages", `{"text":"hi"}`, nil, http.StatusAccepted},
		{"unknown", "/conversations/zz/messages", `{"text":"hi"}`, nil, http.StatusNotFound},
		{"not open", "/conversations/c1/messages", `{"text":"hi"}`, chat.ErrNotOpen, http.StatusConflict},
		{"queue full", "/conversations/c1/messages", `{"text":"hi"}`, chat.ErrQueueFull, http.StatusServiceUnavailable},
		{"bad json", "/conversations/c1/messages", `{"text":`, nil, http.StatusBadRequest},
		{"internal", "/conversations/c1/messages", `{"text":"hi"}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.sendErr = tt.sendErr
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want >= 400 {
				if e := decode[ErrorResponse](t, rec); e.Error == "" {
					t.Error("error body empty")
				}
			}
		})
	}
	if len(svc.sent) != 1 || svc.sent[0] != "c1:hi" {
		t.Errorf("sent = %v", svc.sent)
	}
}

func TestSelectAndConnectRoutes(t *testing.T) {
	svc := newFakeService()
	t.Cleanup(svc.registry.Teardown)
	h := NewRouter(svc, nil, nil, zap.NewNop())

	if rec := do(t, h, http.MethodPost, "/conversations/c2/select", ""); rec.Code != http.StatusNoContent {
		t.Errorf("select status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/conversations/nope/select", ""); rec.Code != http.StatusNotFound {
		t.Errorf("select unknown status = %d", rec.Code)
	}
	if len(svc.selected) != 1 || svc.selected[0] != "c2" {
		t.Errorf("selected = %v", svc.selected)
	}

	rec := do(t, h, http.MethodPost, "/conversations/c9/connect", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("connect status = %d", rec.Code)
	}
	cr := decode[ConnectResponse](t, rec)
	if cr.ConversationID != "c9" || cr.ConnID == "" {
		t.Errorf("connect = %+v", cr)
	}
}

func TestClearIndicatorRoute(t *testing.T) {
	svc := newFakeService()
	h := NewRouter(svc, nil, nil, zap.NewNop())

	rec := do(t, h, http.MethodPost, "/indicators/message/clear", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cr := decode[ClearResponse](t, rec); !cr.Cleared || cr.Kind != "message" {
		t.Errorf("clear = %+v", cr)
	}
	if rec := do(t, h, http.MethodPost, "/indicators/bogus/clear", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bogus kind status = %d", rec.Code)
	}
}

func TestMessagesAndSearchRoutes(t *testing.T) {
	db := testDB(t)
	for i, body := range []string{"hello there", "how are you", "hello again"} {
		m := &store.Message{ConversationID: "c1", Seq: i + 1, Sender: "org-1", Body: body, Timestamp: int64(1000 * (i + 1)), Role: "organization"}
		if err := db.UpsertMessage(m); err != nil {
			t.Fatal(err)
		}
	}
	h := NewRouter(newFakeService(), db, nil, zap.NewNop())

	rec := do(t, h, http.MethodGet, "/conversations/c1/messages?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("messages status = %d", rec.Code)
	}
	msgs := decode[[]Message](t, rec)
	if len(msgs) != 2 || msgs[0].Body != "how are you" || msgs[1].Body != "hello again" {
		t.Errorf("messages = %+v", msgs)
	}
	if !msgs[1].Timestamp.Equal(time.UnixMilli(3000)) {
		t.Errorf("timestamp = %v", msgs[1].Timestamp)
	}

	if rec := do(t, h, http.MethodGet, "/conversations/c1/messages?limit=x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/search?q=hello", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	hits := decode[[]SearchHit](t, rec)
	if len(hits) != 2 || !strings.Contains(hits[0].Snippet, "<<hello>>") {
		t.Errorf("hits = %+v", hits)
	}
	if rec := do(t, h, http.MethodGet, "/search", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d", rec.Code)
	}
}

func TestArchiveDisabled(t *testing.T) {
	h := NewRouter(newFakeService(), nil, nil, zap.NewNop())
	if rec := do(t, h, http.MethodGet, "/conversations/c1/messages", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("messages status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/search?q=x", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("search status = %d", rec.Code)
	}
}

func TestCORSOnlyWhenConfigured(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	rec := httptest.NewRecorder()
	NewRouter(newFakeService(), nil, []string{"http://localhost:3000"}, zap.NewNop()).ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}

	rec = httptest.NewRecorder()
	NewRouter(newFakeService(), nil, nil, zap.NewNop()).ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow origin without config = %q", got)
	}
}

func TestSocketRoundTrip(t *testing.T) {
	// Unix socket paths are length limited; t.TempDir can exceed it.
	dir, err := os.MkdirTemp("", "vc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	sock := filepath.Join(dir, "c.sock")

	// A stale socket file must not block startup.
	if err := os.WriteFile(sock, nil, 0600); err != nil {
		t.Fatal(err)
	}

	svc := newFakeService()
	srv, err := NewServer(sock, svc, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Start() }()

	info, err := os.Stat(sock)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("socket perm = %o, want 600", perm)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := Dial(sock)

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.UserID != "me" {
		t.Errorf("user = %q", st.UserID)
	}
	if err := c.Send(ctx, "c1", "over the socket"); err != nil {
		t.Fatal(err)
	}
	err = c.Select(ctx, "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("select missing err = %v", err)
	}

	srv.Stop(ctx)
	if _, err := os.Stat(sock); !os.IsNotExist(err) {
		t.Error("socket file not removed on stop")
	}
}
