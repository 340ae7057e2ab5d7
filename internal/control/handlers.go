package control

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/matheus3301/volchat/internal/chat"
	"github.com/matheus3301/volchat/internal/core"
	"github.com/matheus3301/volchat/internal/notify"
	"github.com/matheus3301/volchat/internal/store"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	maxBodyBytes = 64 << 10
)

type handlers struct {
	svc    Service
	db     *store.DB
	logger *zap.Logger
}

func (h *handlers) status(w http.ResponseWriter, _ *http.Request) {
	st := h.svc.Status()
	resp := StatusResponse{
		Profile:       st.Profile,
		UserID:        st.UserID,
		BaseURL:       st.BaseURL,
		StartedAt:     st.StartedAt,
		Active:        st.Active,
		Screen:        string(st.Screen),
		Channels:      make([]ChannelStatus, 0, len(st.Channels)),
		Notifications: make(map[string]string, len(st.Notifications)),
		Indicators:    make(map[string]bool, len(st.Indicators)),
		Popups:        st.Popups,
	}
	if !st.StartedAt.IsZero() {
		resp.Uptime = time.Since(st.StartedAt).Truncate(time.Second).String()
	}
	for _, ch := range st.Channels {
		resp.Channels = append(resp.Channels, ChannelStatus{
			ConversationID: ch.ConversationID,
			ConnID:         ch.ConnID,
			State:          string(ch.State),
		})
	}
	for k, s := range st.Notifications {
		resp.Notifications[string(k)] = string(s)
	}
	for k, v := range st.Indicators {
		resp.Indicators[string(k)] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) listConversations(w http.ResponseWriter, _ *http.Request) {
	convs := h.svc.Conversations()
	out := make([]Conversation, 0, len(convs))
	for _, c := range convs {
		out = append(out, Conversation{
			ID:           c.ID,
			DisplayName:  c.DisplayName,
			AvatarURL:    c.AvatarURL,
			Unseen:       c.Unseen,
			Active:       c.Active,
			MessageCount: c.MessageCount,
			State:        string(c.State),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) listMessages(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeError(w, http.StatusServiceUnavailable, "archive disabled")
		return
	}
	id := chi.URLParam(r, "id")
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	var before int64
	if v := r.URL.Query().Get("before"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "before must be unix milliseconds")
			return
		}
		before = n
	}
	msgs, err := h.db.ListMessages(id, before, limit)
	if err != nil {
		h.internalError(w, "list messages", err)
		return
	}
	// Oldest first, like the conversation view.
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = toMessage(m)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeError(w, http.StatusServiceUnavailable, "archive disabled")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing q")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	results, err := h.db.SearchMessages(q, r.URL.Query().Get("conversation"), limit)
	if err != nil {
		h.internalError(w, "search", err)
		return
	}
	out := make([]SearchHit, 0, len(results))
	for _, res := range results {
		out = append(out, SearchHit{Message: toMessage(res.Message), Snippet: res.Snippet})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) selectConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Select(chi.URLParam(r, "id")); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.svc.Send(chi.URLParam(r, "id"), req.Text); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) connect(w http.ResponseWriter, r *http.Request) {
	ch, err := h.svc.Connect(chi.URLParam(r, "id"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConnectResponse{
		ConversationID: ch.ID(),
		ConnID:         ch.ConnID(),
		State:          string(ch.State()),
	})
}

func (h *handlers) clearIndicator(w http.ResponseWriter, r *http.Request) {
	kind, err := notify.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ClearResponse{Kind: string(kind), Cleared: h.svc.ClearIndicator(kind)})
}

func (h *handlers) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnknownConversation):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chat.ErrEmptyConversationID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrNotOpen):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.internalError(w, "service", err)
	}
}

func (h *handlers) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("control request failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return min(n, maxLimit), true
}

func toMessage(m store.Message) Message {
	return Message{
		ConversationID:   m.ConversationID,
		Seq:              m.Seq,
		Sender:           m.Sender,
		SenderName:       m.SenderName,
		Body:             m.Body,
		Timestamp:        time.UnixMilli(m.Timestamp).UTC(),
		SenderProfileImg: m.SenderProfileImg,
		Role:             m.Role,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}
