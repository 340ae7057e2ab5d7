package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client calls the control API over a unix socket.
type Client struct {
	http *http.Client
}

// Dial returns a client for the socket at socketPath. No connection is made
// until the first call.
func Dial(socketPath string) *Client {
	tr := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}
	return &Client{http: &http.Client{Transport: tr, Timeout: 10 * time.Second}}
}

// APIError is a non-2xx control API response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("control api: %d: %s", e.StatusCode, e.Message)
}

// Status returns the client status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Conversations lists known conversations.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	err := c.do(ctx, http.MethodGet, "/conversations", nil, &out)
	return out, err
}

// Messages returns up to limit archived messages of a conversation, oldest first.
func (c *Client) Messages(ctx context.Context, id string, limit int) ([]Message, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []Message
	err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(id)+"/messages?"+q.Encode(), nil, &out)
	return out, err
}

// Search finds archived messages containing query.
func (c *Client) Search(ctx context.Context, query, conversationID string, limit int) ([]SearchHit, error) {
	q := url.Values{"q": {query}}
	if conversationID != "" {
		q.Set("conversation", conversationID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []SearchHit
	err := c.do(ctx, http.MethodGet, "/search?"+q.Encode(), nil, &out)
	return out, err
}

// Select makes a conversation active.
func (c *Client) Select(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/conversations/"+url.PathEscape(id)+"/select", nil, nil)
}

// Send queues text on a conversation's channel.
func (c *Client) Send(ctx context.Context, id, text string) error {
	return c.do(ctx, http.MethodPost, "/conversations/"+url.PathEscape(id)+"/messages", SendRequest{Text: text}, nil)
}

// Connect opens a conversation's channel.
func (c *Client) Connect(ctx context.Context, id string) (*ConnectResponse, error) {
	var out ConnectResponse
	if err := c.do(ctx, http.MethodPost, "/conversations/"+url.PathEscape(id)+"/connect", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearIndicator lowers an unread indicator.
func (c *Client) ClearIndicator(ctx context.Context, kind string) (*ClearResponse, error) {
	var out ClearResponse
	if err := c.do(ctx, http.MethodPost, "/indicators/"+url.PathEscape(kind)+"/clear", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, "http://volchat"+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("control api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
