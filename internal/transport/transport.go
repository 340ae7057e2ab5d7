package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Server endpoints.
const (
	NotificationsPath        = "/ws/notifications/"
	MessageNotificationsPath = "/ws/message_notifications/"
)

// TextMessage is the frame type used for every JSON payload.
const TextMessage = websocket.TextMessage

const (
	defaultHandshakeTimeout = 10 * time.Second
	writeTimeout            = 10 * time.Second
)

// ChatPath returns the chat endpoint for a conversation.
func ChatPath(conversationID string) string {
	return "/ws/chat/" + url.PathEscape(conversationID) + "/"
}

// Conn is the subset of a websocket connection the realtime core uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a connection to a server endpoint path.
type Dialer interface {
	Dial(ctx context.Context, path string) (Conn, error)
}

// Error is a transport failure: refused, reset or failed handshake.
type Error struct {
	Op         string
	Path       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %v (http %d)", e.Op, e.Path, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNormalClose reports whether err is the peer closing the socket cleanly.
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, websocket.ErrCloseSent)
}

// Options configure a WSDialer.
type Options struct {
	BaseURL          string
	SessionCookie    string
	HandshakeTimeout time.Duration
}

// WSDialer dials the application server's websocket endpoints, authenticating
// with the session cookie.
type WSDialer struct {
	base   *url.URL
	header http.Header
	dialer *websocket.Dialer
}

// NewWSDialer validates the base URL and builds a dialer. http(s) base URLs are
// mapped to ws(s).
func NewWSDialer(opts Options) (*WSDialer, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	origin := *base
	switch base.Scheme {
	case "http", "ws":
		base.Scheme, origin.Scheme = "ws", "http"
	case "https", "wss":
		base.Scheme, origin.Scheme = "wss", "https"
	default:
		return nil, fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", opts.BaseURL)
	}

	header := http.Header{}
	header.Set("Origin", origin.Scheme+"://"+origin.Host)
	if opts.SessionCookie != "" {
		header.Set("Cookie", (&http.Cookie{Name: "sessionid", Value: opts.SessionCookie}).String())
	}

	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	return &WSDialer{
		base:   base,
		header: header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
	}, nil
}

// URL returns the absolute websocket URL for an endpoint path. path is
// already escaped, as returned by ChatPath.
func (d *WSDialer) URL(path string) string {
	u := *d.base
	escaped := strings.TrimSuffix(d.base.EscapedPath(), "/") + path
	if p, err := url.PathUnescape(escaped); err == nil {
		u.Path, u.RawPath = p, escaped
	} else {
		u.Path, u.RawPath = escaped, ""
	}
	return u.String()
}

// Dial performs the websocket handshake.
func (d *WSDialer) Dial(ctx context.Context, path string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, d.URL(path), d.header.Clone())
	if err != nil {
		te := &Error{Op: "dial", Path: path, Err: err}
		if resp != nil {
			te.StatusCode = resp.StatusCode
		}
		return nil, te
	}
	return &wsConn{Conn: conn}, nil
}

// wsConn bounds every write with a deadline so a stalled peer cannot block
// the writer goroutine forever.
type wsConn struct {
	*websocket.Conn
}

func (c *wsConn) WriteMessage(messageType int, data []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// Close sends a close frame before dropping the connection.
func (c *wsConn) Close() error {
	_ = c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.Conn.Close()
}
