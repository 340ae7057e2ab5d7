// Package transporttest provides in-memory websocket fakes for tests.
package transporttest

import (
	"context"
	"errors"
	"sync"

	"github.com/matheus3301/volchat/internal/transport"
)

// ErrClosed is returned by a Conn after Close.
var ErrClosed = errors.New("fake conn closed")

// Conn is an in-memory transport.Conn. Frames pushed into In are returned
// by ReadMessage in order; writes are recorded.
type Conn struct {
	In chan []byte

	mu      sync.Mutex
	written [][]byte

	closed    chan struct{}
	closeOnce sync.Once
}

// NewConn creates an open Conn.
func NewConn() *Conn {
	return &Conn{
		In:     make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (c *Conn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.In:
		return transport.TextMessage, data, nil
	case <-c.closed:
		return 0, nil, ErrClosed
	}
}

func (c *Conn) WriteMessage(_ int, data []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Written returns every recorded outbound frame.
func (c *Conn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.written))
	for i, w := range c.written {
		out[i] = string(w)
	}
	return out
}

// Dialer hands out Conns keyed by endpoint path. Err and Hold must be set
// before the first Dial.
type Dialer struct {
	Err  error
	Hold chan struct{} // when set, Dial blocks until closed or ctx is done

	mu    sync.Mutex
	conns map[string]*Conn
	dials map[string]int
}

// NewDialer creates a Dialer whose dials succeed.
func NewDialer() *Dialer {
	return &Dialer{
		conns: make(map[string]*Conn),
		dials: make(map[string]int),
	}
}

func (d *Dialer) Dial(ctx context.Context, path string) (transport.Conn, error) {
	d.mu.Lock()
	d.dials[path]++
	err, hold := d.Err, d.Hold
	d.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	conn := NewConn()
	d.mu.Lock()
	d.conns[path] = conn
	d.mu.Unlock()
	return conn, nil
}

// Dials returns how many times path was dialed.
func (d *Dialer) Dials(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials[path]
}

// Conn returns the latest connection dialed on path, or nil.
func (d *Dialer) Conn(path string) *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[path]
}
