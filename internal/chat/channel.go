package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/matheus3301/volchat/internal/bus"
	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/transport"
	"go.uber.org/zap"
)

const sendQueueSize = 32

var (
	// ErrNotOpen is returned by Send when the channel is not in the Open state.
	ErrNotOpen = errors.New("chat channel is not open")
	// ErrQueueFull is returned by Send when the outbound queue is saturated.
	ErrQueueFull = errors.New("chat channel send queue is full")
)

// Dispatch receives every valid inbound message, in transport order, for one conversation.
type Dispatch func(conversationID string, m Message)

// Channel is the duplex chat stream of a single conversation.
type Channel struct {
	id       string
	connID   string
	dialer   transport.Dialer
	machine  *status.Machine
	dispatch Dispatch
	onClosed func(*Channel)
	logger   *zap.Logger

	out    chan []byte
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	conn      transport.Conn
	closeOnce sync.Once
}

func newChannel(id string, d transport.Dialer, b *bus.Bus, dispatch Dispatch, onClosed func(*Channel), logger *zap.Logger) *Channel {
	ctx, cancel := context.WithCancel(context.Background())
	connID := uuid.NewString()
	return &Channel{
		id:       id,
		connID:   connID,
		dialer:   d,
		machine:  status.NewMachine(id, b),
		dispatch: dispatch,
		onClosed: onClosed,
		logger:   logger.With(zap.String("conversation_id", id), zap.String("conn_id", connID)),
		out:      make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID returns the conversation id.
func (c *Channel) ID() string { return c.id }

// ConnID returns the unique id of this connection attempt.
func (c *Channel) ConnID() string { return c.connID }

// State returns the current connection state.
func (c *Channel) State() status.State { return c.machine.Current() }

// Done is closed once the channel reaches Closed.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Send queues text for delivery. Blank text is silently ignored.
// Delivery is fire-and-forget: no acknowledgement is awaited.
func (c *Channel) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.machine.Current() != status.Open {
		return ErrNotOpen
	}
	data, err := EncodeOutbound(text)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrNotOpen
	default:
	}
	select {
	case c.out <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close shuts the connection down. Frames still queued are discarded.
func (c *Channel) Close() {
	c.cancel()
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Channel) start() {
	go c.run()
}

func (c *Channel) run() {
	defer c.finish()

	conn, err := c.dialer.Dial(c.ctx, transport.ChatPath(c.id))
	if err != nil {
		if c.ctx.Err() == nil {
			c.logger.Warn("chat channel connect failed", zap.Error(err))
		}
		return
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	if c.ctx.Err() != nil {
		_ = conn.Close()
		return
	}
	if err := c.machine.Transition(status.Open); err != nil {
		_ = conn.Close()
		return
	}
	c.logger.Info("chat channel open")

	go c.writeLoop(conn)
	c.readLoop(conn)
}

func (c *Channel) readLoop(conn transport.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case c.ctx.Err() != nil, transport.IsNormalClose(err):
				c.logger.Info("chat channel disconnected")
			default:
				c.logger.Warn("chat channel transport error", zap.Error(err))
			}
			return
		}
		msg, err := ParseFrame(data)
		if err != nil {
			c.logger.Warn("dropping malformed chat frame", zap.Error(err), zap.Int("bytes", len(data)))
			continue
		}
		c.deliver(msg)
	}
}

func (c *Channel) writeLoop(conn transport.Conn) {
	for {
		select {
		case data := <-c.out:
			if err := conn.WriteMessage(transport.TextMessage, data); err != nil {
				c.logger.Warn("chat channel write failed", zap.Error(err))
				_ = conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// deliver hands a message to the dispatch callback. A panicking callback is
// logged and does not take the connection down.
func (c *Channel) deliver(m Message) {
	if c.dispatch == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("chat dispatch panicked", zap.Any("panic", r))
		}
	}()
	c.dispatch(c.id, m)
}

func (c *Channel) finish() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.machine.Close()
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		if c.onClosed != nil {
			c.onClosed(c)
		}
		c.logger.Info("chat channel closed")
	})
}
