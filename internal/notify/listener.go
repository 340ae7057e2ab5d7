package notify

import (
	"context"
	"sync"

	"github.com/matheus3301/volchat/internal/bus"
	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/transport"
	"go.uber.org/zap"
)

// Handler receives every parsed notification of a stream, in arrival order.
type Handler func(Event)

// Listener is the receive-only connection of one notification stream. It is
// dialed at most once and never re-created after it closes.
type Listener struct {
	kind    Kind
	dialer  transport.Dialer
	machine *status.Machine
	handle  Handler
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	conn      transport.Conn
	startOnce sync.Once
	closeOnce sync.Once
}

// NewListener creates a listener in the Connecting state. Nothing is dialed
// until Start.
func NewListener(kind Kind, d transport.Dialer, b *bus.Bus, handle Handler, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		kind:    kind,
		dialer:  d,
		machine: status.NewMachine("notify."+string(kind), b),
		handle:  handle,
		logger:  logger.With(zap.String("kind", string(kind))),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Kind returns the stream this listener serves.
func (l *Listener) Kind() Kind { return l.kind }

// State returns the connection state.
func (l *Listener) State() status.State { return l.machine.Current() }

// Done is closed once the listener reaches Closed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Start dials the stream and reads it in the background. Only the first call
// has any effect; ctx cancellation closes the listener.
func (l *Listener) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		stop := context.AfterFunc(ctx, l.Stop)
		go func() {
			defer stop()
			l.run()
		}()
	})
}

// Stop closes the listener. A listener stopped before Start never dials.
func (l *Listener) Stop() {
	l.startOnce.Do(l.finish)
	l.cancel()
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (l *Listener) run() {
	defer l.finish()

	conn, err := l.dialer.Dial(l.ctx, l.kind.Path())
	if err != nil {
		if l.ctx.Err() == nil {
			l.logger.Warn("notification channel connect failed", zap.Error(err))
		}
		return
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	if l.ctx.Err() != nil {
		_ = conn.Close()
		return
	}
	if err := l.machine.Transition(status.Open); err != nil {
		_ = conn.Close()
		return
	}
	l.logger.Info("notification channel open")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case l.ctx.Err() != nil, transport.IsNormalClose(err):
				l.logger.Info("notification channel disconnected")
			default:
				l.logger.Warn("notification channel transport error", zap.Error(err))
			}
			return
		}
		evt, err := ParseFrame(l.kind, data)
		if err != nil {
			l.logger.Warn("dropping malformed notification frame", zap.Error(err), zap.Int("bytes", len(data)))
			continue
		}
		l.deliver(evt)
	}
}

func (l *Listener) deliver(evt Event) {
	if l.handle == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("notification handler panicked", zap.Any("panic", r))
		}
	}()
	l.handle(evt)
}

func (l *Listener) finish() {
	l.closeOnce.Do(func() {
		l.cancel()
		l.machine.Close()
		close(l.done)
		l.mu.Lock()
		conn := l.conn
		l.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		l.logger.Info("notification channel closed")
	})
}
