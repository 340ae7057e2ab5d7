package notify

import (
	"context"

	"github.com/matheus3301/volchat/internal/bus"
	"github.com/matheus3301/volchat/internal/status"
	"github.com/matheus3301/volchat/internal/transport"
	"go.uber.org/zap"
)

// Location tells the hub whether the user is looking at the messaging section.
type Location interface {
	InMessaging() bool
}

// Hub owns both notification listeners and routes their events to the
// presenter and the indicators.
type Hub struct {
	listeners  []*Listener
	presenter  *Presenter
	indicators *Indicators
	location   Location
	bus        *bus.Bus
	logger     *zap.Logger
}

// NewHub creates the generic and message listeners. Nothing is dialed until Start.
func NewHub(d transport.Dialer, b *bus.Bus, p *Presenter, ind *Indicators, loc Location, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		presenter:  p,
		indicators: ind,
		location:   loc,
		bus:        b,
		logger:     logger,
	}
	for _, k := range Kinds {
		h.listeners = append(h.listeners, NewListener(k, d, b, h.Handle, logger))
	}
	return h
}

// Start dials both streams once.
func (h *Hub) Start(ctx context.Context) {
	for _, l := range h.listeners {
		l.Start(ctx)
	}
}

// Stop closes both streams and waits for their read loops to finish.
func (h *Hub) Stop() {
	for _, l := range h.listeners {
		l.Stop()
	}
	for _, l := range h.listeners {
		<-l.Done()
	}
}

// States returns the connection state of each stream.
func (h *Hub) States() map[Kind]status.State {
	out := make(map[Kind]status.State, len(h.listeners))
	for _, l := range h.listeners {
		out[l.Kind()] = l.State()
	}
	return out
}

// Handle routes one notification. Message notifications are swallowed while
// the messaging section is on screen.
func (h *Hub) Handle(evt Event) {
	if evt.Kind == KindMessage && h.location != nil && h.location.InMessaging() {
		h.logger.Debug("message notification suppressed", zap.String("title", evt.Title))
		h.publish(bus.Event{Kind: bus.NotifySuppressed, Key: string(evt.Kind), Payload: evt})
		return
	}
	if h.presenter != nil {
		h.presenter.Show(evt)
	}
	if h.indicators != nil {
		h.indicators.Set(evt.Kind)
	}
	h.publish(bus.Event{Kind: bus.NotifyReceived, Key: string(evt.Kind), Payload: evt})
}

func (h *Hub) publish(evt bus.Event) {
	if h.bus != nil {
		h.bus.Publish(evt)
	}
}
