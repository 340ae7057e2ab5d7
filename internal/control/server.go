// Package control serves a local HTTP/JSON API on the profile's unix socket.
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/matheus3301/volchat/internal/chat"
	"github.com/matheus3301/volchat/internal/core"
	"github.com/matheus3301/volchat/internal/notify"
	"github.com/matheus3301/volchat/internal/store"
	"go.uber.org/zap"
)

// Service is the client surface the control API exposes.
type Service interface {
	Status() core.Status
	Conversations() []core.ConversationInfo
	Select(id string) error
	Send(id, text string) error
	Connect(id string) (*chat.Channel, error)
	ClearIndicator(kind notify.Kind) bool
}

// Server manages the control API lifecycle for a profile.
type Server struct {
	http       *http.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger
}

// NewServer creates a server bound to the given unix socket.
func NewServer(socketPath string, svc Service, db *store.DB, allowedOrigins []string, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	return &Server{
		http: &http.Server{
			Handler:           NewRouter(svc, db, allowedOrigins, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
	}, nil
}

// Start serves requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("control server starting", zap.String("socket", s.socketPath))
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop performs a graceful shutdown and removes the socket file.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("control server stopping")
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("control server shutdown", zap.Error(err))
	}
	_ = os.Remove(s.socketPath)
}

// NewRouter builds the control API routes.
func NewRouter(svc Service, db *store.DB, allowedOrigins []string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{svc: svc, db: db, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/status", h.status)
	r.Get("/search", h.search)
	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", h.listConversations)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/messages", h.listMessages)
			r.Post("/messages", h.send)
			r.Post("/select", h.selectConversation)
			r.Post("/connect", h.connect)
		})
	})
	r.Post("/indicators/{kind}/clear", h.clearIndicator)
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("control request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
