// Package app assembles a running client for one profile.
package app

import (
	"context"

	"github.com/matheus3301/volchat/internal/api"
	"github.com/matheus3301/volchat/internal/archive"
	"github.com/matheus3301/volchat/internal/bus"
	"github.com/matheus3301/volchat/internal/chat"
	"github.com/matheus3301/volchat/internal/config"
	"github.com/matheus3301/volchat/internal/control"
	"github.com/matheus3301/volchat/internal/core"
	"github.com/matheus3301/volchat/internal/lock"
	"github.com/matheus3301/volchat/internal/logging"
	"github.com/matheus3301/volchat/internal/notify"
	"github.com/matheus3301/volchat/internal/session"
	"github.com/matheus3301/volchat/internal/store"
	"github.com/matheus3301/volchat/internal/transport"
	"github.com/matheus3301/volchat/internal/view"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Params holds the resolved profile passed to the fx module.
type Params struct {
	ProfileName string
	Profile     config.Profile
	SocketPath  string // optional override for testing; empty = use default
	// Console mirrors logs to stderr. The terminal UI owns the screen and
	// leaves it off.
	Console bool
}

// Module returns the fx module for a client, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("volchat",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideDialer,
			provideState,
			providePresenter,
			notify.NewIndicators,
			provideRegistry,
			provideHub,
			archive.NewEngine,
			provideAPI,
			provideCore,
			provideControl,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ZapEvents routes fx's own lifecycle events into the client logger.
func ZapEvents() fx.Option {
	return fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: l.Named("fx")}
	})
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.ProfileName), p.ProfileName, p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(session.Dir(p.ProfileName), p.Profile.UserID)
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideStore depends on the lock so the archive is never opened by two
// processes.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.ArchivePath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("archive initialized", zap.String("path", dbPath))
	return db, nil
}

func provideDialer(p Params) (transport.Dialer, error) {
	d, err := transport.NewWSDialer(transport.Options{
		BaseURL:       p.Profile.BaseURL,
		SessionCookie: p.Profile.SessionCookie,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func provideState(p Params, b *bus.Bus) *view.State {
	return view.NewState(p.Profile.UserID, b)
}

func providePresenter(p Params) *notify.Presenter {
	return notify.NewPresenter(p.Profile.GenericPopupTTL.Duration, p.Profile.MessagePopupTTL.Duration)
}

func provideRegistry(d transport.Dialer, state *view.State, b *bus.Bus, logger *zap.Logger) *chat.Registry {
	return chat.NewRegistry(d, state.Deliver, b, logger)
}

func provideHub(d transport.Dialer, b *bus.Bus, pr *notify.Presenter, ind *notify.Indicators, state *view.State, logger *zap.Logger) *notify.Hub {
	return notify.NewHub(d, b, pr, ind, state, logger)
}

func provideAPI(p Params, logger *zap.Logger) (*api.Client, error) {
	return api.New(api.Options{
		BaseURL:       p.Profile.BaseURL,
		SessionCookie: p.Profile.SessionCookie,
		CSRFToken:     p.Profile.CSRFToken,
	}, logger)
}

type coreDeps struct {
	fx.In

	Params     Params
	State      *view.State
	Registry   *chat.Registry
	Hub        *notify.Hub
	Indicators *notify.Indicators
	Presenter  *notify.Presenter
	API        *api.Client
	Archive    *archive.Engine
	DB         *store.DB
	Logger     *zap.Logger
}

func provideCore(d coreDeps) *core.Core {
	return core.New(core.Options{
		ProfileName: d.Params.ProfileName,
		Profile:     d.Params.Profile,
	}, core.Deps{
		State:      d.State,
		Registry:   d.Registry,
		Hub:        d.Hub,
		Indicators: d.Indicators,
		Presenter:  d.Presenter,
		API:        d.API,
		Archive:    d.Archive,
		DB:         d.DB,
		Logger:     d.Logger,
	})
}

func provideControl(p Params, c *core.Core, db *store.DB, logger *zap.Logger) (*control.Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = session.SocketPath(p.ProfileName)
	}
	return control.NewServer(socketPath, c, db, p.Profile.ControlAllowedOrigins, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *control.Server, c *core.Core, engine *archive.Engine, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The archive subscribes before the core publishes anything.
			engine.Start(context.Background())
			c.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("control server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			c.Stop()
			engine.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing archive", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
