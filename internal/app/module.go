// Package app composes the client: configuration, per-profile storage and
// lock, the session, the gateway and every store, wired up with fx so the
// pollers start and stop with the process.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"crafthub/internal/account"
	"crafthub/internal/bus"
	"crafthub/internal/cart"
	"crafthub/internal/catalog"
	"crafthub/internal/chat"
	"crafthub/internal/config"
	"crafthub/internal/gateway"
	"crafthub/internal/lock"
	"crafthub/internal/logging"
	"crafthub/internal/notify"
	"crafthub/internal/orders"
	"crafthub/internal/profile"
	"crafthub/internal/reviews"
	"crafthub/internal/session"
	"crafthub/internal/store"
)

// Params holds the resolved launch configuration passed to the fx module.
type Params struct {
	ProfileName string
	Console     bool // mirror logs to stderr; off under the TUI
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("app",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideSession,
			provideGateway,
			provideCart,
			provideNotifications,
			provideChat,
			catalog.New,
			orders.New,
			reviews.New,
			account.New,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	return config.Load(profile.ConfigPath())
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName, p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
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
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideSession(db *store.DB, b *bus.Bus) (*session.Store, error) {
	return session.New(db, b)
}

func provideGateway(cfg *config.Config, sessions *session.Store, logger *zap.Logger) *gateway.Client {
	return gateway.New(cfg.BaseURL, sessions, logger)
}

func provideCart(api *gateway.Client, b *bus.Bus) *cart.Store {
	return cart.New(api, b)
}

func provideNotifications(cfg *config.Config, api *gateway.Client, b *bus.Bus, logger *zap.Logger) *notify.Store {
	return notify.New(api, b, logger, cfg.NotifyPollInterval())
}

func provideChat(cfg *config.Config, api *gateway.Client, b *bus.Bus, logger *zap.Logger) *chat.Store {
	return chat.New(api, b, logger, cfg.ChatPollInterval())
}

func registerLifecycle(lc fx.Lifecycle, b *bus.Bus, lk *lock.Lock, db *store.DB, sessions *session.Store, carts *cart.Store, notifications *notify.Store, chats *chat.Store, logger *zap.Logger) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Stores run against the process context, not the fx start
			// deadline; they stop via OnStop.
			ctx, c := context.WithCancel(context.Background())
			cancel = c

			carts.Start(ctx)
			if sessions.Authenticated() {
				notifications.Start(ctx)
				chats.Start(ctx)
			}

			// Pollers follow the session: login starts them, teardown
			// stops them.
			events, unsub := b.Subscribe("session.", 16)
			go func() {
				defer unsub()
				for {
					select {
					case <-ctx.Done():
						return
					case ev := <-events:
						switch ev.Kind {
						case bus.KindSessionChanged:
							notifications.Start(ctx)
							chats.Start(ctx)
						case bus.KindSessionCleared:
							notifications.Stop()
							chats.Stop()
						}
					}
				}
			}()

			logger.Info("client started", zap.Bool("authenticated", sessions.Authenticated()))
			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
			}
			chats.Stop()
			notifications.Stop()
			carts.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
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
