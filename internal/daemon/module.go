// Package daemon composes the application wiring.
package daemon

import (
	"context"

	"github.com/vhqueiroz/stickerd/internal/api"
	"github.com/vhqueiroz/stickerd/internal/bus"
	"github.com/vhqueiroz/stickerd/internal/catalog"
	"github.com/vhqueiroz/stickerd/internal/config"
	"github.com/vhqueiroz/stickerd/internal/ingest"
	"github.com/vhqueiroz/stickerd/internal/lock"
	"github.com/vhqueiroz/stickerd/internal/logging"
	"github.com/vhqueiroz/stickerd/internal/sender"
	"github.com/vhqueiroz/stickerd/internal/session"
	"github.com/vhqueiroz/stickerd/internal/status"
	"github.com/vhqueiroz/stickerd/internal/store"
	"github.com/vhqueiroz/stickerd/internal/wa"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks around the given configuration.
func Module(cfg *config.Config) fx.Option {
	return fx.Module("daemon",
		fx.Supply(cfg),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideAdapter,
			provideManager,
			provideIngestEngine,
			provideStorage,
			provideCatalog,
			provideSender,
			provideSessionService,
			provideStickerService,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	return logging.New(cfg.LogPath())
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(cfg *config.Config, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring data dir lock", zap.String("dir", cfg.DataDir))
	l, err := lock.Acquire(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired")
	return l, nil
}

func provideStore(cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	db, err := store.Open(cfg.DBPath())
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
	logger.Info("store initialized", zap.String("path", cfg.DBPath()))
	return db, nil
}

func provideAdapter(cfg *config.Config, logger *zap.Logger) *wa.Adapter {
	return wa.NewAdapter(cfg.CredentialDBPath(), cfg.DeviceName, logger)
}

func provideManager(adapter *wa.Adapter, machine *status.Machine, db *store.DB, b *bus.Bus, logger *zap.Logger) *session.Manager {
	return session.NewManager(adapter, machine, db, b, logger)
}

func provideIngestEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *ingest.Engine {
	return ingest.NewEngine(db, b, logger)
}

func provideStorage(cfg *config.Config) (*catalog.Storage, error) {
	return catalog.NewStorage(cfg.StickersDir)
}

func provideCatalog(db *store.DB, storage *catalog.Storage, manager *session.Manager, b *bus.Bus, logger *zap.Logger) *catalog.Service {
	return catalog.NewService(db, storage, manager, b, logger)
}

func provideSender(db *store.DB, svc *catalog.Service, manager *session.Manager, b *bus.Bus, logger *zap.Logger) *sender.Orchestrator {
	return sender.New(db, svc, manager, b, logger)
}

func provideSessionService(manager *session.Manager) *api.SessionService {
	return api.NewSessionService(manager)
}

func provideStickerService(svc *catalog.Service, orchestrator *sender.Orchestrator) *api.StickerService {
	return api.NewStickerService(svc, orchestrator)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, adapter *wa.Adapter, manager *session.Manager, engine *ingest.Engine, db *store.DB, logger *zap.Logger,
	// Pulled in so fx constructs the public services even before a
	// transport is embedded on top of them.
	_ *api.SessionService, _ *api.StickerService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			engine.Start()

			if adapter.HasCredentials(ctx) {
				go func() {
					if _, err := manager.Connect(context.Background()); err != nil {
						logger.Error("auto-connect failed", zap.Error(err))
					}
				}()
			} else {
				logger.Info("no credentials found, connect to pair via QR")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if _, err := manager.Disconnect(); err != nil {
				logger.Warn("error disconnecting session", zap.Error(err))
			}
			engine.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
