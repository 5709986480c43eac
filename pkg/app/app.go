package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tableflip.dev/questlog/pkg/account"
	"tableflip.dev/questlog/pkg/config"
	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/docstore/memory"
	"tableflip.dev/questlog/pkg/docstore/sqlite"
	"tableflip.dev/questlog/pkg/icons"
	"tableflip.dev/questlog/pkg/progress"
	"tableflip.dev/questlog/pkg/quest"
	"tableflip.dev/questlog/pkg/realtime"
	"tableflip.dev/questlog/pkg/session"
)

// Service owns the store connection, the session and the managers built on
// them. UIs and CLIs share it rather than reaching for globals.
type Service struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     docstore.Store
	Session   session.Store
	Bootstrap *session.Bootstrap
	Resolver  *account.Resolver
	Lifecycle *account.Lifecycle
	Quests    *quest.Manager
	Channel   *realtime.Channel
	Icons     *icons.Catalog

	app *fx.App
}

// Module provides every component of a Service. It expects a
// *config.Config and a zerolog.Logger to be supplied.
var Module = fx.Options(
	fx.Provide(provideStore),
	fx.Provide(provideSession),
	fx.Provide(provideBootstrap),
	fx.Provide(func(s *session.DiskStore) session.Store { return s }),
	fx.Provide(func(s docstore.Store, ss session.Store, log zerolog.Logger) *account.Resolver {
		return account.NewResolver(s, ss, nil, log)
	}),
	fx.Provide(account.NewLifecycle),
	fx.Provide(func(s docstore.Store, ss session.Store, log zerolog.Logger) *quest.Manager {
		return quest.NewManager(s, ss, quest.WithLogger(log))
	}),
	fx.Provide(provideChannel),
	fx.Provide(provideIcons),
	fx.Provide(newService),
)

// New assembles and starts a Service. Close releases it.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	var svc *Service
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Supply(logger),
		Module,
		fx.Populate(&svc),
	)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("app: assemble: %w", err)
	}
	if err := fxApp.Start(ctx); err != nil {
		return nil, fmt.Errorf("app: start: %w", err)
	}
	svc.app = fxApp
	return svc, nil
}

// Close stops everything New started.
func (s *Service) Close() error {
	if s == nil || s.app == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.app.Stop(ctx)
}

// Watch follows the active account. It fails with errs.ErrNoAccount when
// nobody is logged in.
func (s *Service) Watch(ctx context.Context) (*realtime.Subscription, error) {
	key, ok, err := s.Session.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		key = ""
	}
	return s.Channel.Subscribe(ctx, key)
}

// Progress scores the active account's quests.
func (s *Service) Progress(ctx context.Context) ([]quest.Quest, progress.Snapshot, error) {
	quests, err := s.Quests.List(ctx)
	if err != nil {
		return nil, progress.Snapshot{}, err
	}
	return quests, progress.Compute(quests), nil
}

type serviceParams struct {
	fx.In

	Config    *config.Config
	Logger    zerolog.Logger
	Store     docstore.Store
	Session   session.Store
	Bootstrap *session.Bootstrap
	Resolver  *account.Resolver
	Lifecycle *account.Lifecycle
	Quests    *quest.Manager
	Channel   *realtime.Channel
	Icons     *icons.Catalog
}

func newService(p serviceParams) *Service {
	return &Service{
		Config:    p.Config,
		Logger:    p.Logger,
		Store:     p.Store,
		Session:   p.Session,
		Bootstrap: p.Bootstrap,
		Resolver:  p.Resolver,
		Lifecycle: p.Lifecycle,
		Quests:    p.Quests,
		Channel:   p.Channel,
		Icons:     p.Icons,
	}
}

func provideStore(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (docstore.Store, error) {
	var store docstore.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		store = memory.New()
	case config.DriverSQLite:
		if err := cfg.EnsureDirs(); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := sqlite.Open(ctx, cfg.StorePath, logger, sqlite.WithThrottle(cfg.Throttle))
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.StoreDriver)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := store.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing store")
				return err
			}
			return nil
		},
	})
	return store, nil
}

func provideSession(cfg *config.Config) (*session.DiskStore, error) {
	if cfg.StoreDriver == config.DriverMemory && cfg.SessionPath == "" {
		return session.NewMemory(), nil
	}
	return session.Open(cfg.SessionPath)
}

func provideBootstrap(lc fx.Lifecycle, s *session.DiskStore, logger zerolog.Logger) *session.Bootstrap {
	b := session.NewBootstrap(s)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := b.SignIn(ctx); err != nil {
				return err
			}
			logger.Debug().Str("device", b.Subject()).Msg("device session ready")
			return nil
		},
	})
	return b
}

func provideChannel(store docstore.Store, b *session.Bootstrap, cfg *config.Config, logger zerolog.Logger) *realtime.Channel {
	return realtime.NewChannel(store, b, cfg.OnlineCheckInterval, logger)
}

func provideIcons(cfg *config.Config, logger zerolog.Logger) *icons.Catalog {
	return icons.New(
		icons.WithURLs(cfg.IconsListingURL, cfg.IconsAssetsURL),
		icons.WithLogger(logger),
	)
}
