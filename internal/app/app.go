package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fleura/storefront/internal/cart"
	"github.com/fleura/storefront/internal/config"
	"github.com/fleura/storefront/internal/kv"
	"github.com/fleura/storefront/internal/logging"
	"github.com/fleura/storefront/internal/metrics"
	"github.com/fleura/storefront/internal/modal"
	"github.com/fleura/storefront/internal/session"
	"github.com/fleura/storefront/internal/shopify"
	"github.com/fleura/storefront/internal/ui"
	"github.com/fleura/storefront/internal/wishlist"
)

// Options configure the Fleura application.
type Options struct {
	ConfigPath  string
	EnvPath     string // empty uses ./.env when present
	SyncEvery   int    // seconds; zero uses default
	MetricsAddr string // overrides metrics_addr from the config
}

// Services is everything Run builds before the UI starts.
type Services struct {
	Config   config.Config
	Logger   *logrus.Logger
	Metrics  *metrics.Recorder
	Client   *shopify.Client
	Store    kv.Store
	Session  *session.Container
	Cart     *cart.Container
	Wishlist *wishlist.Container
	Modal    *modal.Guard
}

// Build wires the gateway client, store and containers from cfg.
func Build(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	rec := metrics.New()

	client, err := shopify.NewClient(shopify.ClientConfig{
		Endpoint:          cfg.Endpoint(),
		StorefrontToken:   cfg.StorefrontToken,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
		Metrics:           rec,
	})
	if err != nil {
		return nil, fmt.Errorf("init storefront client: %w", err)
	}

	store, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage, err)
	}

	return &Services{
		Config:  cfg,
		Logger:  logger,
		Metrics: rec,
		Client:  client,
		Store:   store,
		Session: session.New(client, store,
			session.WithLogger(logger),
			session.WithOrdersPageSize(cfg.OrdersPageSize),
			session.WithMetrics(rec),
		),
		Cart: cart.New(client, store,
			cart.WithLogger(logger),
			cart.WithMetrics(rec),
		),
		Wishlist: wishlist.New(store, logger),
		Modal:    modal.New(),
	}, nil
}

// Start resolves the stored session, wishlist and cart concurrently. None of
// them can fail startup; their failures are logged and reflected in state.
// An unreadable wishlist is retried until it loads or ctx ends.
func (s *Services) Start(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		s.Session.Init(ctx)
		return nil
	})
	g.Go(func() error {
		loadWithRetry(ctx, s.Wishlist, wishlistRetry, logging.Component(s.Logger, "wishlist"))
		return nil
	})
	g.Go(func() error {
		s.Cart.Seed(ctx)
		return nil
	})
	_ = g.Wait()
}

// wishlistRetry is the first delay before reading the wishlist again.
var wishlistRetry = time.Second

// Loader reads persisted state once.
type Loader interface {
	Load(ctx context.Context) error
}

// loadWithRetry calls l.Load until it succeeds or ctx ends, backing off
// between attempts like the poller.
func loadWithRetry(ctx context.Context, l Loader, base time.Duration, log logrus.FieldLogger) {
	for failures := 0; ; failures++ {
		err := l.Load(ctx)
		if err == nil {
			if failures > 0 {
				log.WithField("after_failures", failures).Info("load recovered")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).WithField("failures", failures+1).Warn("load failed")

		timer := time.NewTimer(calculateBackoff(failures, base))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Close releases the store when it holds a connection.
func (s *Services) Close() error {
	if c, ok := s.Store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Run boots the Fleura TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}

	logger, closer, err := logging.Setup(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	svc, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := svc.Metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.WithError(err).Error("metrics listener stopped")
			}
		}()
	}

	logger.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint(),
		"storage":  cfg.Storage,
	}).Info("fleura starting")

	// The UI renders placeholders until these resolve.
	go svc.Start(ctx)

	interval := defaultSyncInterval
	if opts.SyncEvery > 0 {
		interval = time.Duration(opts.SyncEvery) * time.Second
	}
	StartPoller(ctx, svc.Cart, interval, logging.Component(logger, "poller"))

	theme := kv.GetOr(ctx, svc.Store, kv.KeyTheme, "")
	err = ui.Run(ui.Options{
		Context:   ctx,
		Catalog:   svc.Client,
		Session:   svc.Session,
		Cart:      svc.Cart,
		Wishlist:  svc.Wishlist,
		Modal:     svc.Modal,
		Store:     svc.Store,
		Logger:    logger,
		LogPath:   cfg.LogPath,
		ThemeName: theme,
	})
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
