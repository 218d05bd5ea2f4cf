// Package app wires infrastructure and services into a runnable bot.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/b10t/fish-shop/core/config"
	coredatabase "github.com/b10t/fish-shop/core/database"
	"github.com/b10t/fish-shop/core/logger"
	"github.com/b10t/fish-shop/core/netutil"
	coretelegram "github.com/b10t/fish-shop/core/telegram"
	"github.com/b10t/fish-shop/internal/bot"
	"github.com/b10t/fish-shop/internal/checkout"
	"github.com/b10t/fish-shop/internal/moltin"
	"github.com/b10t/fish-shop/internal/session"
	"github.com/b10t/fish-shop/internal/shop"
)

// App holds the composed application.
type App struct {
	cfg *coreconfig.Config

	redis *redis.Client
	db    *sqlx.DB // nil when checkout storage is disabled

	router  *shop.Router
	sender  *bot.Sender
	adapter *bot.Adapter
}

// Bootstrap initializes the logger, connects infrastructure and wires the
// conversation router. Any failure here is startup-fatal.
func Bootstrap(cfg *coreconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("app: logger init failed: %w", err)
	}

	rdb, err := session.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("app: redis initialization failed: %w", err)
	}
	states := session.NewRedisStore(rdb)

	httpClient := netutil.NewHTTPClient()
	tokens := moltin.NewTokenSource(moltin.TokenSourceOptions{
		BaseURL:    cfg.Moltin.BaseURL,
		ClientID:   cfg.Moltin.ClientID,
		HTTPClient: httpClient,
	})
	commerce := moltin.NewClient(moltin.ClientOptions{
		BaseURL:       cfg.Moltin.BaseURL,
		Tokens:        tokens,
		HTTPClient:    httpClient,
		FallbackImage: cfg.Moltin.FallbackImage,
	})

	var (
		db        *sqlx.DB
		checkouts shop.CheckoutRecorder
	)
	if cfg.Database.Enabled() {
		db, err = coredatabase.Connect(cfg.Database)
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("app: database initialization failed: %w", err)
		}
		if err := coredatabase.RunMigrations(cfg.Database); err != nil {
			_ = db.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("app: migrations failed: %w", err)
		}
		checkouts = checkout.NewStorage(db)
	}

	sender := bot.NewSender()
	router, err := shop.NewRouter(shop.RouterOptions{
		States:    states,
		Commerce:  commerce,
		Sender:    sender,
		Checkouts: checkouts,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		_ = rdb.Close()
		return nil, fmt.Errorf("app: router wiring failed: %w", err)
	}

	return &App{
		cfg:     cfg,
		redis:   rdb,
		db:      db,
		router:  router,
		sender:  sender,
		adapter: bot.NewAdapter(router),
	}, nil
}

// TelegramRunOptions builds run options for the Telegram run loop.
func (a *App) TelegramRunOptions() coretelegram.RunOptions {
	return coretelegram.RunOptions{
		Config: a.cfg,
		Routes: a.adapter.Routes(),
		OnStart: func(_ context.Context, b *tele.Bot) error {
			a.sender.Bind(b)
			return nil
		},
	}
}

// Close releases infrastructure connections.
func (a *App) Close() error {
	var firstErr error
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
