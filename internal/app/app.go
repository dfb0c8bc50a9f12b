// Package app assembles the storefront from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/analytics"
	"storefront/internal/api/handlers"
	"storefront/internal/assistant"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/repository"
	"storefront/internal/storage"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type App struct {
	Store     storage.Backend
	Products  repository.ProductRepository
	Orders    repository.OrderRepository
	Cart      *cart.Engine
	Ledger    *orders.Ledger
	Assistant *assistant.Assistant

	events *analytics.Async
	redis  *redis.Client
	// storeOwnsRedis is set when closing Store also closes redis.
	storeOwnsRedis bool
	unsubscribe    func()
}

// NewLogger builds the process logger. format is "text" or "json".
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New connects the configured backends and wires every component.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	if cfg.RedisURL != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
	}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		a.closeRedis()
		return nil, err
	}
	a.Store = store

	seed, err := repository.LoadSeed(cfg.SeedFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Products = repository.NewProductRepository(ctx, store, seed)
	a.Orders = repository.NewOrderRepository(ctx, store)
	a.Cart = cart.NewEngine()
	a.events = analytics.NewAsync(a.sink(cfg), 10*time.Second)
	a.Ledger = orders.NewLedger(a.Orders, a.events)

	var gen assistant.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := assistant.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			a.Close()
			return nil, err
		}
		gen = g
	} else {
		slog.Info("GEMINI_API_KEY not set, assistant will return placeholders")
	}
	a.Assistant = assistant.New(gen)

	a.unsubscribe = a.Cart.Subscribe(func(s cart.Snapshot) {
		slog.Debug("cart changed", "lines", len(s.Lines), "items", s.ItemCount, "total", s.Total)
	})

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.StoreBackend {
	case BackendMemory:
		return storage.NewMemory(), nil
	case BackendFile:
		return storage.NewFile(cfg.DataDir)
	case BackendRedis:
		if a.redis == nil {
			return nil, fmt.Errorf("store backend %q requires REDIS_URL", cfg.StoreBackend)
		}
		a.storeOwnsRedis = true
		return cache.NewRedisBackend(a.redis), nil
	case BackendPostgres:
		pool, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}

		docs := database.NewDocumentStore(pool)
		if a.redis == nil {
			return docs, nil
		}
		a.storeOwnsRedis = true
		return cache.NewCachedBackend(docs, a.redis, cfg.CacheTTL), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// sink picks the tracking pixel when configured, the log otherwise, and
// adds a redis channel when one is named.
func (a *App) sink(cfg *config.Config) analytics.Sink {
	var sinks analytics.Multi

	if cfg.PixelID != "" {
		client := &http.Client{Timeout: 5 * time.Second}
		sinks = append(sinks, analytics.NewPixelSink(client, cfg.PixelEndpoint, cfg.PixelID))
	} else {
		sinks = append(sinks, analytics.LogSink{Logger: slog.Default()})
	}

	if cfg.AnalyticsChannel != "" && a.redis != nil {
		sinks = append(sinks, analytics.NewRedisSink(a.redis, cfg.AnalyticsChannel))
	}

	if len(sinks) == 1 {
		return sinks[0]
	}
	return sinks
}

func (a *App) Handler() http.Handler {
	return handlers.NewRouter(handlers.Deps{
		Products:  a.Products,
		Cart:      a.Cart,
		Ledger:    a.Ledger,
		Assistant: a.Assistant,
	})
}

// Checkout places an order for the current cart.
func (a *App) Checkout(ctx context.Context, details models.CustomerDetails) (*models.Order, error) {
	return a.Ledger.Checkout(ctx, a.Cart, details)
}

// Close flushes pending analytics and releases the backends.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.events != nil {
		a.events.Close()
	}

	var err error
	if a.Store != nil {
		err = a.Store.Close()
	}
	if !a.storeOwnsRedis {
		a.closeRedis()
	}
	return err
}

func (a *App) closeRedis() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		slog.Warn("failed to close redis", "error", err)
	}
}
