package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/party-bot/app/modules/game"
	gamehttp "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/http"
	gamerouter "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/router"
	"github.com/Black-And-White-Club/party-bot/config"
	"github.com/Black-And-White-Club/party-bot/pkg/eventbus"
	"github.com/Black-And-White-Club/party-bot/pkg/jwt"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

// App holds the process-wide infrastructure and the modules built on it.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	DB         *bun.DB
	EventBus   eventbus.EventBus
	Router     *message.Router
	Registry   *prometheus.Registry
	GameModule *game.Module

	httpServer    *http.Server
	metricsServer *http.Server
	wg            sync.WaitGroup
}

// NewApp initializes the application with the necessary services and configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	app.DB = bun.NewDB(pgdb, pgdialect.New())
	if err := app.DB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus, err := eventbus.NewNATS(ctx, eventbus.Config{
		URL:      cfg.NATS.URL,
		NKeySeed: cfg.NATS.NKeySeed,
	}, logger)
	if err != nil {
		app.DB.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = eventBus

	router, err := gamerouter.NewMessageRouter(logger)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}
	app.Router = router

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gameModule, err := game.NewGameModule(ctx, cfg, logger, app.DB, eventBus, router, app.Registry, otel.Tracer("party-bot"))
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to initialize game module: %w", err)
	}
	app.GameModule = gameModule

	tokens := jwt.NewService(cfg.JWT.Secret, cfg.JWT.DefaultTTL)
	limiter := gamehttp.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
	app.httpServer = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           app.httpHandler(tokens, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.Observability.MetricsAddress != "" {
		app.metricsServer = &http.Server{
			Addr:              cfg.Observability.MetricsAddress,
			Handler:           app.metricsHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return app, nil
}

func (app *App) closeInfra() {
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			app.Logger.Error("Failed to close event bus", slog.Any("error", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database", slog.Any("error", err))
		}
	}
}

// Close shuts the application down in reverse start order.
func (app *App) Close(ctx context.Context) error {
	var errs []error

	for _, srv := range []*http.Server{app.httpServer, app.metricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
		}
	}
	if app.GameModule != nil {
		if err := app.GameModule.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.wg.Wait()
	app.closeInfra()

	return errors.Join(errs...)
}
