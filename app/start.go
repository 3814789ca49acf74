package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gamehttp "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/http"
	"github.com/Black-And-White-Club/party-bot/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run starts the modules, the message router and the HTTP listeners, and
// blocks until ctx is canceled or the router stops.
func (app *App) Run(ctx context.Context) error {
	app.wg.Add(1)
	go app.GameModule.Run(ctx, &app.wg)

	app.serve(app.httpServer)
	app.serve(app.metricsServer)

	app.Logger.Info("Starting message router")
	if err := app.Router.Run(ctx); err != nil {
		return err
	}
	return nil
}

func (app *App) serve(srv *http.Server) {
	if srv == nil {
		return
	}
	app.Logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("HTTP server failed", slog.String("address", srv.Addr), slog.Any("error", err))
		}
	}()
}

func (app *App) httpHandler(tokens jwt.Service, limiter *gamehttp.IPRateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.GameModule.Queue.HealthCheck(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	app.GameModule.HTTP.Mount(r, tokens, limiter)
	return r
}

func (app *App) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
	return mux
}
