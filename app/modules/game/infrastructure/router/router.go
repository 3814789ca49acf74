package gamerouter

import (
	"context"
	"log/slog"
	"os"
	"time"

	gameevents "github.com/Black-And-White-Club/party-bot/app/modules/game/events"
	gamehandlers "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/handlers"
	"github.com/Black-And-White-Club/party-bot/pkg/eventbus"
	"github.com/Black-And-White-Club/party-bot/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// GameRouter handles Watermill handler registration for game events.
type GameRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	tracer     trace.Tracer

	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewGameRouter creates a new GameRouter. Router metrics are registered on
// registry unless APP_ENV=test.
func NewGameRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	registry prometheus.Registerer,
) *GameRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && !inTestEnv {
		b := metrics.NewPrometheusMetricsBuilder(registry, "party_bot", "game")
		metricsBuilder = &b
	}

	return &GameRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// NewMessageRouter builds the watermill router shared by the modules with
// panic recovery, correlation ids and retries.
func NewMessageRouter(logger *slog.Logger) (*message.Router, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, wmLogger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
	)
	return router, nil
}

// Configure sets up the router with handlers.
func (r *GameRouter) Configure(_ context.Context, handlers gamehandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
}

// registerHandlers wires event topics to handler methods.
func (r *GameRouter) registerHandlers(handlers gamehandlers.Handlers) {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	r.logger.Info("Registering game module handlers",
		slog.String("phase_deadline_subject", gameevents.PhaseDeadlineTopic),
	)

	registerHandler(deps, gameevents.PhaseDeadlineTopic, handlers.HandlePhaseDeadline)

	r.logger.Info("Game module handlers registered successfully")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "game." + topic

	deps.router.AddConsumerHandler(
		handlerName,
		topic,
		deps.subscriber,
		handlerwrapper.WrapTyped[T](
			handlerName,
			deps.logger,
			deps.tracer,
			deps.publisher,
			handler,
		),
	)
}

// Close shuts down the router.
func (r *GameRouter) Close() error {
	return r.Router.Close()
}
